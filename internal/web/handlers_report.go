package web

import (
	"fmt"
	"net/http"

	"cardquest/internal/report"
)

// GET /fight/report downloads the fight so far as a PDF chronicle.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fs, _, ok := s.currentFight(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	view := fs.engine.Snapshot()
	log := fs.engine.Log()
	fightID := fs.fightID
	fs.mu.Unlock()

	pdf, err := report.Fight(view, log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fight-%s.pdf"`, fightID))
	if _, err := w.Write(pdf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
