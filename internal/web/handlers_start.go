package web

import (
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"cardquest/internal/game"
)

const maxNameLen = 64

// adventureOptions builds the story list from Engine.Stories (ID + Title or derived name).
func (s *Server) adventureOptions() []AdventureOption {
	if s.Engine == nil || s.Engine.Stories == nil {
		return nil
	}
	out := make([]AdventureOption, 0, len(s.Engine.Stories))
	for _, id := range game.StoryIDs(s.Engine.Stories) {
		name := s.Engine.Stories[id].Title
		if name == "" && id != "" {
			name = strings.ToUpper(id[:1]) + id[1:]
		}
		out = append(out, AdventureOption{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// defaultStoryID prefers game.DefaultStoryID, then the first story by ID.
func (s *Server) defaultStoryID() string {
	if s.Engine == nil || len(s.Engine.Stories) == 0 {
		return game.DefaultStoryID
	}
	if s.Engine.Stories[game.DefaultStoryID] != nil {
		return game.DefaultStoryID
	}
	return game.StoryIDs(s.Engine.Stories)[0]
}

func formName(r *http.Request) string {
	name := strings.TrimSpace(r.FormValue("name"))
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// GET /start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Prevent caching so the user always sees the stats we just saved
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

	id := s.sessionID(r)
	if id == "" {
		id = s.Store.NewID()
		s.setCookie(w, id)
	}
	s.dropFight(ctx, id)

	defaultID := s.defaultStoryID()
	defaultStory := s.Engine.Stories[defaultID]
	if defaultStory == nil {
		http.Error(w, "no adventure available", http.StatusInternalServerError)
		return
	}
	st := game.NewPlayer(defaultStory.Start)
	st.StoryID = defaultID
	stats, statDice := game.RollStatsDetailed()
	st.Stats = stats

	if err := s.Store.Put(ctx, id, st); err != nil {
		s.logger().Error("save session", zap.String("session", id), zap.Error(err))
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}

	vm := StartViewModel{
		Stats:            st.Stats,
		StrengthDice:     statDice[0],
		LuckDice:         statDice[1],
		HealthDice:       statDice[2],
		SessionID:        id,
		StoryID:          st.StoryID,
		AdventureOptions: s.adventureOptions(),
	}

	s.render(w, "layout.html", map[string]any{"Start": vm})
}

// POST /reroll
func (s *Server) handleReroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	st, sessionID, found := s.getOrCreateState(ctx, w, r)
	if !found {
		http.Redirect(w, r, "/start", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	// Preserve the name and story from the form so a reroll doesn't reset them
	st.Name = formName(r)
	if storyID := r.FormValue("story_id"); s.Engine.Stories[storyID] != nil {
		st.StoryID = storyID
	}

	stats, statDice := game.RollStatsDetailed()
	st.Stats = stats
	if err := s.Store.Put(ctx, sessionID, st); err != nil {
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}

	vm := StartViewModel{
		Stats:            st.Stats,
		StrengthDice:     statDice[0],
		LuckDice:         statDice[1],
		HealthDice:       statDice[2],
		SessionID:        sessionID,
		Name:             st.Name,
		StoryID:          st.StoryID,
		AdventureOptions: s.adventureOptions(),
	}
	s.render(w, "start.html", vm)
}

// POST /begin
func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	// Prefer session_id from the start page so we always load the session
	// that has the stats just shown
	sessionID := r.FormValue("session_id")
	st, ok, err := s.Store.Get(ctx, sessionID)
	if sessionID == "" || err != nil || !ok {
		sessionID = s.sessionID(r)
		st, ok, err = s.Store.Get(ctx, sessionID)
		if sessionID == "" || err != nil || !ok {
			http.Redirect(w, r, "/start", http.StatusFound)
			return
		}
	}
	s.setCookie(w, sessionID)

	storyID := r.FormValue("story_id")
	if s.Engine.Stories[storyID] == nil {
		storyID = s.defaultStoryID()
	}
	begun, err := s.Engine.Begin(storyID, formName(r), st.Stats)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.dropFight(ctx, sessionID)
	if err := s.Store.Put(ctx, sessionID, begun); err != nil {
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}
	s.logger().Info("adventure begun", zap.String("session", sessionID), zap.String("story", storyID))

	vm, err := s.makeViewModel(begun, "", nil, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("HX-Push-Url", "/game")
	s.render(w, "game.html", vm)
}
