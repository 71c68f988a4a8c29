package web

import (
	"context"
	"html/template"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"cardquest/internal/cards"
	"cardquest/internal/combat"
	"cardquest/internal/config"
	"cardquest/internal/game"
	"cardquest/internal/session"
)

type Server struct {
	Engine  *game.Engine
	Catalog cards.Catalog
	Rules   combat.Rules
	Store   session.Store[game.PlayerState]
	Tmpl    *template.Template
	Log     *zap.Logger
	Pacing  config.PacingConfig

	StaticDir     string
	SecureCookies bool

	// fights holds the running combat engine of each session. Engines are
	// not persisted; a restarted server drops fights in progress.
	fights     *session.MemoryStore[*fightSession]
	fightsOnce sync.Once
}

const cookieName = "cardquest_sid"

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/reroll", s.handleReroll)
	mux.HandleFunc("/begin", s.handleBegin)

	mux.HandleFunc("/game", s.handleGame)
	mux.HandleFunc("/play", s.handlePlay)

	mux.HandleFunc("/fight", s.handleFight)
	mux.HandleFunc("/fight/select", s.fightCommand(cmdSelect))
	mux.HandleFunc("/fight/discard", s.fightCommand(cmdDiscard))
	mux.HandleFunc("/fight/commit", s.fightCommand(cmdCommit))
	mux.HandleFunc("/fight/play", s.fightCommand(cmdPlay))
	mux.HandleFunc("/fight/sacrifice", s.fightCommand(cmdSacrifice))
	mux.HandleFunc("/fight/end-turn", s.fightCommand(cmdEndTurn))
	mux.HandleFunc("/fight/flee", s.fightCommand(cmdFlee))
	mux.HandleFunc("/fight/step", s.fightCommand(cmdStep))
	mux.HandleFunc("/fight/restart", s.handleRestart)
	mux.HandleFunc("/fight/continue", s.handleContinue)
	mux.HandleFunc("/fight/report", s.handleReport)
	mux.HandleFunc("/fight/events", s.handleEvents)

	mux.HandleFunc("/cards/art/", s.handleCardArt)

	staticDir := s.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	return mux
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/start", http.StatusFound)
}

// GET /game renders the full page for wherever the player currently is.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := s.sessionID(r)
	st, ok, err := s.Store.Get(ctx, id)
	if id == "" || err != nil || !ok {
		http.Redirect(w, r, "/start", http.StatusFound)
		return
	}

	data := map[string]any{}
	if fs, found := s.fight(ctx, id); found && st.InFight() {
		fs.mu.Lock()
		data["Fight"] = s.makeFightViewModel(fs, "")
		fs.mu.Unlock()
	} else {
		vm, err := s.makeViewModel(st, "", nil, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data["Game"] = vm
	}
	s.render(w, "layout.html", data)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
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
	choice := r.FormValue("choice")

	res, err := s.Engine.ApplyChoice(st, choice)
	if err != nil {
		s.logger().Error("apply choice", zap.String("session", sessionID), zap.String("choice", choice), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if res.Fight != "" {
		fs, err := s.startFight(ctx, sessionID, res.Fight)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := s.Store.Put(ctx, sessionID, res.State); err != nil {
			http.Error(w, "failed to save state", http.StatusInternalServerError)
			return
		}
		fs.mu.Lock()
		vm := s.makeFightViewModel(fs, "")
		fs.mu.Unlock()
		s.render(w, "fight.html", vm)
		return
	}

	if err := s.Store.Put(ctx, sessionID, res.State); err != nil {
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}

	vm, err := s.makeViewModel(res.State, res.ErrorMessage, res.LastRoll, res.LastOutcome)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// htmx: return fragment for #game only
	s.render(w, "game.html", vm)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger().Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
	}
}

// getOrCreateState loads the session's player. Without a cookie a fresh
// player is created at the default story's start; a cookie naming an
// unknown session reports found=false.
func (s *Server) getOrCreateState(ctx context.Context, w http.ResponseWriter, r *http.Request) (game.PlayerState, string, bool) {
	id := s.sessionID(r)
	if id == "" {
		id = s.Store.NewID()
		s.setCookie(w, id)
		st := s.newPlayer()
		_ = s.Store.Put(ctx, id, st)
		return st, id, true
	}

	st, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		s.logger().Error("load session", zap.String("session", id), zap.Error(err))
		return game.PlayerState{}, id, false
	}
	return st, id, ok
}

func (s *Server) newPlayer() game.PlayerState {
	storyID := s.defaultStoryID()
	story := s.Engine.Stories[storyID]
	if story == nil {
		return game.NewPlayer("")
	}
	st, err := s.Engine.Begin(storyID, "", game.RollStats())
	if err != nil {
		return game.NewPlayer(story.Start)
	}
	return st
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
