package web

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"cardquest/internal/combat"
	"cardquest/internal/session"
)

// fightSession is one running fight. mu serializes every use of engine:
// HTTP commands, polling steps and the websocket feed may arrive
// concurrently for the same session.
type fightSession struct {
	mu      sync.Mutex
	fightID string
	engine  *combat.Engine
}

type fightCmd int

const (
	cmdSelect fightCmd = iota
	cmdDiscard
	cmdCommit
	cmdPlay
	cmdSacrifice
	cmdEndTurn
	cmdFlee
	cmdStep
)

// apply runs cmd against the engine. card is the hand instance for the
// commands that take one.
func (fs *fightSession) apply(cmd fightCmd, card string) []combat.Event {
	e := fs.engine
	switch cmd {
	case cmdSelect:
		return e.ToggleSelect(card)
	case cmdDiscard:
		return e.ToggleDiscard(card)
	case cmdCommit:
		return e.CommitSelection()
	case cmdPlay:
		return e.PlayNow(card)
	case cmdSacrifice:
		return e.Sacrifice()
	case cmdEndTurn:
		return e.EndTurn()
	case cmdFlee:
		return e.Flee()
	case cmdStep:
		return e.Step()
	}
	return nil
}

func (s *Server) fightStore() *session.MemoryStore[*fightSession] {
	s.fightsOnce.Do(func() {
		if s.fights == nil {
			s.fights = session.NewMemoryStore[*fightSession]()
		}
	})
	return s.fights
}

func (s *Server) fight(ctx context.Context, sessionID string) (*fightSession, bool) {
	if sessionID == "" {
		return nil, false
	}
	fs, ok, _ := s.fightStore().Get(ctx, sessionID)
	return fs, ok
}

func (s *Server) dropFight(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	_ = s.fightStore().Delete(ctx, sessionID)
}

func (s *Server) newCombat(fightID string) (*combat.Engine, error) {
	cfg, err := s.Engine.FightConfig(fightID)
	if err != nil {
		return nil, err
	}
	log := s.logger().With(zap.String("fight", fightID))
	opts := []combat.Option{combat.WithLogger(log)}
	if s.Rules != (combat.Rules{}) {
		opts = append(opts, combat.WithRules(s.Rules))
	}
	return combat.NewEngine(cfg, s.Catalog, opts...), nil
}

// startFight creates the engine for fightID and registers it for the
// session, replacing any earlier fight.
func (s *Server) startFight(ctx context.Context, sessionID, fightID string) (*fightSession, error) {
	e, err := s.newCombat(fightID)
	if err != nil {
		return nil, err
	}
	fs := &fightSession{fightID: fightID, engine: e}
	if err := s.fightStore().Put(ctx, sessionID, fs); err != nil {
		return nil, err
	}
	s.logger().Info("fight started", zap.String("session", sessionID), zap.String("fight", fightID))
	return fs, nil
}

// currentFight resolves the request's fight or writes the error response.
func (s *Server) currentFight(w http.ResponseWriter, r *http.Request) (*fightSession, string, bool) {
	id := s.sessionID(r)
	if id == "" {
		http.Redirect(w, r, "/start", http.StatusFound)
		return nil, "", false
	}
	fs, ok := s.fight(r.Context(), id)
	if !ok {
		http.Error(w, "no fight in progress", http.StatusNotFound)
		return nil, id, false
	}
	return fs, id, true
}

// GET /fight
func (s *Server) handleFight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fs, _, ok := s.currentFight(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	vm := s.makeFightViewModel(fs, "")
	fs.mu.Unlock()
	s.render(w, "fight.html", vm)
}

// fightCommand builds the POST handler for one player command. Commands
// take the hand instance from the "card" form field.
func (s *Server) fightCommand(cmd fightCmd) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		fs, id, ok := s.currentFight(w, r)
		if !ok {
			return
		}

		fs.mu.Lock()
		events := fs.apply(cmd, r.FormValue("card"))
		vm := s.makeFightViewModel(fs, "")
		fs.mu.Unlock()

		s.logger().Debug("fight command",
			zap.String("session", id),
			zap.String("path", r.URL.Path),
			zap.Int("events", len(events)),
			zap.String("phase", string(vm.View.Phase)),
		)
		s.render(w, "fight.html", vm)
	}
}

// POST /fight/restart starts the same fight again from its configuration.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fs, id, ok := s.currentFight(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	fightID := fs.fightID
	fs.mu.Unlock()

	fresh, err := s.startFight(r.Context(), id, fightID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fresh.mu.Lock()
	vm := s.makeFightViewModel(fresh, "The fight begins anew.")
	fresh.mu.Unlock()
	s.render(w, "fight.html", vm)
}

// POST /fight/continue hands a finished fight back to the story.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	fs, id, ok := s.currentFight(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	res, done := fs.engine.Result()
	fs.mu.Unlock()
	if !done {
		http.Error(w, "the fight is not over", http.StatusConflict)
		return
	}

	st, found, err := s.Store.Get(ctx, id)
	if err != nil || !found {
		http.Redirect(w, r, "/start", http.StatusFound)
		return
	}
	st, err = s.Engine.ResolveFight(st, res)
	if err != nil {
		s.logger().Error("resolve fight", zap.String("session", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.Store.Put(ctx, id, st); err != nil {
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}
	s.dropFight(ctx, id)
	s.logger().Info("fight resolved",
		zap.String("session", id),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("turns", res.Turns),
	)

	vm, err := s.makeViewModel(st, "", nil, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "game.html", vm)
}
