package web

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cardquest/internal/cards"
	"cardquest/internal/combat"
	"cardquest/internal/game"
	"cardquest/internal/session"
)

const testStoryID = "test"

func testServer(t *testing.T) *Server {
	t.Helper()
	story := &game.Story{
		Title: "Test Road",
		Start: "start",
		Nodes: map[string]*game.Node{
			"start": {
				Text: "You are at the start.",
				Choices: []game.Choice{
					{Key: "next", Text: "Go next", Next: "end"},
					{Key: "fight", Text: "Fight the rat", Fight: "rat"},
				},
			},
			"end": {
				Text:   "The end.",
				Ending: true,
			},
			"won": {
				Title: "Victory Lane",
				Text:  "The rat is gone.",
			},
			"game_over": {
				Text:   "You fell.",
				Ending: true,
			},
		},
	}
	fights := map[string]*combat.FightConfig{
		"rat": {
			ID:          "rat",
			Description: "A rat blocks the way!",
			Player: combat.SideConfig{
				MaxHealth:  100,
				AttackDeck: []string{"slash"},
				ActionDeck: []string{"guard"},
			},
			Enemy: combat.EnemyConfig{
				SideConfig: combat.SideConfig{MaxHealth: 30, AttackDeck: []string{"bite"}},
				Name:       "Rat",
				Focus:      3,
			},
			Rewards:       []string{"rat tail"},
			NextSceneID:   "won",
			ReturnSceneID: "game_over",
		},
	}
	catalog := cards.Table{
		"slash": {ID: "slash", Kind: cards.KindAttack, Name: "Slash", FocusCost: 1, BaseDamage: 5, Affinity: cards.AffinityPhysical},
		"bite":  {ID: "bite", Kind: cards.KindAttack, Name: "Bite", FocusCost: 1, BaseDamage: 2, Affinity: cards.AffinityPhysical},
		"guard": {ID: "guard", Kind: cards.KindAction, Name: "Guard", FocusCost: 1, EffectType: cards.EffectDefense, EffectValue: 0.5},
	}

	tmpl := template.Must(template.ParseGlob(filepath.Join("..", "..", "templates", "*.html")))
	return &Server{
		Engine:    &game.Engine{Stories: map[string]*game.Story{testStoryID: story}, Fights: fights},
		Catalog:   catalog,
		Rules:     combat.DefaultRules(),
		Store:     session.NewMemoryStore[game.PlayerState](),
		Tmpl:      tmpl,
		StaticDir: t.TempDir(),
	}
}

// putPlayer stores a fresh player at the test story's start and returns its
// session ID.
func putPlayer(t *testing.T, srv *Server) string {
	t.Helper()
	st, err := srv.Engine.Begin(testStoryID, "Hero", game.Stats{Strength: 8, Luck: 8, Health: 12})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id := srv.Store.NewID()
	if err := srv.Store.Put(context.Background(), id, st); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return id
}

func post(t *testing.T, srv *Server, path, body, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

const pathStart = "/start"

func TestHandleIndex(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != pathStart {
		t.Errorf("Expected Location %s, got %q", pathStart, loc)
	}
}

func TestHandleIndex_UnknownPath(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestHandleStart(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, pathStart, http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Create Your Adventurer") {
		t.Error("Expected body to contain 'Create Your Adventurer'")
	}
	if !strings.Contains(body, "Test Road") {
		t.Error("Expected the story title among the adventure options")
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("Expected Set-Cookie for new session")
	}
}

func TestHandleReroll(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	rec := post(t, srv, "/reroll", "name=Brienne&story_id=test", id)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	updated, ok, err := srv.Store.Get(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if updated.Name != "Brienne" {
		t.Errorf("Expected name kept across reroll, got %q", updated.Name)
	}
	if updated.Stats.Strength < 2 || updated.Stats.Strength > 12 {
		t.Errorf("Expected rerolled strength in 2..12, got %d", updated.Stats.Strength)
	}
}

func TestHandleBegin(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	rec := post(t, srv, "/begin", "session_id="+id+"&name=Hero&story_id=test", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You are at the start.") {
		t.Error("Expected the start node in the body")
	}
	if rec.Header().Get("HX-Push-Url") != "/game" {
		t.Error("Expected HX-Push-Url header")
	}
	updated, _, _ := srv.Store.Get(context.Background(), id)
	if updated.Name != "Hero" || updated.NodeID != "start" {
		t.Errorf("Expected Hero at start, got %q at %q", updated.Name, updated.NodeID)
	}
}

func TestHandleBegin_WithCookieNoFormSession(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	rec := post(t, srv, "/begin", "name=Hero&story_id=nonexistent", id)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	updated, _, _ := srv.Store.Get(context.Background(), id)
	if updated.StoryID != testStoryID {
		t.Errorf("Expected default story, got %q", updated.StoryID)
	}
}

func TestHandleBegin_NoSessionRedirects(t *testing.T) {
	srv := testServer(t)
	rec := post(t, srv, "/begin", "name=Hero", "")
	if rec.Code != http.StatusFound {
		t.Errorf("Expected 302, got %d", rec.Code)
	}
}

func TestHandlePlay(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	rec := post(t, srv, "/play", "choice=next", id)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The end.") {
		t.Error("Expected body to contain 'The end.'")
	}
}

func TestHandlePlay_UnknownChoice(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	rec := post(t, srv, "/play", "choice=fly", id)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "That choice doesn&#39;t exist.") {
		t.Errorf("Expected error message in body, got %s", rec.Body.String())
	}
}

func TestHandlePlay_UnknownSessionRedirectsToStart(t *testing.T) {
	srv := testServer(t)
	rec := post(t, srv, "/play", "choice=next", "unknown-session-id-never-stored")
	if rec.Code != http.StatusFound {
		t.Errorf("Expected 302, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != pathStart {
		t.Errorf("Expected redirect to %s, got %q", pathStart, rec.Header().Get("Location"))
	}
}

func TestHandlePlay_NoCookie_CreatesStateAndRenders(t *testing.T) {
	srv := testServer(t)
	rec := post(t, srv, "/play", "choice=next", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The end.") {
		t.Error("Expected body to contain 'The end.'")
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("Expected Set-Cookie for new session")
	}
}

func TestHandlePlay_EmptyStories(t *testing.T) {
	srv := testServer(t)
	srv.Engine = &game.Engine{Stories: map[string]*game.Story{}}
	rec := post(t, srv, "/play", "choice=next", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 when no stories, got %d", rec.Code)
	}
}

// errReader is an io.Reader that always returns an error (for testing ParseForm failure).
type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }

func TestHandlePlay_ParseFormError_BadRequest(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)
	req := httptest.NewRequest(http.MethodPost, "/play", io.NopCloser(&errReader{err: errors.New("read error")}))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 on ParseForm error, got %d", rec.Code)
	}
}

func TestHandlePlay_MethodNotAllowed(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/play", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHandleGame(t *testing.T) {
	srv := testServer(t)
	id := putPlayer(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/game", http.NoBody)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<html") || !strings.Contains(body, "You are at the start.") {
		t.Error("Expected full page with the current node")
	}
}

func TestHandleGame_NoSessionRedirects(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/game", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("Expected 302, got %d", rec.Code)
	}
}

func TestAdventureOptions(t *testing.T) {
	srv := testServer(t)
	opts := srv.adventureOptions()
	if len(opts) != 1 {
		t.Fatalf("Expected 1 adventure option, got %d", len(opts))
	}
	if opts[0].ID != testStoryID || opts[0].Name != "Test Road" {
		t.Errorf("Unexpected option %+v", opts[0])
	}
}

func TestDefaultStoryID(t *testing.T) {
	srv := testServer(t)
	if id := srv.defaultStoryID(); id != testStoryID {
		t.Errorf("Expected defaultStoryID %q, got %q", testStoryID, id)
	}
}

func TestDefaultStoryID_NoStories(t *testing.T) {
	srv := &Server{Engine: &game.Engine{Stories: nil}}
	if id := srv.defaultStoryID(); id != game.DefaultStoryID {
		t.Errorf("Expected DefaultStoryID when no stories, got %q", id)
	}
}
