package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cardquest/internal/combat"
)

// Same-origin only; the default CheckOrigin enforces that.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

const writeWait = 10 * time.Second

// wsCommand is a player command sent over the event feed.
type wsCommand struct {
	Action string `json:"action"`
	Card   string `json:"card,omitempty"`
}

// wsMessage is what the feed sends: the events a command or step produced
// and the view after them.
type wsMessage struct {
	Type   string         `json:"type"` // "view", "events", "error" or "closed"
	Events []combat.Event `json:"events,omitempty"`
	View   *combat.View   `json:"view,omitempty"`
	Error  string         `json:"error,omitempty"`
}

var wsActions = map[string]fightCmd{
	"select":    cmdSelect,
	"discard":   cmdDiscard,
	"commit":    cmdCommit,
	"play":      cmdPlay,
	"sacrifice": cmdSacrifice,
	"end_turn":  cmdEndTurn,
	"flee":      cmdFlee,
}

// GET /fight/events upgrades to a websocket that accepts commands and
// plays queued enemy steps back at the configured pace.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.currentFight(w, r); !ok {
		return
	}
	id := s.sessionID(r)
	log := s.logger().With(zap.String("session", id))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	send := func(m wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			log.Debug("websocket write", zap.Error(err))
			return false
		}
		return true
	}

	cmds := make(chan wsCommand)
	quit := make(chan struct{})
	readerDone := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(readerDone)
		for {
			var c wsCommand
			if err := conn.ReadJSON(&c); err != nil {
				return
			}
			select {
			case cmds <- c:
			case <-quit:
				return
			}
		}
	}()

	run := func(fs *fightSession, cmd fightCmd, card string) wsMessage {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		events := fs.apply(cmd, card)
		v := fs.engine.Snapshot()
		return wsMessage{Type: "events", Events: events, View: &v}
	}

	first := true
	for {
		// The fight is looked up every round so a restart or continue
		// over HTTP is picked up here.
		fs, ok := s.fight(r.Context(), id)
		if !ok {
			send(wsMessage{Type: "closed"})
			return
		}

		fs.mu.Lock()
		d, pending := fs.engine.NextDelay()
		var v combat.View
		if first {
			v = fs.engine.Snapshot()
		}
		fs.mu.Unlock()
		if first {
			if !send(wsMessage{Type: "view", View: &v}) {
				return
			}
			first = false
		}

		var timer <-chan time.Time
		if pending {
			timer = time.After(s.Pacing.Delay(d))
		}

		select {
		case <-readerDone:
			return
		case c := <-cmds:
			cmd, known := wsActions[c.Action]
			if !known {
				if !send(wsMessage{Type: "error", Error: "unknown action " + c.Action}) {
					return
				}
				continue
			}
			if !send(run(fs, cmd, c.Card)) {
				return
			}
		case <-timer:
			if !send(run(fs, cmdStep, "")) {
				return
			}
		}
	}
}
