// Package duel is a terminal front end for a single fight.
package duel

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"cardquest/internal/combat"
)

// Action is a player-requested command.
type Action uint8

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionSelect
	ActionDiscard
	ActionPlayNow
	ActionCommit
	ActionEndTurn
	ActionSacrifice
	ActionFlee
	ActionQuit
)

// keyToAction maps a tcell key event to a fight action.
func keyToAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyLeft:
		return ActionLeft
	case tcell.KeyRight:
		return ActionRight
	case tcell.KeyEnter:
		return ActionCommit
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	}

	switch ev.Rune() {
	case 'h', 'H':
		return ActionLeft
	case 'l', 'L':
		return ActionRight
	case ' ':
		return ActionSelect
	case 'd', 'D':
		return ActionDiscard
	case 'p', 'P':
		return ActionPlayNow
	case 'c', 'C':
		return ActionCommit
	case 'e', 'E':
		return ActionEndTurn
	case 's', 'S':
		return ActionSacrifice
	case 'f', 'F':
		return ActionFlee
	case 'q', 'Q':
		return ActionQuit
	}
	return ActionNone
}

// UI draws one fight on a tcell screen and feeds it key presses.
type UI struct {
	screen tcell.Screen
	engine *combat.Engine
	pace   func(time.Duration) time.Duration
	log    *zap.Logger
	cursor int

	pollDone chan struct{}
}

// New returns a UI for engine. pace scales the engine's step delays; nil
// plays enemy steps back without waiting.
func New(screen tcell.Screen, engine *combat.Engine, pace func(time.Duration) time.Duration, log *zap.Logger) *UI {
	if pace == nil {
		pace = func(time.Duration) time.Duration { return 0 }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UI{screen: screen, engine: engine, pace: pace, log: log}
}

// Run blocks until the player quits or dismisses the result screen. It
// reports the result when the fight ended.
func (u *UI) Run() (combat.Result, bool) {
	events := make(chan tcell.Event, 32)
	done := make(chan struct{})
	defer close(done)
	u.pollDone = make(chan struct{})
	go u.poll(events, done, u.pollDone)

	for {
		u.Draw()

		var timer <-chan time.Time
		if d, ok := u.engine.NextDelay(); ok {
			timer = time.After(u.pace(d))
		}

		select {
		case <-timer:
			u.engine.Step()
		case ev, ok := <-events:
			if !ok {
				return u.engine.Result()
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				u.screen.Sync()
			case *tcell.EventKey:
				if u.handleKey(ev) {
					return u.engine.Result()
				}
			}
		}
	}
}

// poll forwards screen events until the screen is finalized or Run has
// returned.
func (u *UI) poll(events chan<- tcell.Event, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			close(events)
			return
		}
		select {
		case <-done:
			return
		default:
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// handleKey applies one key press and reports whether the UI should close.
func (u *UI) handleKey(ev *tcell.EventKey) bool {
	action := keyToAction(ev)
	if action == ActionQuit {
		return true
	}
	if _, done := u.engine.Result(); done {
		// any key leaves the result screen
		return true
	}

	hand := u.hand()
	instance := ""
	if len(hand) > 0 {
		u.cursor = min(max(u.cursor, 0), len(hand)-1)
		instance = hand[u.cursor].Instance
	}

	var evs []combat.Event
	switch action {
	case ActionLeft:
		if u.cursor > 0 {
			u.cursor--
		}
	case ActionRight:
		if u.cursor < len(hand)-1 {
			u.cursor++
		}
	case ActionSelect:
		evs = u.engine.ToggleSelect(instance)
	case ActionDiscard:
		evs = u.engine.ToggleDiscard(instance)
	case ActionPlayNow:
		evs = u.engine.PlayNow(instance)
	case ActionCommit:
		evs = u.engine.CommitSelection()
	case ActionEndTurn:
		evs = u.engine.EndTurn()
	case ActionSacrifice:
		evs = u.engine.Sacrifice()
	case ActionFlee:
		evs = u.engine.Flee()
	}
	if len(evs) > 0 {
		u.log.Debug("command", zap.Uint8("action", uint8(action)), zap.Int("events", len(evs)))
	}
	return false
}

// hand is the player's hand in display order: attacks, then actions.
func (u *UI) hand() []combat.CardView {
	v := u.engine.Snapshot()
	return append(append([]combat.CardView(nil), v.Attacks...), v.Actions...)
}

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorYellow)
	styleEnemy    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const cardWidth = 24

// Draw renders the current state.
func (u *UI) Draw() {
	s := u.screen
	s.Clear()
	v := u.engine.Snapshot()
	w, h := s.Size()

	putText(s, 1, 0, fmt.Sprintf("Turn %d  %s", v.Turn, phaseLabel(v.Phase)), styleTitle)
	putText(s, 1, 2, fmt.Sprintf("%-16s %s %d/%d", runewidth.Truncate(v.Enemy.Name, 16, "…"), bar(v.Enemy.HealthPercent(), 20), v.Enemy.Health, v.Enemy.MaxHealth), styleEnemy)
	if v.Strategy != "" {
		putText(s, 1, 3, fmt.Sprintf("%-16s %s, %d cards", "", v.Strategy, v.EnemyCards), styleDim)
	}
	putText(s, 1, 4, fmt.Sprintf("%-16s %s %d/%d", "You", bar(v.Player.HealthPercent(), 20), v.Player.Health, v.Player.MaxHealth), stylePlayer)
	focus := fmt.Sprintf("Focus %d/%d", v.Focus, v.MaxFocus)
	if v.StagedCost > 0 {
		focus += fmt.Sprintf(" (%d staged)", v.StagedCost)
	}
	if v.Synergy > 0 {
		focus += fmt.Sprintf("  Synergy +%d", v.Synergy)
	}
	putText(s, 1, 5, focus, styleDefault)

	y := 7
	for i, cv := range u.hand() {
		st := styleDefault
		switch {
		case i == u.cursor:
			st = styleCursor
		case cv.Selected:
			st = styleSelected
		case cv.Discarded || !cv.Affordable:
			st = styleDim
		}
		putText(s, 1, y+i, cardLabel(cv), st)
	}

	top := y + len(v.Attacks) + len(v.Actions) + 1
	for i, msg := range v.Messages {
		if top+i >= h-2 {
			break
		}
		putText(s, 1, top+i, runewidth.Truncate(msg, max(w-2, 1), "…"), styleDefault)
	}

	help := "←/→ move  space select  d discard  p play  c commit  e end turn  s sacrifice  f flee  q quit"
	if v.Result != nil {
		help = fmt.Sprintf("%s: press any key", strings.ToUpper(string(v.Result.Outcome)))
	}
	putText(s, 1, h-1, runewidth.Truncate(help, max(w-2, 1), "…"), styleDim)
	s.Show()
}

// cardLabel is a fixed-width line for one hand card.
func cardLabel(cv combat.CardView) string {
	mark := " "
	switch {
	case cv.Selected:
		mark = "*"
	case cv.Discarded:
		mark = "x"
	}
	name := runewidth.FillRight(runewidth.Truncate(cv.Card.Name, cardWidth, "…"), cardWidth)
	detail := ""
	if cv.Card.IsAttack() {
		detail = fmt.Sprintf("%d dmg %s", cv.Card.BaseDamage, cv.Card.Affinity)
	} else if cv.Card.IsAction() {
		detail = string(cv.Card.EffectType)
	}
	return fmt.Sprintf("[%s] %s %d◆  %s", mark, name, cv.Card.FocusCost, detail)
}

func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func phaseLabel(p combat.Phase) string {
	switch p {
	case combat.PhasePlayerTurn:
		return "Your turn"
	case combat.PhaseEnemyAnalyzing, combat.PhaseEnemySelecting, combat.PhaseEnemyPlaying:
		return "Enemy turn"
	case combat.PhaseResolved:
		return "Fight over"
	}
	return string(p)
}

// putText writes s starting at (x, y), advancing by each rune's display
// width. It stops at the right edge of the screen.
func putText(scr tcell.Screen, x, y int, s string, st tcell.Style) {
	sw, _ := scr.Size()
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if x+rw > sw {
			break
		}
		scr.SetContent(x, y, r, nil, st)
		x += max(rw, 1)
	}
}
