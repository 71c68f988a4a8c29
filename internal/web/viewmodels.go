package web

import (
	"time"

	"cardquest/internal/combat"
	"cardquest/internal/game"
)

// StartViewModel contains data for rendering the character creation screen.
type StartViewModel struct {
	Stats            game.Stats
	StrengthDice     [2]int // two d6 for Strength
	LuckDice         [2]int
	HealthDice       [2]int
	SessionID        string // so Begin request can use same session if cookie not sent
	Name             string
	StoryID          string
	AdventureOptions []AdventureOption
}

// AdventureOption is one story offered on the start screen.
type AdventureOption struct {
	ID   string
	Name string
}

type ViewModel struct {
	Node        *game.Node
	Choices     []game.Choice
	State       game.PlayerState
	Message     string
	LastRoll    *int
	LastOutcome *string
}

func (s *Server) makeViewModel(st game.PlayerState, msg string, roll *int, outcome *string) (ViewModel, error) {
	n, err := s.Engine.CurrentNode(st)
	if err != nil {
		return ViewModel{}, err
	}
	return ViewModel{
		Node:        n,
		Choices:     s.Engine.Choices(st),
		State:       st,
		Message:     msg,
		LastRoll:    roll,
		LastOutcome: outcome,
	}, nil
}

// FightViewModel is what fight.html renders.
type FightViewModel struct {
	View    combat.View
	Message string

	// PollAfter is how long the page waits before asking for the next
	// enemy step. Zero with Polling set means immediately.
	Polling   bool
	PollAfter time.Duration
}

// PollMillis is PollAfter in whole milliseconds for hx-trigger.
func (vm FightViewModel) PollMillis() int64 {
	return vm.PollAfter.Milliseconds()
}

// PlayerPercent and EnemyPercent size the health bars.
func (vm FightViewModel) PlayerPercent() int { return int(vm.View.Player.HealthPercent()) }

func (vm FightViewModel) EnemyPercent() int { return int(vm.View.Enemy.HealthPercent()) }

// CanAct reports whether the player's commands are accepted right now.
func (vm FightViewModel) CanAct() bool {
	return vm.View.Active && vm.View.Phase == combat.PhasePlayerTurn
}

func (s *Server) makeFightViewModel(fs *fightSession, msg string) FightViewModel {
	vm := FightViewModel{View: fs.engine.Snapshot(), Message: msg}
	if d, ok := fs.engine.NextDelay(); ok {
		vm.Polling = true
		vm.PollAfter = s.Pacing.Delay(d)
	}
	return vm
}
