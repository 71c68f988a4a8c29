package combat

// Phase is a state of the turn machine.
type Phase string

const (
	PhaseSetup           Phase = "setup"
	PhasePlayerTurn      Phase = "player_turn"
	PhaseResolvingPlayer Phase = "resolving_player_cards"
	PhaseEnemyAnalyzing  Phase = "enemy_analyzing"
	PhaseEnemySelecting  Phase = "enemy_selecting"
	PhaseEnemyPlaying    Phase = "enemy_playing"
	PhaseResolved        Phase = "resolved"
)

// EventKind classifies a notification for the presentation layer.
type EventKind string

const (
	EventMessage   EventKind = "message"
	EventHealth    EventKind = "health"
	EventFocus     EventKind = "focus"
	EventHand      EventKind = "hand"
	EventSelection EventKind = "selection"
	EventPhase     EventKind = "phase"
	EventStrategy  EventKind = "strategy"
	EventResult    EventKind = "result"
)

// Outcome is how a fight ended.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeFled    Outcome = "fled"
)

// Result is the terminal notification, carrying the hints the narrative
// layer needs to continue.
type Result struct {
	Outcome     Outcome  `json:"outcome"`
	Rewards     []string `json:"rewards,omitempty"`
	NextSceneID string   `json:"next_scene_id,omitempty"`
	Turns       int      `json:"turns"`
}

// Event is a single state change, described for display.
type Event struct {
	Kind     EventKind `json:"kind"`
	Side     Side      `json:"side,omitempty"`
	Text     string    `json:"text,omitempty"`
	Value    int       `json:"value,omitempty"`
	Max      int       `json:"max,omitempty"`
	Phase    Phase     `json:"phase,omitempty"`
	Strategy Strategy  `json:"strategy,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

func messageEvent(text string) Event {
	return Event{Kind: EventMessage, Text: text}
}

func healthEvent(side Side, c *Combatant) Event {
	return Event{Kind: EventHealth, Side: side, Value: c.Health, Max: c.MaxHealth}
}

func focusEvent(s *State) Event {
	return Event{Kind: EventFocus, Side: SidePlayer, Value: s.Focus, Max: s.MaxFocus}
}
