package combat

import "cardquest/internal/cards"

// CardView is a hand card joined with its catalog data and staging marks.
type CardView struct {
	Instance   string     `json:"instance"`
	Card       cards.Card `json:"card"`
	Slot       cards.Kind `json:"slot"`
	Selected   bool       `json:"selected"`
	Discarded  bool       `json:"discarded"`
	Affordable bool       `json:"affordable"`
}

// View is a read-only snapshot of a fight for rendering.
type View struct {
	ID          string     `json:"id"`
	Phase       Phase      `json:"phase"`
	Active      bool       `json:"active"`
	Turn        int        `json:"turn"`
	Player      Combatant  `json:"player"`
	Enemy       Combatant  `json:"enemy"`
	Focus       int        `json:"focus"`
	MaxFocus    int        `json:"max_focus"`
	StagedCost  int        `json:"staged_cost"`
	Attacks     []CardView `json:"attacks"`
	Actions     []CardView `json:"actions"`
	EnemyCards  int        `json:"enemy_cards"`
	Strategy    Strategy   `json:"strategy"`
	Synergy     int        `json:"synergy"`
	LastMessage string     `json:"last_message"`
	Messages    []string   `json:"messages"`
	Pending     int        `json:"pending"`
	Result      *Result    `json:"result,omitempty"`
}

// recentMessages is how many log lines a View carries.
const recentMessages = 8

// Snapshot returns the current View.
func (e *Engine) Snapshot() View {
	v := View{
		ID:          e.cfg.ID,
		Phase:       e.phase,
		Active:      e.st.Active,
		Turn:        e.st.Turn,
		Player:      e.st.Player,
		Enemy:       e.st.Enemy,
		Focus:       e.st.Focus,
		MaxFocus:    e.st.MaxFocus,
		StagedCost:  e.st.Staging.TotalFocusCost,
		EnemyCards:  len(e.st.EnemyHand),
		Strategy:    e.st.Strategy,
		LastMessage: e.LastMessage(),
		Pending:     len(e.queue),
		Result:      e.result,
	}
	v.Synergy, _ = Synergy(e.resolver.ledgerAffinities(e.st.PlayerPlayed))

	for _, hc := range e.st.PlayerHand {
		card := e.Card(hc.CardID)
		selected := containsString(e.st.Staging.Selected, hc.Instance)
		cv := CardView{
			Instance:   hc.Instance,
			Card:       card,
			Slot:       hc.Slot,
			Selected:   selected,
			Discarded:  containsString(e.st.Staging.Discard, hc.Instance),
			Affordable: selected || e.st.Staging.TotalFocusCost+card.FocusCost <= e.st.Focus,
		}
		if hc.Slot == cards.KindAction {
			v.Actions = append(v.Actions, cv)
		} else {
			v.Attacks = append(v.Attacks, cv)
		}
	}

	for i := len(e.history) - 1; i >= 0 && len(v.Messages) < recentMessages; i-- {
		if e.history[i].Kind == EventMessage {
			v.Messages = append(v.Messages, e.history[i].Text)
		}
	}
	for i, j := 0, len(v.Messages)-1; i < j; i, j = i+1, j-1 {
		v.Messages[i], v.Messages[j] = v.Messages[j], v.Messages[i]
	}
	return v
}
