package combat

import (
	"math"

	"cardquest/internal/cards"
)

// Side identifies a combatant.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Combatant is one side's health and active modifiers. Multipliers rest at
// 1.0 and fractions at 0 when no effect is active.
type Combatant struct {
	Name             string  `json:"name"`
	MaxHealth        int     `json:"max_health"`
	Health           int     `json:"health"`
	DamageMultiplier float64 `json:"damage_multiplier"`
	Defense          float64 `json:"defense"`
	Vulnerability    float64 `json:"vulnerability"`
	Reflect          float64 `json:"reflect"`
	TankHeal         float64 `json:"tank_heal"`
	Boost            float64 `json:"boost"`
	BoostTurns       int     `json:"boost_turns"`
}

func newCombatant(name string, cfg SideConfig) Combatant {
	c := Combatant{
		Name:             name,
		MaxHealth:        cfg.MaxHealth,
		Health:           cfg.MaxHealth,
		DamageMultiplier: cfg.DamageMultiplier,
	}
	if cfg.CurrentHealth != nil {
		c.setHealth(*cfg.CurrentHealth)
	}
	c.resetModifiers()
	return c
}

func (c *Combatant) resetModifiers() {
	c.Defense = 1
	c.Vulnerability = 1
	c.Reflect = 0
	c.TankHeal = 0
	c.Boost = 1
	c.BoostTurns = 0
}

func (c *Combatant) setHealth(v int) {
	c.Health = max(0, min(v, c.MaxHealth))
}

// takeDamage subtracts n and returns the health actually lost.
func (c *Combatant) takeDamage(n int) int {
	before := c.Health
	c.setHealth(c.Health - max(n, 0))
	return before - c.Health
}

// heal adds n and returns the health actually gained.
func (c *Combatant) heal(n int) int {
	before := c.Health
	c.setHealth(c.Health + max(n, 0))
	return c.Health - before
}

// fractionOfMax returns floor(MaxHealth * f).
func (c *Combatant) fractionOfMax(f float64) int {
	return int(math.Floor(float64(c.MaxHealth) * f))
}

// HealthPercent is current health as a percentage of max.
func (c Combatant) HealthPercent() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.Health) / float64(c.MaxHealth) * 100
}

// Alive reports whether health is above zero.
func (c Combatant) Alive() bool { return c.Health > 0 }

// HandCard is one card instance in a hand. Hands draw with replacement, so
// the same card ID can appear more than once; Instance tells them apart.
// Slot is the pool category the card was drawn for.
type HandCard struct {
	Instance string     `json:"instance"`
	CardID   string     `json:"card_id"`
	Slot     cards.Kind `json:"slot"`
}

// PlayedCard is an entry in the player's rolling history.
type PlayedCard struct {
	Card cards.Card `json:"card"`
	Turn int        `json:"turn"`
}

// Staging is the player's uncommitted selection.
type Staging struct {
	Selected       []string `json:"selected"`
	Discard        []string `json:"discard"`
	TotalFocusCost int      `json:"total_focus_cost"`
}

func (s *Staging) clear() {
	s.Selected = nil
	s.Discard = nil
	s.TotalFocusCost = 0
}

// Pools are the draw pools of one side. Draws replace, they never deplete.
type Pools struct {
	Attack []string
	Action []string
}

// State is the mutable record of one fight. It is owned by an Engine.
type State struct {
	Player Combatant
	Enemy  Combatant

	Focus    int
	MaxFocus int

	PlayerHand  []HandCard
	EnemyHand   []HandCard
	PlayerPools Pools
	EnemyPools  Pools

	// ledgers: card IDs played this turn per side
	PlayerPlayed []string
	EnemyPlayed  []string
	History      []PlayedCard

	Turn    int
	Active  bool
	Staging Staging

	Strategy Strategy
	Threat   float64
}

func (s *State) combatant(side Side) *Combatant {
	if side == SidePlayer {
		return &s.Player
	}
	return &s.Enemy
}

func (s *State) ledger(side Side) *[]string {
	if side == SidePlayer {
		return &s.PlayerPlayed
	}
	return &s.EnemyPlayed
}

func (s *State) hand(side Side) *[]HandCard {
	if side == SidePlayer {
		return &s.PlayerHand
	}
	return &s.EnemyHand
}

func findInstance(hand []HandCard, instance string) (int, bool) {
	for i, hc := range hand {
		if hc.Instance == instance {
			return i, true
		}
	}
	return -1, false
}

func removeInstance(hand []HandCard, instance string) []HandCard {
	if i, ok := findInstance(hand, instance); ok {
		return append(hand[:i:i], hand[i+1:]...)
	}
	return hand
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
