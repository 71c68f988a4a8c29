package combat

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// DefenseFormula selects how a defender's defense multiplier scales
// incoming damage.
type DefenseFormula string

const (
	// DefenseInverted multiplies damage by (2 - defense). A defense card
	// that sets the multiplier to 0.5 therefore raises damage to 1.5x.
	// This is the behavior existing fight data was tuned against.
	DefenseInverted DefenseFormula = "inverted"
	// DefenseReduction multiplies damage by the defense value itself, so
	// 0.5 means half damage.
	DefenseReduction DefenseFormula = "reduction"
)

// DefaultDefenseFormula is used when a fight does not choose one.
const DefaultDefenseFormula = DefenseInverted

// Apply scales damage by defense and floors the result.
func (f DefenseFormula) Apply(damage int, defense float64) int {
	switch f {
	case DefenseReduction:
		return int(math.Floor(float64(damage) * defense))
	default:
		return int(math.Floor(float64(damage) * (2 - defense)))
	}
}

// Valid reports whether f names a known formula.
func (f DefenseFormula) Valid() bool {
	return f == DefenseInverted || f == DefenseReduction
}

// Rules holds the tunable constants of a fight.
type Rules struct {
	InitialFocus      int
	MaxFocus          int
	FocusRegen        int
	SacrificeBonus    int
	PlayerAttackSlots int
	PlayerActionSlots int
	HistorySize       int
	DefenseFormula    DefenseFormula
	ImmediateResponse bool
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		InitialFocus:      5,
		MaxFocus:          10,
		FocusRegen:        2,
		SacrificeBonus:    2,
		PlayerAttackSlots: 7,
		PlayerActionSlots: 3,
		HistorySize:       5,
		DefenseFormula:    DefaultDefenseFormula,
		ImmediateResponse: true,
	}
}

// Validate rejects rule sets that cannot produce a playable fight.
func (r Rules) Validate() error {
	switch {
	case r.MaxFocus <= 0:
		return fmt.Errorf("max focus must be positive, got %d", r.MaxFocus)
	case r.InitialFocus < 0 || r.InitialFocus > r.MaxFocus:
		return fmt.Errorf("initial focus %d outside [0, %d]", r.InitialFocus, r.MaxFocus)
	case r.FocusRegen < 0 || r.SacrificeBonus < 0:
		return fmt.Errorf("focus regen and sacrifice bonus must not be negative")
	case r.PlayerAttackSlots < 0 || r.PlayerActionSlots < 0:
		return fmt.Errorf("hand slots must not be negative")
	case r.HistorySize < 1:
		return fmt.Errorf("history size must be at least 1")
	case !r.DefenseFormula.Valid():
		return fmt.Errorf("unknown defense formula %q", r.DefenseFormula)
	}
	return nil
}

// DifficultySimple is the enemy difficulty tag with the smallest hand.
const DifficultySimple = "simple"

// EnemySlots returns the enemy's attack and action hand sizes.
func EnemySlots(difficulty string) (attack, action int) {
	if difficulty == DifficultySimple {
		return 2, 1
	}
	return 3, 2
}

// Rand is the randomness the engine and AI consume. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded PCG source.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func timeSeededRand() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

func shuffle[T any](rng Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
