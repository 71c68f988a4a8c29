package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefenseFormula_Apply(t *testing.T) {
	assert.Equal(t, 15, DefenseInverted.Apply(10, 0.5))
	assert.Equal(t, 10, DefenseInverted.Apply(10, 1))
	assert.Equal(t, 5, DefenseReduction.Apply(10, 0.5))
	assert.Equal(t, 10, DefenseReduction.Apply(10, 1))
	assert.Equal(t, 3, DefenseReduction.Apply(7, 0.5))
	assert.Equal(t, DefenseInverted, DefaultDefenseFormula)
	assert.False(t, DefenseFormula("halved").Valid())
}

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"zero max focus", func(r *Rules) { r.MaxFocus = 0 }},
		{"initial above max", func(r *Rules) { r.InitialFocus = 11 }},
		{"negative regen", func(r *Rules) { r.FocusRegen = -1 }},
		{"negative slots", func(r *Rules) { r.PlayerActionSlots = -1 }},
		{"no history", func(r *Rules) { r.HistorySize = 0 }},
		{"bad formula", func(r *Rules) { r.DefenseFormula = "halved" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestEnemySlots(t *testing.T) {
	atk, act := EnemySlots(DifficultySimple)
	assert.Equal(t, 2, atk)
	assert.Equal(t, 1, act)

	atk, act = EnemySlots("hard")
	assert.Equal(t, 3, atk)
	assert.Equal(t, 2, act)
}

func TestNewRand_Deterministic(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}
