package combat

import (
	"fmt"

	"cardquest/internal/cards"
)

// scriptedRand replays fixed values. Once a script runs out Float64 returns
// 0.99, which declines every probabilistic branch, and IntN returns 0.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

var testCatalog = cards.Table{
	"slash":  {ID: "slash", Kind: cards.KindAttack, Name: "Slash", FocusCost: 1, BaseDamage: 5, Affinity: cards.AffinityPhysical},
	"ember":  {ID: "ember", Kind: cards.KindAttack, Name: "Ember", FocusCost: 3, BaseDamage: 3, Affinity: cards.AffinityFire},
	"spark":  {ID: "spark", Kind: cards.KindAttack, Name: "Spark", FocusCost: 4, BaseDamage: 4, Affinity: cards.AffinityThunder},
	"splash": {ID: "splash", Kind: cards.KindAttack, Name: "Splash", FocusCost: 1, BaseDamage: 2, Affinity: cards.AffinityWater},
	"glow":   {ID: "glow", Kind: cards.KindAttack, Name: "Glow", FocusCost: 1, BaseDamage: 2, Affinity: cards.AffinityLight},
	"shade":  {ID: "shade", Kind: cards.KindAttack, Name: "Shade", FocusCost: 1, BaseDamage: 2, Affinity: cards.AffinityDark},
	"jab":    {ID: "jab", Kind: cards.KindAttack, Name: "Jab", FocusCost: 1, BaseDamage: 2, Affinity: cards.AffinityPhysical},
	"smash":  {ID: "smash", Kind: cards.KindAttack, Name: "Smash", FocusCost: 3, BaseDamage: 8, Affinity: cards.AffinityPhysical},

	"guard":  {ID: "guard", Kind: cards.KindAction, Name: "Guard", FocusCost: 1, EffectType: cards.EffectDefense, EffectValue: 0.5},
	"mend":   {ID: "mend", Kind: cards.KindAction, Name: "Mend", FocusCost: 2, EffectType: cards.EffectHeal, EffectValue: 0.2},
	"stand":  {ID: "stand", Kind: cards.KindAction, Name: "Last Stand", FocusCost: 1, EffectType: cards.EffectTankHeal, EffectValue: 0.3, VulnerabilityMultiplier: 3},
	"mirror": {ID: "mirror", Kind: cards.KindAction, Name: "Mirror", FocusCost: 2, EffectType: cards.EffectReflect, EffectValue: 0.5},
	"focus":  {ID: "focus", Kind: cards.KindAction, Name: "Focus", FocusCost: 0, EffectType: cards.EffectFocusGain, EffectValue: 2},
	"gamble": {ID: "gamble", Kind: cards.KindAction, Name: "Gamble", FocusCost: 0, EffectType: cards.EffectFocusGainVulnerable, EffectValue: 3, VulnerabilityMultiplier: 1.5},
	"study":  {ID: "study", Kind: cards.KindAction, Name: "Study", FocusCost: 2, EffectType: cards.EffectDamageBoost, EffectValue: 0.5, EffectDuration: 2},
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
}

func testFight(playerAttacks, playerActions, enemyAttacks, enemyActions []string) FightConfig {
	return FightConfig{
		ID:          "test",
		Description: "A goblin blocks the road.",
		Player: SideConfig{
			MaxHealth:  100,
			AttackDeck: playerAttacks,
			ActionDeck: playerActions,
		},
		Enemy: EnemyConfig{
			SideConfig: SideConfig{
				MaxHealth:  50,
				AttackDeck: enemyAttacks,
				ActionDeck: enemyActions,
			},
			Name: "Goblin",
		},
		Rewards:     []string{"gold"},
		NextSceneID: "village",
	}
}

// newTestEngine builds an engine whose player hand is c1..c7 (attacks) and
// c8..c10 (actions).
func newTestEngine(cfg FightConfig, rng *scriptedRand, opts ...Option) *Engine {
	if rng == nil {
		rng = &scriptedRand{}
	}
	opts = append([]Option{WithRand(rng), WithIDs(seqIDs())}, opts...)
	return NewEngine(cfg, testCatalog, opts...)
}

func intPtr(v int) *int { return &v }

func messages(evs []Event) []string {
	var out []string
	for _, ev := range evs {
		if ev.Kind == EventMessage {
			out = append(out, ev.Text)
		}
	}
	return out
}

func kinds(evs []Event) []EventKind {
	var out []EventKind
	for _, ev := range evs {
		out = append(out, ev.Kind)
	}
	return out
}
