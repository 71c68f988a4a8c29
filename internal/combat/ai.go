package combat

import (
	"sort"

	"cardquest/internal/cards"
)

// Strategy is the enemy's posture for one turn.
type Strategy string

const (
	StrategyDefensive  Strategy = "defensive"
	StrategyAggressive Strategy = "aggressive"
	StrategyBalanced   Strategy = "balanced"
)

var strategies = []Strategy{StrategyBalanced, StrategyDefensive, StrategyAggressive}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyDefensive || s == StrategyAggressive || s == StrategyBalanced
}

// Tuning for the enemy AI. Health thresholds are percentages.
const (
	DesperationHealth     = 30.0
	DesperationDefensive  = 0.7
	HighThreat            = 10.0
	LowThreat             = 3.0
	HealthyHealth         = 60.0
	DamageDominance       = 2.0
	StrategyOverrideRate  = 0.2
	DefensiveStopRate     = 0.7
	DefensiveHealHealth   = 50.0
	AggressiveHealHealth  = 25.0
	BalancedHealHealth    = 40.0
	BalancedDefenseThreat = 5.0
	CounterRate           = 0.5
	ImpactfulDamage       = 5
	counterHealDamage     = 4
	damageThreatWeight    = 1.5
)

// Assessment is the AI's reading of recent player behavior.
type Assessment struct {
	Damage float64 `json:"damage"`
	Buff   float64 `json:"buff"`
	Debuff float64 `json:"debuff"`
	Threat float64 `json:"threat"`
}

// Analyze scores the player's recent plays. Cards played within one turn
// of turn count double.
func Analyze(history []PlayedCard, turn int) Assessment {
	var a Assessment
	for _, pc := range history {
		w := 1.0
		if turn-pc.Turn <= 1 {
			w = 2
		}
		c := pc.Card
		switch {
		case c.IsAttack():
			dmg := c.BaseDamage
			if dmg == 0 {
				dmg = 1
			}
			a.Damage += float64(dmg) * w
		case c.IsAction():
			switch c.EffectType {
			case cards.EffectDamageBoost:
				a.Buff += 3 * w
			case cards.EffectFocusGain, cards.EffectHeal:
				a.Buff += 2 * w
			case cards.EffectTankHeal:
				a.Debuff += w
				a.Buff += 2 * w
			default:
				a.Buff += w
			}
		}
	}
	a.Threat = a.Damage*damageThreatWeight + a.Buff + a.Debuff
	return a
}

// ChooseStrategy picks a posture from an assessment and the enemy's health
// percentage, then lets a random override replace it now and then.
func ChooseStrategy(a Assessment, healthPct float64, rng Rand) Strategy {
	s := StrategyBalanced
	switch {
	case healthPct < DesperationHealth:
		if rng.Float64() < DesperationDefensive {
			s = StrategyDefensive
		} else {
			s = StrategyAggressive
		}
	case a.Threat > HighThreat:
		s = StrategyDefensive
	case a.Threat < LowThreat && healthPct > HealthyHealth:
		s = StrategyAggressive
	case a.Damage > a.Buff*DamageDominance:
		s = StrategyDefensive
	case a.Buff > a.Damage:
		s = StrategyAggressive
	}
	if rng.Float64() < StrategyOverrideRate {
		s = strategies[rng.IntN(len(strategies))]
	}
	return s
}

// Plan is the input to SelectCards.
type Plan struct {
	Strategy  Strategy
	Budget    int
	HealthPct float64
	Threat    float64
}

type candidate struct {
	idx  int
	card cards.Card
}

type picker struct {
	remaining int
	picked    []int
}

func (p *picker) take(c candidate) bool {
	if c.card.FocusCost > p.remaining {
		return false
	}
	p.picked = append(p.picked, c.idx)
	p.remaining -= c.card.FocusCost
	return true
}

func (p *picker) firstAffordable(list []candidate) {
	for _, c := range list {
		if p.take(c) {
			return
		}
	}
}

// SelectCards chooses which cards of hand to play and in what order. It
// returns indices into hand. The summed focus cost never exceeds the budget.
func SelectCards(hand []cards.Card, plan Plan, rng Rand) []int {
	var attacks, defenses, heals, utilities []candidate
	for i, c := range hand {
		cand := candidate{idx: i, card: c}
		switch {
		case c.IsAttack():
			attacks = append(attacks, cand)
		case c.IsAction() && (c.EffectType == cards.EffectDefense || c.EffectType == cards.EffectReflect):
			defenses = append(defenses, cand)
		case c.IsAction() && c.EffectType == cards.EffectHeal:
			heals = append(heals, cand)
		case c.IsAction():
			utilities = append(utilities, cand)
		}
	}

	p := &picker{remaining: plan.Budget}
	switch plan.Strategy {
	case StrategyDefensive:
		for _, c := range defenses {
			p.take(c)
			if len(p.picked) > 0 && rng.Float64() < DefensiveStopRate {
				break
			}
		}
		if plan.HealthPct < DefensiveHealHealth {
			p.firstAffordable(heals)
		}
		sort.SliceStable(attacks, func(i, j int) bool {
			return attacks[i].card.FocusCost < attacks[j].card.FocusCost
		})
		n := rng.IntN(min(2, len(attacks)) + 1)
		for i := 0; i < n && len(attacks) > 0 && p.remaining > 0; i++ {
			p.take(attacks[0])
			attacks = attacks[1:]
		}

	case StrategyAggressive:
		sort.SliceStable(attacks, func(i, j int) bool {
			return attacks[i].card.BaseDamage > attacks[j].card.BaseDamage
		})
		for _, c := range attacks {
			p.take(c)
			if len(utilities) > 0 && p.remaining <= utilities[0].card.FocusCost {
				break
			}
		}
		for _, c := range utilities {
			if c.card.EffectType != cards.EffectDamageBoost && c.card.EffectType != cards.EffectFocusGain {
				continue
			}
			if p.take(c) {
				break
			}
		}
		if plan.HealthPct < AggressiveHealHealth {
			p.firstAffordable(heals)
		}

	default:
		if plan.Threat > BalancedDefenseThreat && len(defenses) > 0 {
			p.take(defenses[0])
		}
		shuffle(rng, attacks)
		if maxAttacks := min(3, len(attacks)); maxAttacks > 0 {
			n := 1 + rng.IntN(maxAttacks)
			for i := 0; i < n && len(attacks) > 0 && p.remaining > 0; i++ {
				p.take(attacks[0])
				attacks = attacks[1:]
			}
		}
		if plan.HealthPct < BalancedHealHealth && len(heals) > 0 {
			p.take(heals[0])
		}
		if len(utilities) > 0 && p.remaining > 0 {
			shuffle(rng, utilities)
			p.take(utilities[0])
		}
	}

	if len(p.picked) == 0 {
		cheapest := -1
		for i, c := range hand {
			if c.FocusCost <= plan.Budget && (cheapest < 0 || c.FocusCost < hand[cheapest].FocusCost) {
				cheapest = i
			}
		}
		if cheapest >= 0 {
			p.picked = append(p.picked, cheapest)
		}
	}
	return p.picked
}

// IsImpactful reports whether a player card is strong enough to provoke an
// immediate enemy response.
func IsImpactful(c cards.Card) bool {
	switch {
	case c.IsAttack():
		return c.BaseDamage >= ImpactfulDamage
	case c.IsAction():
		return c.EffectType == cards.EffectDamageBoost || c.EffectType == cards.EffectTankHeal
	}
	return false
}

// FindCounter returns the index of the enemy card that answers played: a
// defense or reflect against an attack, a heavy attack against a damage
// boost or a heal.
func FindCounter(played cards.Card, hand []cards.Card) (int, bool) {
	for i, c := range hand {
		switch {
		case played.IsAttack():
			if c.IsAction() && (c.EffectType == cards.EffectDefense || c.EffectType == cards.EffectReflect) {
				return i, true
			}
		case played.EffectType == cards.EffectDamageBoost:
			if c.IsAttack() && c.BaseDamage >= ImpactfulDamage {
				return i, true
			}
		case played.EffectType == cards.EffectHeal:
			if c.IsAttack() && c.BaseDamage >= counterHealDamage {
				return i, true
			}
		}
	}
	return -1, false
}
