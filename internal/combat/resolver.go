package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"cardquest/internal/cards"
)

// Synergy bonuses.
const (
	PerfectSynergyBonus = 10
	perfectSynergyText  = "PERFECT SYNERGY! Massive damage bonus!"
)

// Synergy returns the bonus for a set of played affinities: one point per
// distinct affinity beyond the first, plus the jackpot when every
// canonical element is present.
func Synergy(affinities []cards.Affinity) (bonus int, perfect bool) {
	distinct := map[cards.Affinity]bool{}
	for _, a := range affinities {
		distinct[a] = true
	}
	bonus = max(0, len(distinct)-1)
	perfect = true
	for _, e := range cards.Elements {
		if !distinct[e] {
			perfect = false
			break
		}
	}
	if perfect {
		bonus += PerfectSynergyBonus
	}
	return bonus, perfect
}

// Resolver applies card effects to a State. It never fails: cards it does
// not understand resolve to a "no effect" message.
type Resolver struct {
	Catalog cards.Catalog
	Defense DefenseFormula
	Log     *zap.Logger
}

func (r *Resolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// ledgerAffinities returns the affinities of the attack cards in a ledger.
func (r *Resolver) ledgerAffinities(ledger []string) []cards.Affinity {
	var out []cards.Affinity
	for _, id := range ledger {
		if c := cards.Resolve(r.Catalog, id); c.IsAttack() {
			out = append(out, c.Affinity)
		}
	}
	return out
}

// Apply resolves card played by side. The card is expected to already be
// on that side's ledger.
func (r *Resolver) Apply(st *State, side Side, card cards.Card) []Event {
	switch {
	case card.IsAttack():
		return r.attack(st, side, card)
	case card.IsAction():
		return r.action(st, side, card)
	default:
		r.logger().Warn("resolving unknown card", zap.String("card", card.ID))
		return []Event{messageEvent(fmt.Sprintf("%s has no effect.", card.Name))}
	}
}

func (r *Resolver) attack(st *State, side Side, card cards.Card) []Event {
	var ev []Event
	att := st.combatant(side)
	def := st.combatant(side.Opponent())

	damage := card.BaseDamage
	if att.DamageMultiplier > 0 && att.DamageMultiplier != 1 {
		damage = floorMul(damage, att.DamageMultiplier)
	}
	if side == SidePlayer && att.Boost > 1 {
		damage = floorMul(damage, att.Boost)
	}
	bonus, perfect := Synergy(r.ledgerAffinities(*st.ledger(side)))
	if perfect {
		ev = append(ev, messageEvent(perfectSynergyText))
	}
	damage += bonus
	damage = r.Defense.Apply(damage, def.Defense)
	damage = floorMul(damage, def.Vulnerability)
	damage = max(damage, 0)

	def.takeDamage(damage)
	if side == SidePlayer {
		ev = append(ev, messageEvent(fmt.Sprintf("You dealt %d damage to %s!", damage, def.Name)))
	} else {
		ev = append(ev, messageEvent(fmt.Sprintf("%s dealt %d damage to you!", att.Name, damage)))
	}
	ev = append(ev, healthEvent(side.Opponent(), def))

	if def.Reflect > 0 {
		reflected := floorMul(damage, def.Reflect)
		att.takeDamage(reflected)
		if side == SidePlayer {
			ev = append(ev, messageEvent(fmt.Sprintf("%d damage was reflected back to you!", reflected)))
		} else {
			ev = append(ev, messageEvent(fmt.Sprintf("%d damage was reflected back to %s!", reflected, att.Name)))
		}
		ev = append(ev, healthEvent(side, att))
	}

	r.logger().Debug("attack resolved",
		zap.String("side", string(side)),
		zap.String("card", card.ID),
		zap.Int("damage", damage),
		zap.Int("synergy", bonus),
	)
	return ev
}

func (r *Resolver) action(st *State, side Side, card cards.Card) []Event {
	self := st.combatant(side)
	player := side == SidePlayer
	v := card.EffectValue

	switch card.EffectType {
	case cards.EffectHeal:
		amount := self.fractionOfMax(v)
		self.heal(amount)
		return []Event{
			messageEvent(r.sideText(side, self, "You healed for %d health!", "%s healed for %d health!", amount)),
			healthEvent(side, self),
		}

	case cards.EffectFocusGain:
		if !player {
			break
		}
		gain := int(v)
		st.Focus = min(st.Focus+gain, st.MaxFocus)
		return []Event{messageEvent(fmt.Sprintf("You gained %d focus!", gain)), focusEvent(st)}

	case cards.EffectDefense:
		self.Defense = v
		pct := int(math.Round((1 - v) * 100))
		if player {
			return []Event{messageEvent(fmt.Sprintf("You take %d%% less damage for one turn!", pct))}
		}
		return []Event{messageEvent(fmt.Sprintf("%s takes %d%% less damage for one turn!", self.Name, pct))}

	case cards.EffectFocusGainVulnerable:
		if !player {
			break
		}
		gain := int(v)
		st.Focus = min(st.Focus+gain, st.MaxFocus)
		self.Vulnerability = vulnerabilityOf(card)
		return []Event{
			messageEvent(fmt.Sprintf("You gained %d focus but are now vulnerable!", gain)),
			focusEvent(st),
		}

	case cards.EffectTankHeal:
		self.Vulnerability = vulnerabilityOf(card)
		self.TankHeal = v
		if player {
			return []Event{messageEvent(fmt.Sprintf(
				"You enter a risky stance! Damage taken is multiplied by %g, but you'll heal if you survive.",
				self.Vulnerability))}
		}
		return []Event{messageEvent(fmt.Sprintf("%s enters a risky stance!", self.Name))}

	case cards.EffectReflect:
		self.Reflect = v
		if player {
			return []Event{messageEvent(fmt.Sprintf(
				"You created a reflective barrier that returns %d%% of damage!", int(math.Round(v*100))))}
		}
		return []Event{messageEvent(fmt.Sprintf("%s created a reflective barrier!", self.Name))}

	case cards.EffectDamageBoost:
		if !player {
			break
		}
		turns := card.EffectDuration
		if turns <= 0 {
			turns = 1
		}
		self.Boost = 1 + v
		self.BoostTurns = turns
		return []Event{messageEvent(fmt.Sprintf(
			"You analyzed the enemy's weakness! +%d%% damage for %d turns.", int(math.Round(v*100)), turns))}
	}

	// player-only effects played by the enemy, or unrecognized effect types
	r.logger().Debug("action had no effect",
		zap.String("side", string(side)),
		zap.String("card", card.ID),
		zap.String("effect", string(card.EffectType)),
	)
	return []Event{messageEvent(fmt.Sprintf("%s has no effect.", card.Name))}
}

func (r *Resolver) sideText(side Side, c *Combatant, playerFmt, enemyFmt string, n int) string {
	if side == SidePlayer {
		return fmt.Sprintf(playerFmt, n)
	}
	return fmt.Sprintf(enemyFmt, c.Name, n)
}

// vulnerabilityOf returns the card's vulnerability multiplier, neutral
// when the card does not carry one.
func vulnerabilityOf(c cards.Card) float64 {
	if c.VulnerabilityMultiplier <= 0 {
		return 1
	}
	return c.VulnerabilityMultiplier
}

func floorMul(n int, f float64) int {
	return int(math.Floor(float64(n) * f))
}
