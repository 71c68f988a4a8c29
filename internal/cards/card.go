// Package cards resolves card identifiers to their static definitions.
package cards

// Kind separates damage-dealing cards from utility cards.
type Kind string

const (
	KindAttack Kind = "attack"
	KindAction Kind = "action"
)

// EffectType is the behavior of an action card.
type EffectType string

const (
	EffectNone                EffectType = ""
	EffectHeal                EffectType = "heal"
	EffectFocusGain           EffectType = "focus_gain"
	EffectDefense             EffectType = "defense"
	EffectFocusGainVulnerable EffectType = "focus_gain_vulnerable"
	EffectTankHeal            EffectType = "tank_heal"
	EffectReflect             EffectType = "reflect"
	EffectDamageBoost         EffectType = "damage_boost"
)

// Affinity is the elemental tag carried by attack cards.
type Affinity string

const (
	AffinityFire     Affinity = "fire"
	AffinityWater    Affinity = "water"
	AffinityThunder  Affinity = "thunder"
	AffinityLight    Affinity = "light"
	AffinityDark     Affinity = "dark"
	AffinityPhysical Affinity = "physical"
)

// Elements is the canonical element set. Playing all of them in one turn
// awards the perfect synergy bonus.
var Elements = []Affinity{AffinityFire, AffinityWater, AffinityThunder, AffinityLight, AffinityDark}

// UnknownName is the display name of the sentinel card.
const UnknownName = "Unknown Card"

// Card is an immutable card definition.
type Card struct {
	ID          string `yaml:"id" json:"id"`
	Kind        Kind   `yaml:"type" json:"type"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	FocusCost   int    `yaml:"focus_cost" json:"focus_cost"`

	// attack payload
	BaseDamage int      `yaml:"base_damage" json:"base_damage,omitempty"`
	Affinity   Affinity `yaml:"affinity" json:"affinity,omitempty"`

	// action payload
	EffectType              EffectType `yaml:"effect_type" json:"effect_type,omitempty"`
	EffectValue             float64    `yaml:"effect_value" json:"effect_value,omitempty"`
	EffectDuration          int        `yaml:"effect_duration" json:"effect_duration,omitempty"`
	VulnerabilityMultiplier float64    `yaml:"vulnerability_multiplier" json:"vulnerability_multiplier,omitempty"`
}

// IsAttack reports whether the card deals damage.
func (c Card) IsAttack() bool { return c.Kind == KindAttack }

// IsAction reports whether the card is a utility card.
func (c Card) IsAction() bool { return c.Kind == KindAction }

// IsUnknown reports whether c is the sentinel returned for unresolvable IDs.
func (c Card) IsUnknown() bool { return c.Kind == "" }

// Unknown returns the sentinel definition for id: cost 1, no effect.
func Unknown(id string) Card {
	return Card{
		ID:          id,
		Name:        UnknownName,
		Description: "This card could not be identified.",
		FocusCost:   1,
	}
}
