package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser derives definitions from the naming convention used by older card
// data: "<weapon>_<element>_<tier>" for attacks and "<keyword>[_<tier>]" for
// actions. It is the only place that reads meaning out of an ID string.
type Parser struct{}

type weaponStats struct {
	name   string
	damage int
	cost   int
}

var weapons = map[string]weaponStats{
	"fist":   {"Fist", 2, 1},
	"dagger": {"Dagger", 3, 1},
	"sword":  {"Sword", 4, 2},
	"bow":    {"Bow", 4, 2},
	"staff":  {"Staff", 3, 1},
	"spear":  {"Spear", 5, 2},
	"axe":    {"Axe", 6, 3},
}

var affinities = map[string]Affinity{
	"fire":     AffinityFire,
	"water":    AffinityWater,
	"thunder":  AffinityThunder,
	"light":    AffinityLight,
	"dark":     AffinityDark,
	"physical": AffinityPhysical,
}

type actionTemplate struct {
	name     string
	effect   EffectType
	value    float64
	perTier  float64
	cost     int
	duration int
	vuln     float64
	desc     string
}

var actionKeywords = map[string]actionTemplate{
	"heal":    {name: "Mend", effect: EffectHeal, value: 0.2, perTier: 0.1, cost: 2, desc: "Restore a share of your maximum health."},
	"defend":  {name: "Guard", effect: EffectDefense, value: 0.5, cost: 1, desc: "Brace against the next blows."},
	"focus":   {name: "Concentrate", effect: EffectFocusGain, value: 2, perTier: 1, cost: 0, desc: "Gain focus."},
	"reflect": {name: "Mirror Ward", effect: EffectReflect, value: 0.5, perTier: 0.25, cost: 2, desc: "Return part of the damage you take."},
	"analyze": {name: "Analyze", effect: EffectDamageBoost, value: 0.5, perTier: 0.25, cost: 2, duration: 2, desc: "Study the enemy to hit harder for a while."},
	"tank":    {name: "Last Stand", effect: EffectTankHeal, value: 0.3, perTier: 0.1, cost: 1, vuln: 3, desc: "Take triple damage now, heal next turn."},
	"gamble":  {name: "Reckless Focus", effect: EffectFocusGainVulnerable, value: 3, perTier: 1, cost: 0, vuln: 1.5, desc: "Gain focus but take more damage."},
}

var tierNames = []string{"", "", " II", " III"}

const maxTier = 3

// Lookup parses id. Malformed IDs are reported as not found.
func (Parser) Lookup(id string) (Card, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(id)), "_")
	if len(parts) == 0 || parts[0] == "" {
		return Card{}, false
	}
	if w, ok := weapons[parts[0]]; ok {
		return parseAttack(id, w, parts)
	}
	if a, ok := actionKeywords[parts[0]]; ok {
		return parseAction(id, a, parts)
	}
	return Card{}, false
}

func parseAttack(id string, w weaponStats, parts []string) (Card, bool) {
	if len(parts) != 3 {
		return Card{}, false
	}
	aff, ok := affinities[parts[1]]
	if !ok {
		return Card{}, false
	}
	tier, ok := parseTier(parts[2])
	if !ok {
		return Card{}, false
	}
	element := strings.ToUpper(parts[1][:1]) + parts[1][1:]
	return Card{
		ID:          id,
		Kind:        KindAttack,
		Name:        element + " " + w.name + tierNames[tier],
		Description: fmt.Sprintf("A %s strike with a %s.", aff, strings.ToLower(w.name)),
		FocusCost:   w.cost + tier - 1,
		BaseDamage:  w.damage + (tier-1)*2,
		Affinity:    aff,
	}, true
}

func parseAction(id string, a actionTemplate, parts []string) (Card, bool) {
	tier := 1
	switch len(parts) {
	case 1:
	case 2:
		t, ok := parseTier(parts[1])
		if !ok {
			return Card{}, false
		}
		tier = t
	default:
		return Card{}, false
	}
	return Card{
		ID:                      id,
		Kind:                    KindAction,
		Name:                    a.name + tierNames[tier],
		Description:             a.desc,
		FocusCost:               a.cost,
		EffectType:              a.effect,
		EffectValue:             a.value + float64(tier-1)*a.perTier,
		EffectDuration:          a.duration,
		VulnerabilityMultiplier: a.vuln,
	}, true
}

func parseTier(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxTier {
		return 0, false
	}
	return n, true
}
