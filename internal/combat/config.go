package combat

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Fallbacks applied when a fight configuration leaves fields out.
const (
	DefaultPlayerMaxHealth = 100
	DefaultEnemyMaxHealth  = 50
	DefaultEnemyFocus      = 5
	DefaultEnemyName       = "Enemy"
	DefaultReturnScene     = "game_over"
)

// SideConfig describes one combatant's starting state.
type SideConfig struct {
	MaxHealth        int      `yaml:"maxHealth" json:"maxHealth"`
	CurrentHealth    *int     `yaml:"currentHealth" json:"currentHealth,omitempty"`
	DamageMultiplier float64  `yaml:"damageMultiplier" json:"damageMultiplier"`
	AttackDeck       []string `yaml:"attackDeck" json:"attackDeck"`
	ActionDeck       []string `yaml:"actionDeck" json:"actionDeck"`
}

// EnemyConfig adds the AI's parameters to a SideConfig.
type EnemyConfig struct {
	SideConfig      `yaml:",inline"`
	Name            string   `yaml:"name" json:"name"`
	Difficulty      string   `yaml:"difficulty" json:"difficulty"`
	Focus           int      `yaml:"focus" json:"focus"`
	DefaultStrategy Strategy `yaml:"defaultStrategy" json:"defaultStrategy"`
}

// FightConfig is what the narrative layer hands to NewEngine.
type FightConfig struct {
	ID            string      `yaml:"id" json:"id"`
	Description   string      `yaml:"description" json:"description"`
	Player        SideConfig  `yaml:"player" json:"player"`
	Enemy         EnemyConfig `yaml:"enemy" json:"enemy"`
	Rewards       []string    `yaml:"rewards" json:"rewards"`
	NextSceneID   string      `yaml:"nextSceneId" json:"nextSceneId"`
	ReturnSceneID string      `yaml:"returnSceneId" json:"returnSceneId"`
}

// Normalize returns a copy of cfg with documented defaults filled in. Each
// fallback is logged as a warning; none of them is fatal.
func (cfg FightConfig) Normalize(log *zap.Logger) FightConfig {
	if log == nil {
		log = zap.NewNop()
	}
	out := cfg
	warn := func(field string, def any) {
		log.Warn("fight config field missing, using default",
			zap.String("fight", cfg.ID),
			zap.String("field", field),
			zap.Any("default", def),
		)
	}

	if out.Player.MaxHealth <= 0 {
		warn("player.maxHealth", DefaultPlayerMaxHealth)
		out.Player.MaxHealth = DefaultPlayerMaxHealth
	}
	if out.Enemy.MaxHealth <= 0 {
		warn("enemy.maxHealth", DefaultEnemyMaxHealth)
		out.Enemy.MaxHealth = DefaultEnemyMaxHealth
	}
	if out.Player.DamageMultiplier <= 0 {
		out.Player.DamageMultiplier = 1
	}
	if out.Enemy.DamageMultiplier <= 0 {
		out.Enemy.DamageMultiplier = 1
	}
	if out.Enemy.Name == "" {
		warn("enemy.name", DefaultEnemyName)
		out.Enemy.Name = DefaultEnemyName
	}
	if out.Enemy.Focus <= 0 {
		out.Enemy.Focus = DefaultEnemyFocus
	}
	if !out.Enemy.DefaultStrategy.Valid() {
		out.Enemy.DefaultStrategy = StrategyBalanced
	}
	if out.ReturnSceneID == "" {
		out.ReturnSceneID = DefaultReturnScene
	}
	for field, deck := range map[string][]string{
		"player.attackDeck": out.Player.AttackDeck,
		"player.actionDeck": out.Player.ActionDeck,
		"enemy.attackDeck":  out.Enemy.AttackDeck,
		"enemy.actionDeck":  out.Enemy.ActionDeck,
	} {
		if len(deck) == 0 {
			warn(field, "empty deck")
		}
	}

	// decks are copied so a running fight never aliases shared config
	out.Player.AttackDeck = append([]string(nil), out.Player.AttackDeck...)
	out.Player.ActionDeck = append([]string(nil), out.Player.ActionDeck...)
	out.Enemy.AttackDeck = append([]string(nil), out.Enemy.AttackDeck...)
	out.Enemy.ActionDeck = append([]string(nil), out.Enemy.ActionDeck...)
	out.Rewards = append([]string(nil), out.Rewards...)
	return out
}

// LoadFights reads a YAML map of fight ID to configuration.
func LoadFights(path string) (map[string]*FightConfig, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	var fights map[string]*FightConfig
	if err := yaml.Unmarshal(b, &fights); err != nil {
		return nil, fmt.Errorf("decode fights: %w", err)
	}
	for id, f := range fights {
		if f == nil {
			return nil, fmt.Errorf("fight %q is empty", id)
		}
		if f.ID == "" {
			f.ID = id
		}
	}
	return fights, nil
}
