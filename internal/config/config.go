// Package config loads server settings. Environment variables beat the
// YAML file, which beats built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cardquest/internal/combat"
)

// EnvPrefix is prepended to every environment override, e.g.
// CARDQUEST_SERVER_ADDR.
const EnvPrefix = "CARDQUEST"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
	Session SessionConfig `mapstructure:"session"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

type ContentConfig struct {
	Cards     string `mapstructure:"cards"`
	Fights    string `mapstructure:"fights"`
	Stories   string `mapstructure:"stories"`
	Templates string `mapstructure:"templates"`
	Static    string `mapstructure:"static"`
}

// LoggingConfig selects the zap level and encoder. Output is a file path;
// empty means stderr.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SessionConfig picks where player sessions live.
type SessionConfig struct {
	Backend     string `mapstructure:"backend"`
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// CombatConfig mirrors combat.Rules.
type CombatConfig struct {
	InitialFocus      int    `mapstructure:"initial_focus"`
	MaxFocus          int    `mapstructure:"max_focus"`
	FocusRegen        int    `mapstructure:"focus_regen"`
	SacrificeBonus    int    `mapstructure:"sacrifice_bonus"`
	HistorySize       int    `mapstructure:"history_size"`
	DefenseFormula    string `mapstructure:"defense_formula"`
	ImmediateResponse bool   `mapstructure:"immediate_response"`
}

// Rules converts the section into engine rules. Hand sizes are not
// configurable.
func (c CombatConfig) Rules() combat.Rules {
	r := combat.DefaultRules()
	r.InitialFocus = c.InitialFocus
	r.MaxFocus = c.MaxFocus
	r.FocusRegen = c.FocusRegen
	r.SacrificeBonus = c.SacrificeBonus
	r.HistorySize = c.HistorySize
	r.DefenseFormula = combat.DefenseFormula(c.DefenseFormula)
	r.ImmediateResponse = c.ImmediateResponse
	return r
}

// PacingConfig controls how the web layer spaces out enemy steps.
type PacingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Scale   float64 `mapstructure:"scale"`
}

// Delay scales a step's pacing hint. Disabled pacing yields zero.
func (p PacingConfig) Delay(hint time.Duration) time.Duration {
	if !p.Enabled || p.Scale <= 0 {
		return 0
	}
	return time.Duration(float64(hint) * p.Scale)
}

func setDefaults(v *viper.Viper) {
	rules := combat.DefaultRules()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("content.cards", "content/cards.yaml")
	v.SetDefault("content.fights", "content/fights.yaml")
	v.SetDefault("content.stories", "content/stories")
	v.SetDefault("content.templates", "templates")
	v.SetDefault("content.static", "static")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "")

	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.database_url", "")
	v.SetDefault("session.table", "sessions")

	v.SetDefault("combat.initial_focus", rules.InitialFocus)
	v.SetDefault("combat.max_focus", rules.MaxFocus)
	v.SetDefault("combat.focus_regen", rules.FocusRegen)
	v.SetDefault("combat.sacrifice_bonus", rules.SacrificeBonus)
	v.SetDefault("combat.history_size", rules.HistorySize)
	v.SetDefault("combat.defense_formula", string(rules.DefenseFormula))
	v.SetDefault("combat.immediate_response", rules.ImmediateResponse)

	v.SetDefault("pacing.enabled", true)
	v.SetDefault("pacing.scale", 1.0)
}

// Load reads path if it is non-empty and exists, applies environment
// overrides and validates the result. A missing file is not an error; an
// unreadable or malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Session.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Session.DatabaseURL == "" {
			return errors.New("session.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if err := c.Combat.Rules().Validate(); err != nil {
		return fmt.Errorf("combat: %w", err)
	}
	if c.Pacing.Scale < 0 {
		return errors.New("pacing.scale must not be negative")
	}
	return nil
}
