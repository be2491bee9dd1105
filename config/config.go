// Package config loads the service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/wage"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	// Catalog is an optional factory catalog seeded into the store at startup.
	Catalog string `yaml:"catalog"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Policy wage.Policy `yaml:"policy"`

	Shabbat struct {
		Enter string `yaml:"enter"` // Friday fallback, HH:MM
		Exit  string `yaml:"exit"`  // Saturday fallback, HH:MM
	} `yaml:"shabbat"`

	Summary struct {
		Workers         int  `yaml:"workers"`
		Scheduled       bool `yaml:"scheduled"`
		IntervalMinutes int  `yaml:"interval_minutes"`
	} `yaml:"summary"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML config file. ${ENV_VAR} placeholders are expanded before
// parsing; unset fields take their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "wage.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 600
	}
	def := wage.DefaultPolicy()
	if c.Policy.BreakThreshold <= 0 {
		c.Policy.BreakThreshold = def.BreakThreshold
	}
	if c.Policy.StandbyCancelPercent <= 0 {
		c.Policy.StandbyCancelPercent = def.StandbyCancelPercent
	}
	if len(c.Policy.SickPercents) == 0 {
		c.Policy.SickPercents = def.SickPercents
	}
	if c.Policy.NightStandbyPercent <= 0 {
		c.Policy.NightStandbyPercent = def.NightStandbyPercent
	}
	if c.Shabbat.Enter == "" {
		c.Shabbat.Enter = "16:00"
	}
	if c.Shabbat.Exit == "" {
		c.Shabbat.Exit = "22:00"
	}
	if c.Summary.Workers <= 0 {
		c.Summary.Workers = 4
	}
	if c.Summary.IntervalMinutes <= 0 {
		c.Summary.IntervalMinutes = 60
	}
}

// Validate rejects values that would fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.ShabbatDefaults(); err != nil {
		return err
	}
	if c.Policy.StandbyCancelPercent > 100 {
		return fmt.Errorf("policy.standby_cancel_percent %d exceeds 100", c.Policy.StandbyCancelPercent)
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) SummaryInterval() time.Duration {
	return time.Duration(c.Summary.IntervalMinutes) * time.Minute
}

func (c *Config) LogLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ShabbatDefaults parses the fallback entry and exit clocks.
func (c *Config) ShabbatDefaults() (calendar.Defaults, error) {
	enter, err := calendar.ParseClock(c.Shabbat.Enter)
	if err != nil {
		return calendar.Defaults{}, fmt.Errorf("shabbat.enter: %w", err)
	}
	exit, err := calendar.ParseClock(c.Shabbat.Exit)
	if err != nil {
		return calendar.Defaults{}, fmt.Errorf("shabbat.exit: %w", err)
	}
	return calendar.Defaults{Enter: enter, Exit: exit}, nil
}
