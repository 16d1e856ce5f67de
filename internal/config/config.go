package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
)

// Config holds all digits configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Decay    DecayConfig    `toml:"decay"`
	Notify   NotifyConfig   `toml:"notify"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Bind string `toml:"bind" env:"DIGITS_BIND" env-default:"127.0.0.1"`
	Port int    `toml:"port" env:"DIGITS_PORT" env-default:"37778"`
}

type DatabaseConfig struct {
	Path string `toml:"path" env:"DIGITS_DB"` // empty: store.DefaultDBPath()
}

type DecayConfig struct {
	MaxSleep     time.Duration `toml:"max_sleep"     env:"DIGITS_DECAY_MAX_SLEEP" env-default:"1m"`
	Sweep        string        `toml:"sweep"         env:"DIGITS_DECAY_SWEEP"     env-default:"@every 5m"`
	HistoryLimit int           `toml:"history_limit" env:"DIGITS_DECAY_HISTORY"   env-default:"200"`
}

type NotifyConfig struct {
	FeedSize int `toml:"feed_size" env:"DIGITS_FEED_SIZE" env-default:"50"`
}

// LogConfig mirrors the variables xlog reads at startup.
type LogConfig struct {
	Level  string `toml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `toml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Decay: DecayConfig{
			MaxSleep:     time.Minute,
			Sweep:        "@every 5m",
			HistoryLimit: 200,
		},
		Notify: NotifyConfig{FeedSize: 50},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a TOML file and environment variables.
// Priority: env > file > defaults. An empty path loads env and defaults only;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and the sweep schedule.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Decay.MaxSleep <= 0 {
		return fmt.Errorf("decay.max_sleep must be > 0 (got %s)", c.Decay.MaxSleep)
	}
	if _, err := cron.ParseStandard(c.Decay.Sweep); err != nil {
		return fmt.Errorf("decay.sweep: %w", err)
	}
	if c.Decay.HistoryLimit < 0 {
		return fmt.Errorf("decay.history_limit must be >= 0 (got %d)", c.Decay.HistoryLimit)
	}
	if c.Notify.FeedSize < 1 {
		return fmt.Errorf("notify.feed_size must be > 0 (got %d)", c.Notify.FeedSize)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
