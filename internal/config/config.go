package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

// Membership write modes.
const (
	MemberWriteAppend    = "append"
	MemberWriteOverwrite = "overwrite"
)

// Config represents the global ~/.chatadmin/config.toml.
type Config struct {
	DefaultProfile string   `toml:"default_profile" env:"DEFAULT_PROFILE"`
	Store          Store    `toml:"store" envPrefix:"STORE_"`
	Identity       Identity `toml:"identity" envPrefix:"IDENTITY_"`
	Console        Console  `toml:"console" envPrefix:"CONSOLE_"`
	Daemon         Daemon   `toml:"daemon" envPrefix:"DAEMON_"`
}

// Store selects and configures the document store backend.
type Store struct {
	Driver        string `toml:"driver" env:"DRIVER"`
	RedisAddr     string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" env:"REDIS_PREFIX"`
}

// Identity configures operator session tokens.
type Identity struct {
	TokenSecret string   `toml:"token_secret" env:"TOKEN_SECRET"`
	TokenTTL    Duration `toml:"token_ttl" env:"TOKEN_TTL"`
}

// Console configures the terminal console.
type Console struct {
	PageSize        int    `toml:"page_size" env:"PAGE_SIZE"`
	MemberWriteMode string `toml:"member_write_mode" env:"MEMBER_WRITE_MODE"`
	ExclusiveEdit   bool   `toml:"exclusive_edit" env:"EXCLUSIVE_EDIT"`
}

// Daemon configures the chatadmind process.
type Daemon struct {
	MetricsAddr string `toml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel    string `toml:"log_level" env:"LOG_LEVEL"`
}

// Duration is a time.Duration that decodes from strings like "12h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for toml and env.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store: Store{
			Driver:      DriverSQLite,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "chatadmin",
		},
		Identity: Identity{
			TokenTTL: Duration{12 * time.Hour},
		},
		Console: Console{
			PageSize:        10,
			MemberWriteMode: MemberWriteAppend,
			ExclusiveEdit:   true,
		},
		Daemon: Daemon{
			LogLevel: "info",
		},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv reads the config file if present, loads an optional .env file
// and applies CHATADMIN_* environment overrides. A missing config file is
// not an error.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// .env is optional.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CHATADMIN_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon or console cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBolt:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("config: store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	switch c.Console.MemberWriteMode {
	case MemberWriteAppend, MemberWriteOverwrite:
	default:
		return fmt.Errorf("config: unknown console.member_write_mode %q", c.Console.MemberWriteMode)
	}
	if c.Console.PageSize <= 0 {
		return fmt.Errorf("config: console.page_size must be positive, got %d", c.Console.PageSize)
	}
	if c.Identity.TokenTTL.Duration <= 0 {
		return fmt.Errorf("config: identity.token_ttl must be positive, got %s", c.Identity.TokenTTL)
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
