package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable read by the client.
const EnvPrefix = "GOPHFEED_"

// Config holds runtime settings for the gophfeed CLI.
//
// Fields:
//   - ServerURL: base URL of the posting API, including the version prefix.
//   - DatabasePath: SQLite file holding the durable login hint and cookies.
//   - LogLevel / LogFormat: slog level (debug..error) and handler (text|json).
//   - DiscardStaleFeed: drop feed responses built for a superseded scope or
//     credential instead of applying them on arrival.
type Config struct {
	ServerURL        string `env:"SERVER_URL"`
	DatabasePath     string `env:"DATABASE_PATH"`
	LogLevel         string `env:"LOG_LEVEL"`
	LogFormat        string `env:"LOG_FORMAT"`
	DiscardStaleFeed bool   `env:"DISCARD_STALE_FEED"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api/v1"
	c.DatabasePath = "gophfeed.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.DiscardStaleFeed = false
}

// LoadConfig builds a Config from the process environment and os.Args.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

// load applies defaults, then .env + environment, then the JSON file, then
// flags. Later sources take precedence over earlier ones.
func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv overlays values from GOPHFEED_* variables. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win over it.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
