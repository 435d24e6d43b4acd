package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophfeed/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// empty-string fields mean "not set" and leave the Config untouched.
type JsonConfig struct {
	ServerURL        string `json:"server_url"`
	DatabasePath     string `json:"database_path"`
	LogLevel         string `json:"log_level"`
	LogFormat        string `json:"log_format"`
	DiscardStaleFeed *bool  `json:"discard_stale_feed"`
}

// parseJson overlays cfg with the JSON file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	if jc.DiscardStaleFeed != nil {
		cfg.DiscardStaleFeed = *jc.DiscardStaleFeed
	}
	return nil
}
