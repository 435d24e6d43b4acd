// Package config loads runtime configuration for the gophfeed CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, then GOPHFEED_* environment
//     variables (SERVER_URL, DATABASE_PATH, LOG_LEVEL, LOG_FORMAT,
//     DISCARD_STALE_FEED).
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the posting API
//	-d string   path of the local SQLite database
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080/api/v1",
//	  "database_path": "gophfeed.db",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "discard_stale_feed": true
//	}
package config
