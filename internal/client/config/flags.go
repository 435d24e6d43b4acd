package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophfeed/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   base URL of the posting API
//	-d string   path of the local SQLite database
//	-l string   log level
//
// Only the flags above are parsed; flagx.FilterArgs drops everything else so
// -c/-config and unknown flags do not fail the parse.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("gophfeed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the posting API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, []string{"-a", "-d", "-l"}))
}
