package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/flagx"
)

var knownFlags = []string{"-d", "-r", "-t", "-l", "-b", "-offline"}

// parseFlags populates Config fields from command-line flags. Args are
// filtered first so flags owned by other loaders (-c) do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("famlink", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the SQLite database file")
	fs.StringVar(&cfg.RelayBaseURL, "r", cfg.RelayBaseURL, "base URL of the translation relay")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "relay request timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "directory for local backups")
	fs.BoolVar(&cfg.Offline, "offline", cfg.Offline, "never call the translation relay")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
