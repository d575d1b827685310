// Package config loads runtime configuration for the famlink CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or $FAMLINK_CONFIG.
//  3. Environment variables prefixed with FAMLINK_.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-d string     path of the SQLite database file
//	-r string     base URL of the translation relay
//	-t duration   relay request timeout (e.g. 20s)
//	-l string     log level (debug, info, warn, error)
//	-offline      never call the relay
//
// # JSON schema
//
// Durations can be strings like "20s" or integer nanoseconds:
//
//	{
//	  "db_path": "famlink.db",
//	  "relay_base_url": "http://127.0.0.1:8888/.netlify/functions",
//	  "request_timeout": "20s",
//	  "s3_bucket": "famlink-backups"
//	}
package config
