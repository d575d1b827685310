package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/famlink/internal/logging"
)

// Config holds runtime settings for the famlink CLI.
//
// Relay paths are joined to RelayBaseURL. S3 fields are only needed when
// backups are pushed to object storage.
type Config struct {
	DBPath         string        `env:"FAMLINK_DB_PATH"`
	RelayBaseURL   string        `env:"FAMLINK_RELAY_URL"`
	TranslatePath  string        `env:"FAMLINK_TRANSLATE_PATH"`
	UsagePath      string        `env:"FAMLINK_USAGE_PATH"`
	RequestTimeout time.Duration `env:"FAMLINK_REQUEST_TIMEOUT"`
	Offline        bool          `env:"FAMLINK_OFFLINE"`
	// OnlineCheckInterval is how often the relay is pinged; 0 disables the check.
	OnlineCheckInterval time.Duration `env:"FAMLINK_ONLINE_CHECK_INTERVAL"`
	LogLevel            string        `env:"FAMLINK_LOG_LEVEL"`
	LocalesDir          string        `env:"FAMLINK_LOCALES_DIR"`
	BackupDir           string        `env:"FAMLINK_BACKUP_DIR"`

	S3Bucket       string `env:"FAMLINK_S3_BUCKET"`
	S3Region       string `env:"FAMLINK_S3_REGION"`
	S3BaseEndpoint string `env:"FAMLINK_S3_ENDPOINT"`
	S3AccessKey    string `env:"FAMLINK_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"FAMLINK_S3_SECRET_KEY"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "famlink.db"
	c.RelayBaseURL = "http://127.0.0.1:8888/.netlify/functions"
	c.TranslatePath = "/translate"
	c.UsagePath = "/usage"
	c.RequestTimeout = 20 * time.Second
	c.Offline = false
	c.OnlineCheckInterval = 30 * time.Second
	c.LogLevel = "info"
	c.BackupDir = "backups"
	c.S3Region = "us-east-1"
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.OnlineCheckInterval < 0 {
		errs = append(errs, fmt.Errorf("online check interval must not be negative, got %s", c.OnlineCheckInterval))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.S3Bucket != "" && c.S3Region == "" {
		errs = append(errs, errors.New("s3 region is required when s3 bucket is set"))
	}
	return errors.Join(errs...)
}

// S3Enabled reports whether backups can be pushed to object storage.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, then the JSON file, then the
// environment, then args (usually os.Args[1:]). Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
