package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/famlink/internal/flagx"
	"github.com/dmitrijs2005/famlink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero" so a partial file only overrides
// what it names.
type JsonConfig struct {
	DBPath         *string         `json:"db_path"`
	RelayBaseURL   *string         `json:"relay_base_url"`
	TranslatePath  *string         `json:"translate_path"`
	UsagePath      *string         `json:"usage_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	Offline        *bool           `json:"offline"`
	OnlineCheck    *timex.Duration `json:"online_check_interval"`
	LogLevel       *string         `json:"log_level"`
	LocalesDir     *string         `json:"locales_dir"`
	BackupDir      *string         `json:"backup_dir"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	S3AccessKey    *string         `json:"s3_access_key"`
	S3SecretKey    *string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with values from the file named by -c/-config or
// $FAMLINK_CONFIG. No path means nothing to load.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.RelayBaseURL, jc.RelayBaseURL)
	setString(&cfg.TranslatePath, jc.TranslatePath)
	setString(&cfg.UsagePath, jc.UsagePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LocalesDir, jc.LocalesDir)
	setString(&cfg.BackupDir, jc.BackupDir)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheck != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheck.Duration
	}
	if jc.Offline != nil {
		cfg.Offline = *jc.Offline
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
