package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DatabaseType  string
	DatabasePath  string
	DatabaseURL   string
	DeviceID      string
	AppVersion    string
	RetentionDays int

	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	LogMaxFiles  int

	// MessageKey is a hex encoded 32 byte key. Chat message text is stored
	// sealed when it is set.
	MessageKey string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from an optional config file, a .env file and
// BUDDYBOT_* environment variables, in increasing order of precedence
func Load(path string) (*Config, error) {
	// A missing .env file is the normal case outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BUDDYBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseType:  v.GetString("db_type"),
		DatabasePath:  v.GetString("db_path"),
		DatabaseURL:   v.GetString("db_url"),
		DeviceID:      v.GetString("device_id"),
		AppVersion:    v.GetString("app_version"),
		RetentionDays: v.GetInt("retention_days"),
		LogLevel:      v.GetString("log_level"),
		LogFile:       v.GetString("log_file"),
		LogMaxSizeMB:  v.GetInt("log_max_size_mb"),
		LogMaxFiles:   v.GetInt("log_max_files"),
		MessageKey:    v.GetString("message_key"),
		AWSRegion:     v.GetString("aws_region"),
		SESFromEmail:  v.GetString("ses_from_email"),
		SESFromName:   v.GetString("ses_from_name"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_path", "./buddybot.db")
	v.SetDefault("db_url", "")
	v.SetDefault("device_id", "")
	v.SetDefault("app_version", "1.0.0")
	v.SetDefault("retention_days", 365)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_files", 3)
	v.SetDefault("message_key", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("ses_from_email", "")
	v.SetDefault("ses_from_name", "BuddyBot")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			return errors.New("BUDDYBOT_DB_PATH cannot be empty for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("BUDDYBOT_DB_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	if c.RetentionDays <= 0 {
		return errors.New("BUDDYBOT_RETENTION_DAYS must be > 0")
	}
	if c.MessageKey != "" && len(c.MessageKey) != 64 {
		return errors.New("BUDDYBOT_MESSAGE_KEY must be 64 hex characters")
	}
	return nil
}
