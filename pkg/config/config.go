package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// EnvFileVar names the variable holding an optional dotenv file path.
const EnvFileVar = "CHATVIEW_ENV_FILE"

const (
	defaultMaxUploadSize  = 10485760 // 10MB
	defaultUploadStep     = 20
	defaultUploadInterval = 500 * time.Millisecond
)

type Config struct {
	Port           string
	Environment    string
	FixturePath    string
	MaxUploadSize  int64
	UploadStep     int
	UploadInterval time.Duration
	LogLevel       string
	LogFormat      string
	Language       string
	RateLimit      string
	Timezone       string
}

// Load reads configuration with precedence defaults < env file < process
// environment. The env file is only required when EnvFileVar is set.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("FIXTURE_PATH", "")
	v.SetDefault("MAX_UPLOAD_SIZE", defaultMaxUploadSize)
	v.SetDefault("UPLOAD_STEP", defaultUploadStep)
	v.SetDefault("UPLOAD_INTERVAL", defaultUploadInterval.String())
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LANGUAGE", "en")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("TIMEZONE", "Local")

	if path, ok := os.LookupEnv(EnvFileVar); ok && path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		FixturePath:    v.GetString("FIXTURE_PATH"),
		MaxUploadSize:  v.GetInt64("MAX_UPLOAD_SIZE"),
		UploadStep:     v.GetInt("UPLOAD_STEP"),
		UploadInterval: v.GetDuration("UPLOAD_INTERVAL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		Language:       v.GetString("LANGUAGE"),
		RateLimit:      v.GetString("RATE_LIMIT"),
		Timezone:       v.GetString("TIMEZONE"),
	}

	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.UploadStep <= 0 || cfg.UploadStep > 100 {
		cfg.UploadStep = defaultUploadStep
	}
	if cfg.UploadInterval <= 0 {
		cfg.UploadInterval = defaultUploadInterval
	}
	if _, err := loadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// Location resolves Timezone. Load rejects unknown zones, so the local zone
// fallback only applies to configs built by hand.
func (c *Config) Location() *time.Location {
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
