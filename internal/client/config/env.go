package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// envConfig mirrors Config for environment variables. Every field is a
// string so an unset variable can be told apart from a zero value.
type envConfig struct {
	BaseURL           string `env:"MEDIA_BASE_URL"`
	Platform          string `env:"MEDIAXFER_PLATFORM"`
	RequestTimeout    string `env:"MEDIAXFER_REQUEST_TIMEOUT"`
	RetryBackoff      string `env:"MEDIAXFER_RETRY_BACKOFF"`
	MaxAttempts       string `env:"MEDIAXFER_MAX_ATTEMPTS"`
	RetryClientErrors string `env:"MEDIAXFER_RETRY_CLIENT_ERRORS"`
	CacheDir          string `env:"MEDIAXFER_CACHE_DIR"`
	DownloadDir       string `env:"MEDIAXFER_DOWNLOAD_DIR"`
	SessionDB         string `env:"MEDIAXFER_SESSION_DB"`
	LogLevel          string `env:"MEDIAXFER_LOG_LEVEL"`
	LogFormat         string `env:"MEDIAXFER_LOG_FORMAT"`
	MetricsFile       string `env:"MEDIAXFER_METRICS_FILE"`
	S3Bucket          string `env:"MEDIAXFER_S3_BUCKET"`
	S3Region          string `env:"MEDIAXFER_S3_REGION"`
	S3Endpoint        string `env:"MEDIAXFER_S3_ENDPOINT"`
	S3AccessKey       string `env:"MEDIAXFER_S3_ACCESS_KEY"`
	S3SecretKey       string `env:"MEDIAXFER_S3_SECRET_KEY"`
	S3Prefix          string `env:"MEDIAXFER_S3_PREFIX"`
	S3LinkTTL         string `env:"MEDIAXFER_S3_LINK_TTL"`
}

// loadDotEnv exports the variables of a dotenv file into the process
// environment. Variables already set win over the file.
func loadDotEnv(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// parseEnv overlays cfg with the environment variables that are set.
func parseEnv(cfg *Config) error {
	var ec envConfig
	if _, err := env.UnmarshalFromEnviron(&ec); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setString(&cfg.BaseURL, ec.BaseURL)
	setString(&cfg.Platform, ec.Platform)
	setString(&cfg.CacheDir, ec.CacheDir)
	setString(&cfg.DownloadDir, ec.DownloadDir)
	setString(&cfg.SessionDB, ec.SessionDB)
	setString(&cfg.LogLevel, ec.LogLevel)
	setString(&cfg.LogFormat, ec.LogFormat)
	setString(&cfg.MetricsFile, ec.MetricsFile)
	setString(&cfg.S3.Bucket, ec.S3Bucket)
	setString(&cfg.S3.Region, ec.S3Region)
	setString(&cfg.S3.Endpoint, ec.S3Endpoint)
	setString(&cfg.S3.AccessKey, ec.S3AccessKey)
	setString(&cfg.S3.SecretKey, ec.S3SecretKey)
	setString(&cfg.S3.Prefix, ec.S3Prefix)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"MEDIAXFER_REQUEST_TIMEOUT", ec.RequestTimeout, &cfg.RequestTimeout},
		{"MEDIAXFER_RETRY_BACKOFF", ec.RetryBackoff, &cfg.RetryBackoff},
		{"MEDIAXFER_S3_LINK_TTL", ec.S3LinkTTL, &cfg.S3.LinkTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	if ec.MaxAttempts != "" {
		v, err := strconv.Atoi(ec.MaxAttempts)
		if err != nil {
			return fmt.Errorf("MEDIAXFER_MAX_ATTEMPTS: %w", err)
		}
		cfg.MaxAttempts = v
	}
	if ec.RetryClientErrors != "" {
		v, err := strconv.ParseBool(ec.RetryClientErrors)
		if err != nil {
			return fmt.Errorf("MEDIAXFER_RETRY_CLIENT_ERRORS: %w", err)
		}
		cfg.RetryClientErrors = v
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
