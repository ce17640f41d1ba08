package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell absent keys from zero values; durations use timex.Duration so
// they may be strings like "180s" or integer nanoseconds.
type JSONConfig struct {
	BaseURL           *string         `json:"base_url"`
	Platform          *string         `json:"platform"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	RetryBackoff      *timex.Duration `json:"retry_backoff"`
	MaxAttempts       *int            `json:"max_attempts"`
	RetryClientErrors *bool           `json:"retry_client_errors"`
	CacheDir          *string         `json:"cache_dir"`
	DownloadDir       *string         `json:"download_dir"`
	SessionDB         *string         `json:"session_db"`
	LogLevel          *string         `json:"log_level"`
	LogFormat         *string         `json:"log_format"`
	MetricsFile       *string         `json:"metrics_file"`
	S3                *JSONS3Config   `json:"s3"`
}

type JSONS3Config struct {
	Bucket    *string         `json:"bucket"`
	Region    *string         `json:"region"`
	Endpoint  *string         `json:"endpoint"`
	AccessKey *string         `json:"access_key"`
	SecretKey *string         `json:"secret_key"`
	Prefix    *string         `json:"prefix"`
	LinkTTL   *timex.Duration `json:"link_ttl"`
}

// parseJSON overlays cfg with the keys present in the JSON file at path.
// An empty path loads nothing.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	copyPtr(&cfg.BaseURL, jc.BaseURL)
	copyPtr(&cfg.Platform, jc.Platform)
	copyDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	copyDuration(&cfg.RetryBackoff, jc.RetryBackoff)
	copyPtr(&cfg.MaxAttempts, jc.MaxAttempts)
	copyPtr(&cfg.RetryClientErrors, jc.RetryClientErrors)
	copyPtr(&cfg.CacheDir, jc.CacheDir)
	copyPtr(&cfg.DownloadDir, jc.DownloadDir)
	copyPtr(&cfg.SessionDB, jc.SessionDB)
	copyPtr(&cfg.LogLevel, jc.LogLevel)
	copyPtr(&cfg.LogFormat, jc.LogFormat)
	copyPtr(&cfg.MetricsFile, jc.MetricsFile)

	if s := jc.S3; s != nil {
		copyPtr(&cfg.S3.Bucket, s.Bucket)
		copyPtr(&cfg.S3.Region, s.Region)
		copyPtr(&cfg.S3.Endpoint, s.Endpoint)
		copyPtr(&cfg.S3.AccessKey, s.AccessKey)
		copyPtr(&cfg.S3.SecretKey, s.SecretKey)
		copyPtr(&cfg.S3.Prefix, s.Prefix)
		copyDuration(&cfg.S3.LinkTTL, s.LinkTTL)
	}
}

func copyPtr[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func copyDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
