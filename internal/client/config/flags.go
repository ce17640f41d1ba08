package config

import (
	"github.com/spf13/pflag"
)

// Names of the flags registered by RegisterFlags.
const (
	FlagConfig            = "config"
	FlagEnvFile           = "env-file"
	FlagBaseURL           = "base-url"
	FlagPlatform          = "platform"
	FlagTimeout           = "timeout"
	FlagRetryBackoff      = "retry-backoff"
	FlagMaxAttempts       = "max-attempts"
	FlagRetryClientErrors = "retry-client-errors"
	FlagCacheDir          = "cache-dir"
	FlagDownloadDir       = "download-dir"
	FlagSessionDB         = "session-db"
	FlagLogLevel          = "log-level"
	FlagLogFormat         = "log-format"
	FlagMetricsFile       = "metrics-file"
	FlagS3Bucket          = "s3-bucket"
)

// RegisterFlags adds the configuration flags to fs. Defaults shown in help
// come from LoadDefaults; only flags the user sets take part in Load.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.String(FlagEnvFile, ".env", "path to a dotenv file")
	fs.StringP(FlagBaseURL, "a", d.BaseURL, "base URL of the media backend")
	fs.String(FlagPlatform, d.Platform, "file transport: native or web")
	fs.Duration(FlagTimeout, d.RequestTimeout, "timeout of a single processing attempt")
	fs.Duration(FlagRetryBackoff, d.RetryBackoff, "pause before the processing attempt is repeated")
	fs.Int(FlagMaxAttempts, d.MaxAttempts, "processing attempts, the first one included")
	fs.Bool(FlagRetryClientErrors, d.RetryClientErrors, "also repeat attempts rejected with 4xx")
	fs.String(FlagCacheDir, d.CacheDir, "directory for processed files (native)")
	fs.String(FlagDownloadDir, d.DownloadDir, "directory for downloads (web)")
	fs.String(FlagSessionDB, d.SessionDB, "path of the session database")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
	fs.String(FlagMetricsFile, d.MetricsFile, "write prometheus metrics to this file on exit")
	fs.String(FlagS3Bucket, d.S3.Bucket, "bucket used to share processed files")
}

// applyFlags copies the explicitly set flags into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}

	str(FlagBaseURL, &cfg.BaseURL)
	str(FlagPlatform, &cfg.Platform)
	str(FlagCacheDir, &cfg.CacheDir)
	str(FlagDownloadDir, &cfg.DownloadDir)
	str(FlagSessionDB, &cfg.SessionDB)
	str(FlagLogLevel, &cfg.LogLevel)
	str(FlagLogFormat, &cfg.LogFormat)
	str(FlagMetricsFile, &cfg.MetricsFile)
	str(FlagS3Bucket, &cfg.S3.Bucket)

	if err == nil && fs.Changed(FlagTimeout) {
		cfg.RequestTimeout, err = fs.GetDuration(FlagTimeout)
	}
	if err == nil && fs.Changed(FlagRetryBackoff) {
		cfg.RetryBackoff, err = fs.GetDuration(FlagRetryBackoff)
	}
	if err == nil && fs.Changed(FlagMaxAttempts) {
		cfg.MaxAttempts, err = fs.GetInt(FlagMaxAttempts)
	}
	if err == nil && fs.Changed(FlagRetryClientErrors) {
		cfg.RetryClientErrors, err = fs.GetBool(FlagRetryClientErrors)
	}

	return err
}

// SourcesFromFlags returns the dotenv and JSON file locations set in fs.
func SourcesFromFlags(fs *pflag.FlagSet) Sources {
	src := Sources{Flags: fs}
	src.JSONFile, _ = fs.GetString(FlagConfig)
	src.EnvFile, _ = fs.GetString(FlagEnvFile)
	src.RequireEnvFile = fs.Changed(FlagEnvFile)
	return src
}
