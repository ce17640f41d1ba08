package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/spf13/pflag"
)

// Platforms accepted in Config.Platform.
const (
	PlatformNative = "native"
	PlatformWeb    = "web"
)

// S3Config is the bucket the native share sheet publishes files to. Sharing
// is unavailable while Bucket is empty.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	LinkTTL   time.Duration
}

// Config holds runtime settings for the mediaxfer CLI.
type Config struct {
	BaseURL  string
	Platform string

	RequestTimeout    time.Duration
	RetryBackoff      time.Duration
	MaxAttempts       int
	RetryClientErrors bool

	CacheDir    string
	DownloadDir string
	SessionDB   string

	LogLevel    string
	LogFormat   string
	MetricsFile string

	S3 S3Config
}

// LoadDefaults populates c with sensible defaults. Directories follow the
// XDG base directory layout.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8000"
	c.Platform = PlatformNative
	c.RequestTimeout = common.DefaultRequestTimeout
	c.RetryBackoff = common.DefaultRetryBackoff
	c.MaxAttempts = common.DefaultMaxAttempts
	c.RetryClientErrors = false
	c.CacheDir = filepath.Join(xdg.CacheHome, common.AppName)
	c.DownloadDir = xdg.UserDirs.Download
	c.SessionDB = filepath.Join(xdg.DataHome, common.AppName, "session.db")
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsFile = ""
	c.S3 = S3Config{Region: "us-east-1", LinkTTL: 24 * time.Hour}
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}
	switch c.Platform {
	case PlatformNative, PlatformWeb:
	default:
		errs = append(errs, fmt.Errorf("platform %q must be %q or %q", c.Platform, PlatformNative, PlatformWeb))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, errors.New("retry_backoff must not be negative"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

// Sources tells Load where to look besides the defaults. Empty fields are
// skipped.
type Sources struct {
	// EnvFile is a dotenv file; a missing file is ignored unless
	// RequireEnvFile is set.
	EnvFile        string
	RequireEnvFile bool
	// JSONFile is an optional JSON config file.
	JSONFile string
	// Flags are parsed command-line flags registered with RegisterFlags.
	// Only flags set explicitly override earlier sources.
	Flags *pflag.FlagSet
}

// Load builds a Config from, in increasing precedence: defaults, the dotenv
// file, the process environment, the JSON file and command-line flags.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(src.EnvFile, src.RequireEnvFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, src.JSONFile); err != nil {
		return nil, err
	}
	if src.Flags != nil {
		if err := applyFlags(cfg, src.Flags); err != nil {
			return nil, err
		}
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Platform = strings.ToLower(strings.TrimSpace(cfg.Platform))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
