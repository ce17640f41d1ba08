// Package config loads runtime configuration for the mediaxfer CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional dotenv file (--env-file, ".env" by default), exported into the
//     process environment without overriding variables that are already set.
//  3. Environment variables (see envConfig), e.g. MEDIA_BASE_URL.
//  4. Optional JSON file selected with -c or --config.
//  5. Command-line flags (see RegisterFlags) that were set explicitly.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for durations, so values can be either
// strings like "600ms" or integer nanoseconds. Absent keys keep the value of
// earlier sources:
//
//	{
//	  "base_url": "https://media.example.com/api",
//	  "platform": "native",
//	  "request_timeout": "180s",
//	  "retry_backoff": "600ms",
//	  "max_attempts": 2,
//	  "retry_client_errors": false,
//	  "cache_dir": "/home/me/.cache/mediaxfer",
//	  "s3": {"bucket": "shared", "endpoint": "http://127.0.0.1:9000", "link_ttl": "24h"}
//	}
//
// Primary API
//
//   - type Config                        holds every setting
//   - func Load(Sources) (*Config, error) applies all sources and validates
//   - func RegisterFlags(*pflag.FlagSet) declares the flags Load understands
package config
