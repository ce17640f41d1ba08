// Package common contains shared constants and sentinel errors used across
// mediaxfer components.
package common

import "time"

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is prepended to the access token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// DefaultFilename is used when the backend does not name the processed file.
const DefaultFilename = "processed_file"

const (
	// DefaultRequestTimeout bounds a single processing attempt.
	DefaultRequestTimeout = 180 * time.Second
	// DefaultRetryBackoff is the pause between the first and second attempt.
	DefaultRetryBackoff = 600 * time.Millisecond
	// DefaultMaxAttempts is the total number of attempts, first one included.
	DefaultMaxAttempts = 2
)

// AppName is used for directory names and log prefixes.
const AppName = "mediaxfer"
