// Package common defines shared constants and sentinel errors used across
// mediaxfer packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session store errors.
	ErrNotSignedIn = errors.New("not signed in")

	// Token inspection errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
