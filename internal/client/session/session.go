package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the locally persisted auth state. Only AccessToken is needed by
// the transfer pipeline; the rest is informational.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the session has a known expiry in the past.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// FromToken builds a Session for accessToken. When the token is a JWT its
// subject and expiry are copied over; the signature is not verified, the
// backend does that.
func FromToken(accessToken, refreshToken string) (*Session, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("empty access token: %w", common.ErrInvalidToken)
	}

	s := &Session{AccessToken: accessToken, RefreshToken: refreshToken}

	claims, err := InspectToken(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			// opaque token
			return s, nil
		}
		return nil, err
	}

	s.UserID = claims.Subject
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// InspectToken parses a JWT without verifying it. Tokens that are not JWTs
// yield common.ErrInvalidToken.
func InspectToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return claims, nil
}
