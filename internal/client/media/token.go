package media

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/client/session"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
)

// TokenProvider returns the current bearer credential. ok is false when there
// is none; the request is then sent anonymously.
type TokenProvider interface {
	Token(ctx context.Context) (token string, ok bool)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, bool)

func (f TokenFunc) Token(ctx context.Context) (string, bool) {
	return f(ctx)
}

// SessionReader is the read side of the local auth session store.
type SessionReader interface {
	GetSession(ctx context.Context) (*session.Session, error)
}

// SessionTokenProvider reads the access token from a SessionReader.
// It never fails: a missing store, a lookup error or an empty session all
// yield no token.
type SessionTokenProvider struct {
	store SessionReader
	log   logging.Logger
	now   func() time.Time
}

func NewSessionTokenProvider(store SessionReader, log logging.Logger) *SessionTokenProvider {
	if log == nil {
		log = logging.Discard()
	}
	return &SessionTokenProvider{store: store, log: log, now: time.Now}
}

func (p *SessionTokenProvider) Token(ctx context.Context) (string, bool) {
	if p == nil || p.store == nil {
		return "", false
	}

	sess, err := p.store.GetSession(ctx)
	if err != nil {
		p.log.Debug(ctx, "session lookup failed, sending anonymously", "error", err)
		return "", false
	}
	if sess == nil || sess.AccessToken == "" {
		p.log.Debug(ctx, "no session, sending anonymously")
		return "", false
	}

	p.checkExpiry(ctx, sess.AccessToken)
	return sess.AccessToken, true
}

// checkExpiry only warns; refreshing belongs to the auth service.
func (p *SessionTokenProvider) checkExpiry(ctx context.Context, token string) {
	claims, err := session.InspectToken(token)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidToken) {
			p.log.Debug(ctx, "token inspection failed", "error", err)
		}
		return
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		p.log.Warn(ctx, "access token looks expired", "expired_at", claims.ExpiresAt.Time, "error", common.ErrTokenExpired)
	}
}
