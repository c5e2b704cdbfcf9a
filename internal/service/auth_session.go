package service

import (
	"context"
	"sync"
	"time"

	"glowgirl-be/pkg/session"

	"github.com/google/uuid"
)

// TokenRevoker is satisfied by memory.TokenDenylist.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time)
	IsRevoked(ctx context.Context, token string) bool
}

// authSession is a user's credentials as seen by their session controller. The
// token is rebound on every request, so the latest one the user presented wins.
type authSession struct {
	userID  uuid.UUID
	revoker TokenRevoker
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ session.AuthSession = (*authSession)(nil)

func newAuthSession(userID uuid.UUID, revoker TokenRevoker) *authSession {
	return &authSession{userID: userID, revoker: revoker, now: time.Now}
}

func (a *authSession) Bind(token string, expiresAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
	a.expiresAt = expiresAt
}

func (a *authSession) IsAuthenticated() bool {
	a.mu.Lock()
	token, expiresAt := a.token, a.expiresAt
	a.mu.Unlock()

	if token == "" || !a.now().Before(expiresAt) {
		return false
	}
	if a.revoker != nil && a.revoker.IsRevoked(context.Background(), token) {
		return false
	}
	return true
}

func (a *authSession) CurrentToken() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token, a.token != ""
}

func (a *authSession) Logout() {
	a.mu.Lock()
	token, expiresAt := a.token, a.expiresAt
	a.token = ""
	a.expiresAt = time.Time{}
	a.mu.Unlock()

	if token != "" && a.revoker != nil {
		a.revoker.Revoke(context.Background(), token, expiresAt)
	}
}
