// Package auth owns the vendor session: login, the single cached token, and
// coalesced re-authentication when the cloud rejects a token mid-session.
//
// The vendor allows at most one active login per account; a concurrent login
// from anywhere silently invalidates the other session's token. Rejection is
// therefore a normal event, not a credential verdict, and the session reacts
// by re-authenticating, not by failing hard.
package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"

	"github.com/victor987/hitemp/internal/api"
)

// ErrNotAuthenticated is returned when a token is required but the session
// holds none. Recoverable by login.
var ErrNotAuthenticated = errors.New("not authenticated")

// Credentials holds vendor account credentials.
type Credentials struct {
	Username string
	Password string
}

// loginClient is the slice of the API client the session needs.
type loginClient interface {
	Login(ctx context.Context, userName, passwordMD5 string) (api.LoginResult, error)
}

// Session is the single logical session for one configured account. It is
// safe for concurrent use: callers observing a rejected token coalesce into
// one re-login instead of racing each other into mutual eviction.
type Session struct {
	client      loginClient
	logger      *slog.Logger
	username    string
	passwordMD5 string

	mu     sync.RWMutex
	token  string
	userID string
}

// NewSession creates a session. The password is hashed immediately; the
// cleartext is not retained.
func NewSession(client loginClient, creds Credentials, logger *slog.Logger) *Session {
	sum := md5.Sum([]byte(creds.Password))
	return &Session{
		client:      client,
		logger:      logger,
		username:    creds.Username,
		passwordMD5: hex.EncodeToString(sum[:]),
	}
}

// Identity returns the current token and user ID, logging in first if the
// session is unauthenticated.
func (s *Session) Identity(ctx context.Context) (token, userID string, err error) {
	s.mu.RLock()
	token, userID = s.token, s.userID
	s.mu.RUnlock()
	if token != "" {
		return token, userID, nil
	}

	if token, err = s.Refresh(ctx, ""); err != nil {
		return "", "", err
	}
	s.mu.RLock()
	userID = s.userID
	s.mu.RUnlock()
	return token, userID, nil
}

// Token returns the current token, logging in first if needed.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, _, err := s.Identity(ctx)
	return token, err
}

// Current returns the held token without side effects, or
// ErrNotAuthenticated when there is none.
func (s *Session) Current() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// Refresh replaces a rejected token with a fresh one. stale is the token the
// caller saw fail (empty for "never had one"). If another caller already
// refreshed, the newer token is returned without a second login attempt, so
// any number of concurrent failures fold into a single login. Login
// rejections surface as *api.AuthError and leave the session
// unauthenticated.
func (s *Session) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock: a concurrent caller may
	// have refreshed while we waited.
	if s.token != "" && s.token != stale {
		s.logger.Debug("Reusing token refreshed by concurrent caller")
		return s.token, nil
	}

	s.token = ""
	s.logger.Info("Logging in to vendor cloud", "user", s.username)
	result, err := s.client.Login(ctx, s.username, s.passwordMD5)
	if err != nil {
		return "", err
	}

	s.token = result.Token
	s.userID = result.UserID
	s.logger.Info("Login successful", "user_id", s.userID)
	return s.token, nil
}

// Invalidate drops the held token if it is still the one that was rejected.
// The next authenticated call triggers a re-login.
func (s *Session) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
	}
}

// Logout discards any held token unconditionally.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
}
