package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/victor987/hitemp/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fakeLogin issues sequential tokens and records what it was called with.
type fakeLogin struct {
	mu       sync.Mutex
	calls    int
	lastUser string
	lastPass string
	err      error
}

func (f *fakeLogin) Login(ctx context.Context, userName, passwordMD5 string) (api.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUser = userName
	f.lastPass = passwordMD5
	if f.err != nil {
		return api.LoginResult{}, f.err
	}
	switch f.calls {
	case 1:
		return api.LoginResult{Token: "tok-1", UserID: "user-9"}, nil
	default:
		return api.LoginResult{Token: "tok-2", UserID: "user-9"}, nil
	}
}

func (f *fakeLogin) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSession_TokenLogsInOnce(t *testing.T) {
	client := &fakeLogin{}
	s := NewSession(client, Credentials{Username: "me@example.com", Password: "password"}, testLogger())

	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Current() before login error = %v, want ErrNotAuthenticated", err)
	}

	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("Token() = %q, want tok-1", tok)
	}

	// Subsequent calls reuse the cached token.
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if client.count() != 1 {
		t.Errorf("login calls = %d, want 1", client.count())
	}

	// The password crosses the wire as its md5 digest, never cleartext.
	if client.lastPass != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Errorf("password sent = %q, want md5 digest", client.lastPass)
	}
}

func TestSession_Identity(t *testing.T) {
	s := NewSession(&fakeLogin{}, Credentials{Username: "me@example.com", Password: "pw"}, testLogger())

	tok, userID, err := s.Identity(context.Background())
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if tok != "tok-1" || userID != "user-9" {
		t.Errorf("Identity() = (%q, %q), want (tok-1, user-9)", tok, userID)
	}
}

func TestSession_RefreshCoalesces(t *testing.T) {
	client := &fakeLogin{}
	s := NewSession(client, Credentials{Username: "me@example.com", Password: "pw"}, testLogger())

	first, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// Two callers observed the same stale token. The first refresh logs in;
	// the second sees a newer token and reuses it.
	second, err := s.Refresh(context.Background(), first)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second == first {
		t.Fatalf("Refresh() returned the stale token %q", second)
	}

	third, err := s.Refresh(context.Background(), first)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if third != second {
		t.Errorf("coalesced Refresh() = %q, want %q", third, second)
	}
	if client.count() != 2 {
		t.Errorf("login calls = %d, want 2 (initial + one refresh)", client.count())
	}
}

func TestSession_RefreshConcurrent(t *testing.T) {
	client := &fakeLogin{}
	s := NewSession(client, Credentials{Username: "me@example.com", Password: "pw"}, testLogger())

	stale, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := s.Refresh(context.Background(), stale)
			if err != nil {
				t.Errorf("Refresh() error = %v", err)
				return
			}
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	for i, tok := range tokens {
		if tok != tokens[0] {
			t.Fatalf("tokens[%d] = %q, want %q", i, tok, tokens[0])
		}
	}
	if client.count() != 2 {
		t.Errorf("login calls = %d, want 2 (initial + one coalesced refresh)", client.count())
	}
}

func TestSession_RefreshFailureLeavesUnauthenticated(t *testing.T) {
	client := &fakeLogin{err: &api.AuthError{Msg: "user name or password incorrect"}}
	s := NewSession(client, Credentials{Username: "me@example.com", Password: "wrong"}, testLogger())

	_, err := s.Token(context.Background())
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Token() error = %v, want *api.AuthError", err)
	}

	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Current() after failed login error = %v, want ErrNotAuthenticated", err)
	}
}

func TestSession_InvalidateAndLogout(t *testing.T) {
	s := NewSession(&fakeLogin{}, Credentials{Username: "me@example.com", Password: "pw"}, testLogger())

	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// Invalidating a token that is no longer held is a no-op.
	s.Invalidate("some-other-token")
	if _, err := s.Current(); err != nil {
		t.Errorf("Current() after unrelated Invalidate error = %v", err)
	}

	s.Invalidate(tok)
	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Current() after Invalidate error = %v, want ErrNotAuthenticated", err)
	}

	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token() after Invalidate error = %v", err)
	}
	s.Logout()
	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Current() after Logout error = %v, want ErrNotAuthenticated", err)
	}
}
