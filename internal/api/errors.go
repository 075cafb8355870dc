package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnreachable marks transport-level failures (connect, TLS, timeout). The
// vendor protocol gives no way to distinguish cancellation from plain
// unreachability, so both surface as this kind. Retry policy is the caller's.
var ErrUnreachable = errors.New("vendor api unreachable")

// ErrTokenRejected marks an authorization failure on an authenticated call.
// The vendor uses the same opaque message for an expired token, a revoked
// token and eviction by a concurrent login from the same account, so this is
// always "re-login and retry once", never a credential verdict.
var ErrTokenRejected = errors.New("session token rejected")

// AuthError is a login rejection: bad credentials or an account conflict.
// Not retried automatically.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login rejected: %s", e.Msg)
}

// VendorError is a non-success response with no more specific local
// classification. Msg is opaque human-readable text, not a stable code; the
// only stable sentinel in the protocol is the literal "Success".
type VendorError struct {
	Msg  string
	Code string
}

func (e *VendorError) Error() string {
	if e.Code != "" && e.Code != "0" {
		return fmt.Sprintf("vendor error %s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("vendor error: %s", e.Msg)
}

// looksLikeAuthFailure applies the observed heuristic for authorization
// failures: the vendor has no structured error taxonomy, but token problems
// consistently mention "token" or "auth" in the message.
func looksLikeAuthFailure(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "token") || strings.Contains(lower, "auth")
}
