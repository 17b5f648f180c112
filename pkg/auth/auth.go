// Package auth derives per-request principals from caller-supplied API keys.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// HeaderAPIKey is the request header carrying the caller's key.
const HeaderAPIKey = "X-API-Key"

// ErrMissingKey reports an absent API key.
var ErrMissingKey = errors.New("auth: API key is missing")

// ErrInvalidKey reports a key that resolves to no known caller.
var ErrInvalidKey = errors.New("auth: invalid API key")

// Caller is the per-request principal. It is derived from the supplied key
// on every call and never cached across requests.
type Caller struct {
	ID       string
	Username string
}

// NewAPIKey mints a fresh random API key (32 hex characters).
func NewAPIKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Verifier resolves an API key to a caller.
type Verifier interface {
	Verify(ctx context.Context, apiKey string) (*Caller, error)
}

// StaticVerifier verifies keys against a fixed in-memory table. It backs
// deployments without a database and the test suites.
type StaticVerifier struct {
	callers map[string]Caller
}

// NewStaticVerifier builds a verifier from a key → caller table.
func NewStaticVerifier(callers map[string]Caller) *StaticVerifier {
	table := make(map[string]Caller, len(callers))
	for key, caller := range callers {
		table[key] = caller
	}
	return &StaticVerifier{callers: table}
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(_ context.Context, apiKey string) (*Caller, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	caller, ok := v.callers[apiKey]
	if !ok {
		return nil, ErrInvalidKey
	}
	return &caller, nil
}
