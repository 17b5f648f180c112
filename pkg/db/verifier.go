package db

import (
	"context"
	"fmt"

	"github.com/GYFX35/AI-services/pkg/auth"
)

// Verifier resolves API keys against the users table. It satisfies
// auth.Verifier so the gateway can swap it for the static table.
type Verifier struct {
	repo *Repository
}

// NewVerifier creates a database-backed Verifier.
func NewVerifier(repo *Repository) *Verifier {
	return &Verifier{repo: repo}
}

// Verify implements auth.Verifier.
func (v *Verifier) Verify(ctx context.Context, apiKey string) (*auth.Caller, error) {
	if apiKey == "" {
		return nil, auth.ErrMissingKey
	}
	user, err := v.repo.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("db:verifier - lookup failed: %w", err)
	}
	if user == nil {
		return nil, auth.ErrInvalidKey
	}
	return &auth.Caller{ID: user.ID, Username: user.Username}, nil
}
