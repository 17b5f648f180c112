package auth

import (
	"context"
	"testing"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]Caller{
		"key-1": {ID: "u1", Username: "alice"},
	})

	caller, err := v.Verify(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("auth:auth_test - Verify failed: %v", err)
	}
	if caller.ID != "u1" || caller.Username != "alice" {
		t.Errorf("auth:auth_test - unexpected caller %+v", caller)
	}

	if _, err := v.Verify(context.Background(), ""); err != ErrMissingKey {
		t.Errorf("auth:auth_test - expected ErrMissingKey, got %v", err)
	}
	if _, err := v.Verify(context.Background(), "nope"); err != ErrInvalidKey {
		t.Errorf("auth:auth_test - expected ErrInvalidKey, got %v", err)
	}
}

func TestNewAPIKey_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		key, err := NewAPIKey()
		if err != nil {
			t.Fatalf("auth:auth_test - NewAPIKey failed: %v", err)
		}
		if len(key) != 32 {
			t.Fatalf("auth:auth_test - expected 32 hex chars, got %d", len(key))
		}
		if seen[key] {
			t.Fatalf("auth:auth_test - duplicate key generated")
		}
		seen[key] = true
	}
}
