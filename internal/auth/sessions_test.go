package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "session-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("unknown session must not be revoked")
	}

	if err := store.Revoke(ctx, "session-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "session-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("revoked session must be reported revoked")
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore()
	ctx := context.Background()

	// already past its expiry: the flag is moot because the token itself
	// no longer validates
	if err := store.Revoke(ctx, "session-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "session-old")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("expired revocation flags should lapse")
	}
}
