package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/itemadmin/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = IsTokenRevoked(ctx, database, "test-jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first RevokeToken: %v", err)
	}
	if err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RevokeToken(ctx, database, "live", time.Now().Add(time.Hour))
	RevokeToken(ctx, database, "dead", time.Now().Add(time.Hour))

	n, err := PurgeExpiredTokens(ctx, database, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged, got %d", n)
	}

	revoked, _ := IsTokenRevoked(ctx, database, "live")
	if revoked {
		t.Error("expected purged token to be gone")
	}
}
