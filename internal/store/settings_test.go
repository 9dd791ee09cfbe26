package store

import (
	"context"
	"testing"

	"github.com/erazemk/itemadmin/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, ok, err := GetSetting(ctx, database, "shop_name")
	if err != nil || ok {
		t.Fatalf("expected missing setting, got ok=%v err=%v", ok, err)
	}

	SetSetting(ctx, database, "shop_name", "first")
	SetSetting(ctx, database, "shop_name", "second")

	v, ok, err := GetSetting(ctx, database, "shop_name")
	if err != nil || !ok {
		t.Fatalf("GetSetting: ok=%v err=%v", ok, err)
	}
	if v != "second" {
		t.Errorf("expected 'second', got %q", v)
	}
}
