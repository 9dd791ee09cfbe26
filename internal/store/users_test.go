package store

import (
	"context"
	"testing"

	"github.com/erazemk/itemadmin/internal/db"
	"github.com/erazemk/itemadmin/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "test@example.com", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Email != "test@example.com" {
		t.Errorf("expected email 'test@example.com', got %q", user.Email)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}
	if user.Balance != 0 {
		t.Errorf("expected zero balance, got %v", user.Balance)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", got.Username)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "alice@example.com", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("expected 'alice', got %q", user.Username)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestGetUserByUsernamePrefersActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	old, _ := CreateUser(ctx, database, "carol", "carol@example.com", "old", model.RoleUser)
	DeleteUser(ctx, database, old.ID)
	CreateUser(ctx, database, "carol", "carol@example.com", "new", model.RoleUser)

	user, err := GetUserByUsername(ctx, database, "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.PasswordHash != "new" || user.DeletedAt != nil {
		t.Errorf("expected the active account, got hash %q deleted %v", user.PasswordHash, user.DeletedAt)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "same@example.com", "hash", model.RoleUser)
	if _, err := CreateUser(ctx, database, "b", "same@example.com", "hash", model.RoleUser); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "a@example.com", "hash", model.RoleUser)
	CreateUser(ctx, database, "b", "b@example.com", "hash", model.RoleManager)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "d@example.com", "hash", model.RoleUser)
	DeleteUser(ctx, database, user.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "pw@example.com", "oldhash", model.RoleUser)
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}

func TestSetUserBalance(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "rich", "rich@example.com", "hash", model.RoleUser)
	if err := SetUserBalance(ctx, database, user.ID, 250.75); err != nil {
		t.Fatalf("SetUserBalance: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.Balance != 250.75 {
		t.Errorf("expected balance 250.75, got %v", got.Balance)
	}

	if err := SetUserBalance(ctx, database, user.ID, -1); err == nil {
		t.Error("expected error for negative balance")
	}
}

func TestActivations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "newbie", "newbie@example.com", "hash", model.RoleUser)

	a, err := CreateActivation(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("CreateActivation: %v", err)
	}
	if len(a.Code) != 32 {
		t.Errorf("expected 32 char code, got %q", a.Code)
	}

	got, _ := GetUserWithActivations(ctx, database, user.ID)
	if len(got.Activations) != 1 || got.Activations[0].Completed {
		t.Fatalf("expected one pending activation, got %+v", got.Activations)
	}
	if model.Activated(got) {
		t.Error("expected user not to be activated yet")
	}

	ok, err := CompleteActivation(ctx, database, user.ID, "wrong")
	if err != nil || ok {
		t.Errorf("expected wrong code to be rejected, got ok=%v err=%v", ok, err)
	}

	ok, err = CompleteActivation(ctx, database, user.ID, a.Code)
	if err != nil || !ok {
		t.Fatalf("CompleteActivation: ok=%v err=%v", ok, err)
	}

	// Completing twice is a no-op.
	ok, _ = CompleteActivation(ctx, database, user.ID, a.Code)
	if ok {
		t.Error("expected second completion to report false")
	}

	got, _ = GetUserWithActivations(ctx, database, user.ID)
	if !model.Activated(got) {
		t.Error("expected user to be activated")
	}
	if got.Activations[0].CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}
