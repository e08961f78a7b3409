package service

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	cashier := roleByName(t, db, "cashier")

	created, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "secret1", RoleID: &cashier.ID})
	if err != nil {
		t.Fatal(err)
	}
	if created.RoleName != "cashier" {
		t.Fatalf("role name %q, want cashier", created.RoleName)
	}
	if !created.IsActive {
		t.Fatal("new account not active")
	}

	// Stored credential is a hash, never the password itself.
	var hashes []string
	if err := db.Table("users").Where("username = ?", "till1").Pluck("password_hash", &hashes).Error; err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected one stored credential, got %d", len(hashes))
	}
	hash := hashes[0]
	if hash == "secret1" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

// mustGetUser fails the test when the user is missing.
func mustGetUser(t *testing.T, svc UserService, ctx context.Context, username string) *UserResponse {
	t.Helper()
	u, err := svc.GetUser(ctx, username)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	cashier := roleByName(t, db, "cashier")
	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "secret1", RoleID: &cashier.ID}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "other99"}); !errors.Is(err, apperr.ErrDuplicateUsername) {
		t.Fatalf("want ErrDuplicateUsername, got %v", err)
	}

	// The first account is untouched by the refused create.
	got := mustGetUser(t, svc, ctx, "till1")
	if got.RoleName != "cashier" {
		t.Fatalf("existing account changed by duplicate create: %+v", got)
	}
}

func TestCreateUserValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "", Password: "secret1"}); !apperr.IsValidation(err) {
		t.Fatalf("empty username: want validation error, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: ""}); !apperr.IsValidation(err) {
		t.Fatalf("empty password: want validation error, got %v", err)
	}

	bogus := uint(99999)
	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "secret1", RoleID: &bogus}); !apperr.IsValidation(err) {
		t.Fatalf("unknown role: want validation error, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	cashier := roleByName(t, db, "cashier")
	manager := roleByName(t, db, "manager")
	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "secret1", RoleID: &cashier.ID}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateUser(ctx, "till1", UpdateUserRequest{RoleID: &manager.ID})
	if err != nil {
		t.Fatal(err)
	}
	if updated.RoleName != "manager" {
		t.Fatalf("role after update %q, want manager", updated.RoleName)
	}

	inactive := false
	updated, err = svc.UpdateUser(ctx, "till1", UpdateUserRequest{IsActive: &inactive})
	if err != nil {
		t.Fatal(err)
	}
	if updated.IsActive {
		t.Fatal("deactivation did not stick")
	}
	// Role untouched by the flag-only update.
	if updated.RoleName != "manager" {
		t.Fatalf("role changed by deactivation: %q", updated.RoleName)
	}

	if _, err := svc.UpdateUser(ctx, "ghost", UpdateUserRequest{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown user: want ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{Username: "till1", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteUser(ctx, "till1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetUser(ctx, "till1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("deleted user still present: %v", err)
	}

	if err := svc.DeleteUser(ctx, "till1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}
