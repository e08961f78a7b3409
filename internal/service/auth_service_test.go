package service

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/apperr"
	"pos-backend/internal/repository"
)

func TestAuthenticateBootstrapAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	identity, err := svc.Authenticate(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if identity.Username != "admin" || identity.RoleName != "admin" {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))

	_, wrongPw := svc.Authenticate(context.Background(), "admin", "not-the-password")
	_, ghost := svc.Authenticate(context.Background(), "ghost", "anything")

	if !errors.Is(wrongPw, apperr.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongPw)
	}
	if !errors.Is(ghost, apperr.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", ghost)
	}
	// Same condition, same message: nothing distinguishes the two failures
	if wrongPw.Error() != ghost.Error() {
		t.Errorf("failure messages differ: %q vs %q", wrongPw, ghost)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db := newTestDB(t)
	authSvc := NewAuthService(repository.NewUserRepository(db))
	userSvc := newUserService(db)

	cashier := roleByName(t, db, "cashier")
	if _, err := userSvc.CreateUser(context.Background(), CreateUserRequest{
		Username: "till1", Password: "secret99", RoleID: &cashier.ID,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := authSvc.Authenticate(context.Background(), "till1", "secret99"); err != nil {
		t.Fatalf("active user should authenticate: %v", err)
	}

	inactive := false
	if _, err := userSvc.UpdateUser(context.Background(), "till1", UpdateUserRequest{IsActive: &inactive}); err != nil {
		t.Fatal(err)
	}

	_, err := authSvc.Authenticate(context.Background(), "till1", "secret99")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("inactive user must not authenticate, got %v", err)
	}
}
