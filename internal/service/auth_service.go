package service

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Identity is what a successful authentication yields: just enough to build a
// session. RoleName is empty when the user has no role assigned.
type Identity struct {
	UserID   uint
	Username string
	RoleID   *uint
	RoleName string
}

// AuthService verifies credentials against the credential store. It is
// read-only; session bookkeeping belongs to the caller.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

type authService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

// Authenticate looks up an active user by exact username and verifies the
// password against the stored bcrypt digest. Unknown user, inactive user and
// wrong password all fail with the same ErrInvalidCredentials so nothing
// leaks about which usernames exist.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	user, err := s.users.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	identity := &Identity{
		UserID:   user.ID,
		Username: user.Username,
		RoleID:   user.RoleID,
	}
	if user.Role != nil {
		identity.RoleName = user.Role.Name
	}
	return identity, nil
}
