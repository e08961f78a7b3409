package service

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/model"
	"pos-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   *uint  `json:"role_id"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleID   *uint  `json:"role_id"`
	IsActive *bool  `json:"is_active"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	RoleID    *uint  `json:"role_id"`
	RoleName  string `json:"role_name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// UserService is the write side of the credential store.
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, username string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, username string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, username string) error
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	txm   repository.TransactionManager
}

func NewUserService(users repository.UserRepository, roles repository.RoleRepository, txm repository.TransactionManager) UserService {
	return &userService{users: users, roles: roles, txm: txm}
}

func toUserResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		RoleID:    user.RoleID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.Role != nil {
		resp.RoleName = user.Role.Name
	}
	return resp
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if req.Username == "" {
		return nil, apperr.Validation("username", "must not be empty")
	}
	if req.Password == "" {
		return nil, apperr.Validation("password", "must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		RoleID:       req.RoleID,
		IsActive:     true,
	}

	// Duplicate check and insert run in one transaction so an interrupted
	// create never leaves a half-written account.
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByUsername(txCtx, req.Username); err == nil {
			return apperr.ErrDuplicateUsername
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}

		if req.RoleID != nil {
			if _, err := s.roles.FindByID(txCtx, *req.RoleID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("role_id", "role does not exist")
				}
				return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
			}
		}

		return s.users.Create(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, user.Username)
}

func (s *userService) GetUser(ctx context.Context, username string) (*UserResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return toUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *toUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, username string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
			return nil, apperr.ErrDuplicateUsername
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		user.Username = req.Username
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if req.RoleID != nil {
		if _, err := s.roles.FindByID(ctx, *req.RoleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation("role_id", "role does not exist")
			}
			return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		user.RoleID = req.RoleID
	}

	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	return s.GetUser(ctx, user.Username)
}

// DeleteUser removes the account. Nothing references users by foreign key, so
// there is no referential guard here.
func (s *userService) DeleteUser(ctx context.Context, username string) error {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q: %w", username, apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return s.users.DeleteByUsername(ctx, username)
}
