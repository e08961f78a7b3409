package service

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/model"
	"pos-backend/internal/repository"

	"gorm.io/gorm"
)

const (
	maxRoleNameLen        = 20
	maxRoleDescriptionLen = 60
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	// PermissionIDs optionally grants an initial permission set.
	PermissionIDs []uint `json:"permission_ids"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ReplacePermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID  uint   `json:"id"`
	Key string `json:"key"`
}

// RoleService owns roles, permissions and their assignments. HasPermission is
// the single predicate every access-controlled path in the system consults.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uint) error
	ReplaceRolePermissions(ctx context.Context, roleID uint, req ReplacePermissionsRequest) (*RoleResponse, error)

	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	DeletePermission(ctx context.Context, id uint) error

	HasPermission(ctx context.Context, roleID *uint, key string) (bool, error)
	PermissionKeysForRole(ctx context.Context, roleID *uint) ([]string, error)
}

type roleService struct {
	roles   repository.RoleRepository
	users   repository.UserRepository
	modules repository.ModuleRepository
	txm     repository.TransactionManager
}

func NewRoleService(roles repository.RoleRepository, users repository.UserRepository, modules repository.ModuleRepository, txm repository.TransactionManager) RoleService {
	return &roleService{roles: roles, users: users, modules: modules, txm: txm}
}

// --- Implementation ---

func validateRoleFields(name, description string) error {
	if name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if len(name) > maxRoleNameLen {
		return apperr.Validation("name", fmt.Sprintf("must be at most %d characters", maxRoleNameLen))
	}
	if len(description) > maxRoleDescriptionLen {
		return apperr.Validation("description", fmt.Sprintf("must be at most %d characters", maxRoleDescriptionLen))
	}
	return nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		res = append(res, toRoleResponse(&roles[i]))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if err := validateRoleFields(req.Name, req.Description); err != nil {
		return nil, err
	}

	role := &model.Role{Name: req.Name, Description: req.Description}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.roles.FindByName(txCtx, req.Name); err == nil {
			return apperr.ErrDuplicateRoleName
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}

		if err := s.roles.Create(txCtx, role); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}

		if len(req.PermissionIDs) > 0 {
			perms, err := s.resolvePermissions(txCtx, req.PermissionIDs)
			if err != nil {
				return err
			}
			if err := s.roles.ReplacePermissions(txCtx, role, perms); err != nil {
				return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error) {
	if err := validateRoleFields(req.Name, req.Description); err != nil {
		return nil, err
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if req.Name != role.Name {
		if _, err := s.roles.FindByName(ctx, req.Name); err == nil {
			return nil, apperr.ErrDuplicateRoleName
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	return s.GetRole(ctx, id)
}

// DeleteRole refuses to delete a role any user still references; the caller
// must reassign those users first. Association rows go first, then the role,
// all in one transaction.
func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("role %d: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		inUse, err := s.users.CountByRole(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		if inUse > 0 {
			return apperr.ErrRoleInUse
		}

		if err := s.roles.ClearPermissions(txCtx, role); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		if err := s.roles.Delete(txCtx, id); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		return nil
	})
}

// ReplaceRolePermissions swaps the role's entire permission set for the given
// one. The replace is all-or-nothing: an unknown permission id fails the
// whole operation and the stored set stays untouched.
func (s *roleService) ReplaceRolePermissions(ctx context.Context, roleID uint, req ReplacePermissionsRequest) (*RoleResponse, error) {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %d: %w", roleID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		perms, err := s.resolvePermissions(txCtx, req.PermissionIDs)
		if err != nil {
			return err
		}
		if err := s.roles.ReplacePermissions(txCtx, role, perms); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, roleID)
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, PermissionResponse{ID: p.ID, Key: p.Key})
	}
	return res, nil
}

// DeletePermission removes a permission from the vocabulary, refusing while
// any role grant or module gate still references it.
func (s *roleService) DeletePermission(ctx context.Context, id uint) error {
	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		grants, err := s.roles.CountGrantsForPermission(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		gates, err := s.modules.CountByRequiredPermission(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		if grants > 0 || gates > 0 {
			return apperr.ErrPermissionInUse
		}
		return s.roles.DeletePermission(txCtx, id)
	})
}

// HasPermission reports whether the role holds the permission key. A nil
// role (user without a role) holds nothing.
func (s *roleService) HasPermission(ctx context.Context, roleID *uint, key string) (bool, error) {
	if roleID == nil {
		return false, nil
	}
	ok, err := s.roles.HasPermission(ctx, *roleID, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return ok, nil
}

func (s *roleService) PermissionKeysForRole(ctx context.Context, roleID *uint) ([]string, error) {
	if roleID == nil {
		return []string{}, nil
	}
	keys, err := s.roles.PermissionKeysForRole(ctx, *roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return keys, nil
}

// resolvePermissions loads the permission rows for ids and fails when any id
// does not exist.
func (s *roleService) resolvePermissions(ctx context.Context, ids []uint) ([]model.Permission, error) {
	perms, err := s.roles.FindPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if len(perms) != len(uniqueIDs(ids)) {
		return nil, apperr.Validation("permission_ids", "contains unknown permission ids")
	}
	return perms, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// --- Helpers ---

func toRoleResponse(r *model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, PermissionResponse{ID: p.ID, Key: p.Key})
	}

	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
