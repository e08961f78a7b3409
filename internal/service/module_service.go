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

// --- DTOs ---

type ModuleResponse struct {
	ID                    uint   `json:"id"`
	Name                  string `json:"name"`
	IsActive              bool   `json:"is_active"`
	RequiredPermissionID  *uint  `json:"required_permission_id"`
	RequiredPermissionKey string `json:"required_permission_key,omitempty"`
}

type SetModulePermissionRequest struct {
	// PermissionID nil clears the gate: the module becomes visible to every
	// signed-in user.
	PermissionID *uint `json:"permission_id"`
}

type ToggleModuleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ModuleService owns the module table: which feature areas exist, whether
// they are enabled, and which permission gates each one.
type ModuleService interface {
	ListModules(ctx context.Context) ([]ModuleResponse, error)
	// VisibleModules returns the modules the role may reach, in stable
	// insertion order so navigation layout stays deterministic.
	VisibleModules(ctx context.Context, roleID *uint) ([]ModuleResponse, error)
	ToggleModule(ctx context.Context, id uint, active bool) (*ModuleResponse, error)
	SetRequiredPermission(ctx context.Context, id uint, permissionID *uint) (*ModuleResponse, error)
}

type moduleService struct {
	modules repository.ModuleRepository
	roles   repository.RoleRepository
}

func NewModuleService(modules repository.ModuleRepository, roles repository.RoleRepository) ModuleService {
	return &moduleService{modules: modules, roles: roles}
}

func toModuleResponse(m *model.Module) ModuleResponse {
	resp := ModuleResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		IsActive:             m.IsActive,
		RequiredPermissionID: m.RequiredPermissionID,
	}
	if m.RequiredPermission != nil {
		resp.RequiredPermissionKey = m.RequiredPermission.Key
	}
	return resp
}

func (s *moduleService) ListModules(ctx context.Context) ([]ModuleResponse, error) {
	modules, err := s.modules.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]ModuleResponse, 0, len(modules))
	for i := range modules {
		res = append(res, toModuleResponse(&modules[i]))
	}
	return res, nil
}

func (s *moduleService) VisibleModules(ctx context.Context, roleID *uint) ([]ModuleResponse, error) {
	modules, err := s.modules.ListVisibleForRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]ModuleResponse, 0, len(modules))
	for i := range modules {
		res = append(res, toModuleResponse(&modules[i]))
	}
	return res, nil
}

func (s *moduleService) ToggleModule(ctx context.Context, id uint, active bool) (*ModuleResponse, error) {
	module, err := s.modules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	module.IsActive = active
	if err := s.modules.Update(ctx, module); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	resp := toModuleResponse(module)
	return &resp, nil
}

func (s *moduleService) SetRequiredPermission(ctx context.Context, id uint, permissionID *uint) (*ModuleResponse, error) {
	module, err := s.modules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if permissionID != nil {
		perms, err := s.roles.FindPermissionsByIDs(ctx, []uint{*permissionID})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		if len(perms) == 0 {
			return nil, apperr.Validation("permission_id", "permission does not exist")
		}
		module.RequiredPermission = &perms[0]
	} else {
		module.RequiredPermission = nil
	}
	module.RequiredPermissionID = permissionID

	if err := s.modules.Update(ctx, module); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	updated, err := s.modules.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	resp := toModuleResponse(updated)
	return &resp, nil
}
