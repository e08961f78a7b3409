package repository

import (
	"context"

	"pos-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ClearPermissions(ctx context.Context, role *model.Role) error
	ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error

	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionByKey(ctx context.Context, key string) (*model.Permission, error)
	FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	DeletePermission(ctx context.Context, id uint) error
	// HasPermission reports whether a role_permissions row joins roleID to
	// the permission whose key equals key.
	HasPermission(ctx context.Context, roleID uint, key string) (bool, error)
	PermissionKeysForRole(ctx context.Context, roleID uint) ([]string, error)
	CountGrantsForPermission(ctx context.Context, permissionID uint) (int64, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	// Omit associations so a preloaded permission set is never written back
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("id asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ClearPermissions(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Clear()
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Replace(perms)
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("id asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionByKey(ctx context.Context, key string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("key = ?", key).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var perms []model.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) DeletePermission(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Permission{}).Error
}

func (r *roleRepository) HasPermission(ctx context.Context, roleID uint, key string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("role_permissions").
		Joins("INNER JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ? AND permissions.key = ?", roleID, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *roleRepository) PermissionKeysForRole(ctx context.Context, roleID uint) ([]string, error) {
	var keys []string
	err := GetDB(ctx, r.db).Table("permissions").
		Joins("INNER JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Pluck("permissions.key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *roleRepository) CountGrantsForPermission(ctx context.Context, permissionID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("role_permissions").
		Where("permission_id = ?", permissionID).Count(&count).Error
	return count, err
}
