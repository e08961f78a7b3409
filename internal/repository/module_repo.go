package repository

import (
	"context"

	"pos-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Module, error)
	FindByName(ctx context.Context, name string) (*model.Module, error)
	ListAll(ctx context.Context) ([]model.Module, error)
	Update(ctx context.Context, module *model.Module) error
	// ListVisibleForRole returns active modules whose required permission is
	// null or granted to the role, in insertion (id) order. A nil roleID
	// yields only the ungated modules.
	ListVisibleForRole(ctx context.Context, roleID *uint) ([]model.Module, error)
	CountByRequiredPermission(ctx context.Context, permissionID uint) (int64, error)
}

type moduleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) FindByID(ctx context.Context, id uint) (*model.Module, error) {
	var module model.Module
	if err := GetDB(ctx, r.db).Preload("RequiredPermission").First(&module, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) FindByName(ctx context.Context, name string) (*model.Module, error) {
	var module model.Module
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) ListAll(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := GetDB(ctx, r.db).Preload("RequiredPermission").Order("id asc").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepository) Update(ctx context.Context, module *model.Module) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(module).Error
}

func (r *moduleRepository) ListVisibleForRole(ctx context.Context, roleID *uint) ([]model.Module, error) {
	var modules []model.Module
	db := GetDB(ctx, r.db).Where("is_active = ?", true)

	if roleID == nil {
		db = db.Where("required_permission_id IS NULL")
	} else {
		db = db.Where(
			"required_permission_id IS NULL OR required_permission_id IN (?)",
			GetDB(ctx, r.db).Table("role_permissions").
				Select("permission_id").Where("role_id = ?", *roleID),
		)
	}

	if err := db.Order("id asc").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepository) CountByRequiredPermission(ctx context.Context, permissionID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Module{}).
		Where("required_permission_id = ?", permissionID).Count(&count).Error
	return count, err
}
