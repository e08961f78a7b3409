package service

import (
	"context"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/model"
	"pos-backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory store, migrated and seeded.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := NewSeeder(db).Seed(context.Background()); err != nil {
		t.Fatal(err)
	}
	return db
}

func newRoleService(db *gorm.DB) RoleService {
	return NewRoleService(
		repository.NewRoleRepository(db),
		repository.NewUserRepository(db),
		repository.NewModuleRepository(db),
		repository.NewTransactionManager(db),
	)
}

func newUserService(db *gorm.DB) UserService {
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewRoleRepository(db),
		repository.NewTransactionManager(db),
	)
}

func newModuleService(db *gorm.DB) ModuleService {
	return NewModuleService(
		repository.NewModuleRepository(db),
		repository.NewRoleRepository(db),
	)
}

func newSaleService(db *gorm.DB) SaleService {
	return NewSaleService(
		repository.NewProductRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)
}

// roleByName fetches a seeded role directly.
func roleByName(t *testing.T, db *gorm.DB, name string) *model.Role {
	t.Helper()
	var role model.Role
	if err := db.Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		t.Fatalf("role %q not found: %v", name, err)
	}
	return &role
}

// permByKey fetches a seeded permission directly.
func permByKey(t *testing.T, db *gorm.DB, key string) *model.Permission {
	t.Helper()
	var perm model.Permission
	if err := db.Where("key = ?", key).First(&perm).Error; err != nil {
		t.Fatalf("permission %q not found: %v", key, err)
	}
	return &perm
}
