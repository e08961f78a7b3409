package service

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// The fixed permission vocabulary: every <resource>_<action> pair, with
// reports restricted to read. 17 keys in total.
var permissionKeys = []string{
	"users_read", "users_write", "users_update", "users_delete",
	"inventory_read", "inventory_write", "inventory_update", "inventory_delete",
	"sales_read", "sales_write", "sales_update", "sales_delete",
	"reports_read",
	"settings_read", "settings_write", "settings_update", "settings_delete",
}

var defaultRoles = []struct {
	Name        string
	Description string
	Grants      []string
}{
	{
		Name:        "admin",
		Description: "Full system access",
		Grants:      permissionKeys,
	},
	{
		Name:        "manager",
		Description: "Store management access",
		Grants: []string{
			"inventory_read", "inventory_write", "inventory_update",
			"sales_read", "sales_write", "sales_update",
			"reports_read",
		},
	},
	{
		Name:        "cashier",
		Description: "Basic cashier access",
		Grants:      []string{"sales_read", "sales_write"},
	},
}

// module name → gating permission key ("" means no gate)
var defaultModules = []struct {
	Name string
	Key  string
}{
	{"home", ""},
	{"cashier", "sales_write"},
	{"inventory", "inventory_read"},
	{"reports", "reports_read"},
	{"settings", "settings_read"},
}

const (
	bootstrapAdminUsername = "admin"
	bootstrapAdminPassword = "admin123"
)

// Seeder populates the store on first start: the permission vocabulary,
// the three default roles with their grants, the module table and the
// bootstrap admin account. Every step is idempotent, so it can run on each
// boot.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) Seed(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		permByKey, err := seedPermissions(tx)
		if err != nil {
			return err
		}
		if err := seedRoles(tx, permByKey); err != nil {
			return err
		}
		if err := seedModules(tx, permByKey); err != nil {
			return err
		}
		return seedAdminUser(tx)
	})
}

func seedPermissions(tx *gorm.DB) (map[string]model.Permission, error) {
	permByKey := make(map[string]model.Permission, len(permissionKeys))
	for _, key := range permissionKeys {
		var perm model.Permission
		if err := tx.Where("key = ?", key).FirstOrCreate(&perm, model.Permission{Key: key}).Error; err != nil {
			return nil, fmt.Errorf("failed to seed permission %q: %w", key, err)
		}
		permByKey[key] = perm
	}
	return permByKey, nil
}

func seedRoles(tx *gorm.DB, permByKey map[string]model.Permission) error {
	for _, def := range defaultRoles {
		var role model.Role
		err := tx.Where("name = ?", def.Name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = model.Role{Name: def.Name, Description: def.Description}
			err = tx.Create(&role).Error
		}
		if err != nil {
			return fmt.Errorf("failed to seed role %q: %w", def.Name, err)
		}

		// Only grant on first creation; an administrator may have tailored
		// the set since, and reseeding must not undo that.
		count := tx.Model(&role).Association("Permissions").Count()
		if count > 0 {
			continue
		}

		grants := make([]model.Permission, 0, len(def.Grants))
		for _, key := range def.Grants {
			grants = append(grants, permByKey[key])
		}
		if err := tx.Model(&role).Association("Permissions").Replace(grants); err != nil {
			return fmt.Errorf("failed to grant permissions to role %q: %w", def.Name, err)
		}
	}
	return nil
}

func seedModules(tx *gorm.DB, permByKey map[string]model.Permission) error {
	for _, def := range defaultModules {
		var existing model.Module
		err := tx.Where("name = ?", def.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to seed module %q: %w", def.Name, err)
		}

		module := model.Module{Name: def.Name, IsActive: true}
		if def.Key != "" {
			perm := permByKey[def.Key]
			module.RequiredPermissionID = &perm.ID
		}
		if err := tx.Create(&module).Error; err != nil {
			return fmt.Errorf("failed to seed module %q: %w", def.Name, err)
		}
	}
	return nil
}

// seedAdminUser creates the reserved bootstrap account. The password is
// bcrypt-hashed before it goes anywhere near the store.
func seedAdminUser(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("username = ?", bootstrapAdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var adminRole model.Role
	if err := tx.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return fmt.Errorf("admin role missing during bootstrap: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	admin := model.User{
		Username:     bootstrapAdminUsername,
		PasswordHash: string(hash),
		RoleID:       &adminRole.ID,
		IsActive:     true,
	}
	return tx.Create(&admin).Error
}
