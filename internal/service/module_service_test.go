package service

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/apperr"
)

func moduleNames(modules []ModuleResponse) []string {
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	return names
}

func containsModule(modules []ModuleResponse, name string) bool {
	for _, m := range modules {
		if m.Name == name {
			return true
		}
	}
	return false
}

func TestVisibleModulesByRole(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	ctx := context.Background()

	t.Run("cashier", func(t *testing.T) {
		cashier := roleByName(t, db, "cashier")
		visible, err := svc.VisibleModules(ctx, &cashier.ID)
		if err != nil {
			t.Fatal(err)
		}

		for _, want := range []string{"home", "cashier"} {
			if !containsModule(visible, want) {
				t.Errorf("cashier cannot see %q, got %v", want, moduleNames(visible))
			}
		}
		for _, deny := range []string{"inventory", "reports", "settings"} {
			if containsModule(visible, deny) {
				t.Errorf("cashier can see %q, got %v", deny, moduleNames(visible))
			}
		}
	})

	t.Run("admin sees everything", func(t *testing.T) {
		admin := roleByName(t, db, "admin")
		visible, err := svc.VisibleModules(ctx, &admin.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(visible) != 5 {
			t.Fatalf("admin sees %v, want all five modules", moduleNames(visible))
		}
	})

	t.Run("no role sees only ungated", func(t *testing.T) {
		visible, err := svc.VisibleModules(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(visible) != 1 || visible[0].Name != "home" {
			t.Fatalf("roleless user sees %v, want only home", moduleNames(visible))
		}
	})
}

func TestVisibleModulesOrderStable(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)

	admin := roleByName(t, db, "admin")
	visible, err := svc.VisibleModules(context.Background(), &admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"home", "cashier", "inventory", "reports", "settings"}
	got := moduleNames(visible)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("module order %v, want %v", got, want)
		}
	}
}

func TestToggleModule(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	ctx := context.Background()

	admin := roleByName(t, db, "admin")

	all, err := svc.ListModules(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var cashierModule *ModuleResponse
	for i := range all {
		if all[i].Name == "cashier" {
			cashierModule = &all[i]
		}
	}
	if cashierModule == nil {
		t.Fatal("cashier module not seeded")
	}

	// Disabled modules disappear for everybody, permission or not.
	if _, err := svc.ToggleModule(ctx, cashierModule.ID, false); err != nil {
		t.Fatal(err)
	}
	visible, err := svc.VisibleModules(ctx, &admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if containsModule(visible, "cashier") {
		t.Fatal("disabled module still visible to admin")
	}

	if _, err := svc.ToggleModule(ctx, cashierModule.ID, true); err != nil {
		t.Fatal(err)
	}
	visible, _ = svc.VisibleModules(ctx, &admin.ID)
	if !containsModule(visible, "cashier") {
		t.Fatal("re-enabled module not visible")
	}

	if _, err := svc.ToggleModule(ctx, 99999, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown module, got %v", err)
	}
}

func TestSetRequiredPermission(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	ctx := context.Background()

	cashier := roleByName(t, db, "cashier")

	all, err := svc.ListModules(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var settingsModule *ModuleResponse
	for i := range all {
		if all[i].Name == "settings" {
			settingsModule = &all[i]
		}
	}
	if settingsModule == nil {
		t.Fatal("settings module not seeded")
	}

	// Clearing the gate opens the module to every signed-in user.
	updated, err := svc.SetRequiredPermission(ctx, settingsModule.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.RequiredPermissionID != nil {
		t.Fatal("gate not cleared")
	}
	visible, err := svc.VisibleModules(ctx, &cashier.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !containsModule(visible, "settings") {
		t.Fatal("ungated module not visible to cashier")
	}

	// Re-gating behind a permission the cashier lacks hides it again.
	settingsRead := permByKey(t, db, "settings_read")
	updated, err = svc.SetRequiredPermission(ctx, settingsModule.ID, &settingsRead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.RequiredPermissionKey != "settings_read" {
		t.Fatalf("gate key %q, want settings_read", updated.RequiredPermissionKey)
	}
	visible, _ = svc.VisibleModules(ctx, &cashier.ID)
	if containsModule(visible, "settings") {
		t.Fatal("gated module visible to cashier without the permission")
	}

	// An unknown permission id is refused.
	bogus := uint(99999)
	if _, err := svc.SetRequiredPermission(ctx, settingsModule.ID, &bogus); !apperr.IsValidation(err) {
		t.Fatalf("want validation error for unknown permission, got %v", err)
	}
}
