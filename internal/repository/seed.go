package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/auth"
	"github.com/kutbudev/planora/internal/config"
	"github.com/kutbudev/planora/internal/models"
)

// permissionNames is the full resource-action matrix.
var permissionNames = []string{
	// User management
	"view users", "create users", "edit users", "delete users",
	// Role management
	"view roles", "create roles", "edit roles", "delete roles",
	// Category management
	"view categories", "create categories", "edit categories", "delete categories",
	"export categories", "import categories",
	// Project management
	"view projects", "create projects", "edit projects", "delete projects",
	"export projects", "import projects",
	// Task management
	"view tasks", "create tasks", "edit tasks", "delete tasks",
	"export tasks", "import tasks",
	// Audit management
	"view audits",
}

var managerPermissions = []string{
	"view users", "view roles",
	"view categories", "create categories", "edit categories", "delete categories",
	"export categories", "import categories",
	"view projects", "create projects", "edit projects", "delete projects",
	"export projects", "import projects",
	"view tasks", "create tasks", "edit tasks", "delete tasks",
	"export tasks", "import tasks",
	"view audits",
}

var userPermissions = []string{
	"view categories",
	"view projects", "create projects", "edit projects", "export projects",
	"view tasks", "create tasks", "edit tasks", "export tasks",
	"view audits",
}

// Seed creates the permission matrix, the admin/manager/user roles and the
// initial admin account. It is idempotent and safe to re-run.
func Seed(db *gorm.DB, cfg *config.Config) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]*models.Permission, len(permissionNames))
		for _, name := range permissionNames {
			perm := &models.Permission{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(perm).Error; err != nil {
				return fmt.Errorf("seeding permission %q: %w", name, err)
			}
			byName[name] = perm
		}

		all := make([]*models.Permission, 0, len(permissionNames))
		for _, name := range permissionNames {
			all = append(all, byName[name])
		}

		if err := seedRole(tx, models.AdminRole, all); err != nil {
			return err
		}
		if err := seedRole(tx, "manager", pick(byName, managerPermissions)); err != nil {
			return err
		}
		if err := seedRole(tx, "user", pick(byName, userPermissions)); err != nil {
			return err
		}

		return seedAdminUser(tx, cfg)
	})
}

func seedRole(tx *gorm.DB, name string, perms []*models.Permission) error {
	role := &models.Role{Name: name}
	if err := tx.Where("name = ?", name).FirstOrCreate(role).Error; err != nil {
		return fmt.Errorf("seeding role %q: %w", name, err)
	}
	if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
		return fmt.Errorf("assigning permissions to role %q: %w", name, err)
	}
	return nil
}

func seedAdminUser(tx *gorm.DB, cfg *config.Config) error {
	var admin models.Role
	if err := tx.Where("name = ?", models.AdminRole).First(&admin).Error; err != nil {
		return err
	}

	var count int64
	if err := tx.Model(&models.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", admin.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:     cfg.Seed.AdminName,
		Email:    cfg.Seed.AdminEmail,
		Password: hash,
	}
	if err := tx.Where("email = ?", user.Email).FirstOrCreate(user).Error; err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	return tx.Model(user).Association("Roles").Replace([]*models.Role{&admin})
}

func pick(byName map[string]*models.Permission, names []string) []*models.Permission {
	perms := make([]*models.Permission, 0, len(names))
	for _, n := range names {
		if p, ok := byName[n]; ok {
			perms = append(perms, p)
		}
	}
	return perms
}
