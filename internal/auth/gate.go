// Package auth resolves principals from bearer tokens and decides whether a
// principal may perform a named action.
package auth

import (
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
)

// Gate answers allow/deny for (principal, permission) pairs. The effective
// permission set is the union across the user's roles, recomputed per call;
// there is no cache to invalidate. The admin role bypasses every check.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Can reports whether the user may perform the named action.
func (g *Gate) Can(user *models.User, permission string) bool {
	if user == nil {
		return false
	}
	roles, err := g.roles(user)
	if err != nil {
		return false
	}
	for _, role := range roles {
		if role.Name == models.AdminRole {
			return true
		}
	}
	for _, role := range roles {
		for _, p := range role.Permissions {
			if p.Name == permission {
				return true
			}
		}
	}
	return false
}

// Effective returns the union of permission names across the user's roles.
// Admin gets the empty set plus the bypass in Can, so callers wanting the
// full picture should check IsAdmin first.
func (g *Gate) Effective(user *models.User) (map[string]struct{}, error) {
	roles, err := g.roles(user)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range role.Permissions {
			set[p.Name] = struct{}{}
		}
	}
	return set, nil
}

func (g *Gate) roles(user *models.User) ([]*models.Role, error) {
	if user.Roles != nil {
		return user.Roles, nil
	}
	var loaded models.User
	if err := g.db.Preload("Roles.Permissions").First(&loaded, user.ID).Error; err != nil {
		return nil, err
	}
	user.Roles = loaded.Roles
	return user.Roles, nil
}
