package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/validation"
)

const roleType = "Role"

var roleSortColumns = map[string]bool{
	"name": true, "created_at": true, "updated_at": true,
}

// ListRoles handles GET /roles.
func (h *Handler) ListRoles(c *gin.Context) {
	if !h.authorize(c, "view roles") {
		return
	}
	p := parseListParams(c)

	base := searchWhere(h.db.Model(&models.Role{}), p.search, "name")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		h.serverError(c, "listing roles", err)
		return
	}
	var roles []models.Role
	err := base.Session(&gorm.Session{}).
		Preload("Permissions").
		Order(p.order(roleSortColumns, "name asc")).
		Offset((p.page - 1) * p.perPage).
		Limit(p.perPage).
		Find(&roles).Error
	if err != nil {
		h.serverError(c, "listing roles", err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(roles, p, total))
}

// CreateRole handles POST /roles. The role row and its permission
// assignments commit together.
func (h *Handler) CreateRole(c *gin.Context) {
	if !h.authorize(c, "create roles") {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.RoleRules(0))
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	role := models.Role{Name: payload.String("name")}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		return h.assignPermissions(tx, &role, payload.UintSlice("permissions"))
	})
	if err != nil {
		h.serverError(c, "creating role", err)
		return
	}

	h.db.Preload("Permissions").First(&role, role.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Role created successfully",
		"role":    role,
	})
}

// GetRole handles GET /roles/{token}.
func (h *Handler) GetRole(c *gin.Context) {
	if !h.authorize(c, "view roles") {
		return
	}
	role, ok := h.findRole(c, "Permissions")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, role)
}

// UpdateRole handles PUT /roles/{token}. Permission assignments are
// replaced wholesale with the submitted set.
func (h *Handler) UpdateRole(c *gin.Context) {
	if !h.authorize(c, "edit roles") {
		return
	}
	role, ok := h.findRole(c)
	if !ok {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.RoleRules(role.ID))
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	role.Name = payload.String("name")
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(role).Error; err != nil {
			return err
		}
		return h.assignPermissions(tx, role, payload.UintSlice("permissions"))
	})
	if err != nil {
		h.serverError(c, "updating role", err)
		return
	}

	h.db.Preload("Permissions").First(role, role.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated successfully",
		"role":    role,
	})
}

// DeleteRole handles DELETE /roles/{token}. The admin role is protected.
func (h *Handler) DeleteRole(c *gin.Context) {
	if !h.authorize(c, "delete roles") {
		return
	}
	role, ok := h.findRole(c)
	if !ok {
		return
	}
	if role.Name == models.AdminRole {
		c.JSON(http.StatusForbidden, gin.H{"message": "Cannot delete admin role"})
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(role).Association("Permissions").Clear(); err != nil {
			return err
		}
		if err := tx.Model(role).Association("Users").Clear(); err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		h.serverError(c, "deleting role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role deleted successfully"})
}

// ListPermissions handles GET /permissions: the full catalog, name order.
func (h *Handler) ListPermissions(c *gin.Context) {
	if !h.authorize(c, "view roles") {
		return
	}
	var permissions []models.Permission
	if err := h.db.Order("name").Find(&permissions).Error; err != nil {
		h.serverError(c, "listing permissions", err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}

func (h *Handler) assignPermissions(tx *gorm.DB, role *models.Role, ids []uint) error {
	var permissions []*models.Permission
	if err := tx.Find(&permissions, ids).Error; err != nil {
		return err
	}
	return tx.Model(role).Association("Permissions").Replace(permissions)
}

func (h *Handler) findRole(c *gin.Context, preloads ...string) (*models.Role, bool) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		notFound(c, roleType)
		return nil, false
	}
	q := h.db
	for _, preload := range preloads {
		q = q.Preload(preload)
	}
	var role models.Role
	if err := q.Where("uuid = ?", token).First(&role).Error; err != nil {
		notFound(c, roleType)
		return nil, false
	}
	return &role, true
}
