package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/auth"
	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/validation"
)

const userType = "User"

var userSortColumns = map[string]bool{
	"name": true, "email": true, "created_at": true, "updated_at": true,
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(c *gin.Context) {
	p := parseListParams(c)

	base := searchWhere(h.db.Model(&models.User{}), p.search, "name", "email")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		h.serverError(c, "listing users", err)
		return
	}
	var users []models.User
	err := base.Session(&gorm.Session{}).
		Preload("Roles").
		Order(p.order(userSortColumns, "name asc")).
		Offset((p.page - 1) * p.perPage).
		Limit(p.perPage).
		Find(&users).Error
	if err != nil {
		h.serverError(c, "listing users", err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(users, p, total))
}

// CreateUser handles POST /users. The user row and its role assignments
// commit together; the password is stored as a bcrypt hash.
func (h *Handler) CreateUser(c *gin.Context) {
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.UserRules(validation.Create, 0))
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	hash, err := auth.HashPassword(payload.String("password"))
	if err != nil {
		h.serverError(c, "creating user", err)
		return
	}
	user := models.User{
		Name:     payload.String("name"),
		Email:    payload.String("email"),
		Password: hash,
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return h.assignRoles(tx, &user, payload.UintSlice("roles"))
	})
	if err != nil {
		h.serverError(c, "creating user", err)
		return
	}

	h.db.Preload("Roles").First(&user, user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// GetUser handles GET /users/{token}.
func (h *Handler) GetUser(c *gin.Context) {
	user, ok := h.findUser(c, "Roles")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /users/{token}. An omitted password keeps the
// current one; role assignments are replaced with the submitted set.
func (h *Handler) UpdateUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.UserRules(validation.Update, user.ID))
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	user.Name = payload.String("name")
	user.Email = payload.String("email")
	if payload.Has("password") {
		hash, err := auth.HashPassword(payload.String("password"))
		if err != nil {
			h.serverError(c, "updating user", err)
			return
		}
		user.Password = hash
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return h.assignRoles(tx, user, payload.UintSlice("roles"))
	})
	if err != nil {
		h.serverError(c, "updating user", err)
		return
	}

	h.db.Preload("Roles").First(user, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser handles DELETE /users/{token}. The last user holding the
// admin role cannot be removed.
func (h *Handler) DeleteUser(c *gin.Context) {
	user, ok := h.findUser(c, "Roles")
	if !ok {
		return
	}
	if user.IsAdmin() {
		var admins int64
		err := h.db.Model(&models.User{}).
			Joins("JOIN user_roles ON user_roles.user_id = users.id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", models.AdminRole).
			Count(&admins).Error
		if err != nil {
			h.serverError(c, "deleting user", err)
			return
		}
		if admins <= 1 {
			c.JSON(http.StatusForbidden, gin.H{"message": "Cannot delete the only admin user"})
			return
		}
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Association("Roles").Clear(); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AccessToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		h.serverError(c, "deleting user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListAllRoles handles GET /all-roles: every role, name order.
func (h *Handler) ListAllRoles(c *gin.Context) {
	var roles []models.Role
	if err := h.db.Order("name").Find(&roles).Error; err != nil {
		h.serverError(c, "listing roles", err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *Handler) assignRoles(tx *gorm.DB, user *models.User, ids []uint) error {
	var roles []*models.Role
	if err := tx.Find(&roles, ids).Error; err != nil {
		return err
	}
	return tx.Model(user).Association("Roles").Replace(roles)
}

func (h *Handler) findUser(c *gin.Context, preloads ...string) (*models.User, bool) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		notFound(c, userType)
		return nil, false
	}
	q := h.db
	for _, preload := range preloads {
		q = q.Preload(preload)
	}
	var user models.User
	if err := q.Where("uuid = ?", token).First(&user).Error; err != nil {
		notFound(c, userType)
		return nil, false
	}
	return &user, true
}
