package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/planora/internal/auth"
	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/validation"
)

var loginRules = []validation.FieldRule{
	{Field: "email", Required: true, Checks: []validation.Check{validation.String(255), validation.Email()}},
	{Field: "password", Required: true, Checks: []validation.Check{validation.String(255)}},
}

// Login handles POST /login. A successful login issues a fresh bearer
// token; the plain value is returned exactly once.
func (h *Handler) Login(c *gin.Context) {
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, loginRules)
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	var user models.User
	err = h.db.Preload("Roles").
		Where("email = ?", payload.String("email")).
		First(&user).Error
	if err != nil || !auth.CheckPassword(user.Password, payload.String("password")) {
		validationFailed(c, validation.Errors{
			"email": {"These credentials do not match our records."},
		})
		return
	}

	plain, hash, err := auth.GenerateToken()
	if err != nil {
		h.serverError(c, "logging in", err)
		return
	}
	token := models.AccessToken{UserID: user.ID, TokenHash: hash}
	if err := h.db.Create(&token).Error; err != nil {
		h.serverError(c, "logging in", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": plain,
		"user":  user,
	})
}

// Logout handles POST /logout: it revokes the bearer token used on this
// request.
func (h *Handler) Logout(c *gin.Context) {
	plain := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	err := h.db.Where("token_hash = ?", auth.HashToken(plain)).
		Delete(&models.AccessToken{}).Error
	if err != nil {
		h.serverError(c, "logging out", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /user: the authenticated principal with roles and
// effective permissions.
func (h *Handler) Me(c *gin.Context) {
	user := auth.CurrentUser(c)
	set, err := h.gate.Effective(user)
	if err != nil {
		h.serverError(c, "loading profile", err)
		return
	}
	permissions := make([]string, 0, len(set))
	for name := range set {
		permissions = append(permissions, name)
	}
	sort.Strings(permissions)
	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"permissions": permissions,
	})
}
