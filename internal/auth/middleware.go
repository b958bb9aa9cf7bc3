package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
)

const userKey = "auth.user"

// Authenticate resolves the bearer token into a principal, preloading roles
// and permissions for downstream gate checks. Unknown or missing tokens end
// the request with 401.
func Authenticate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthenticated(c)
			return
		}
		plain := strings.TrimPrefix(header, "Bearer ")

		var token models.AccessToken
		err := db.Preload("User.Roles.Permissions").
			Where("token_hash = ?", HashToken(plain)).
			First(&token).Error
		if err != nil || token.User == nil {
			abortUnauthenticated(c)
			return
		}

		now := time.Now()
		db.Model(&token).Update("last_used_at", &now)

		c.Set(userKey, token.User)
		c.Next()
	}
}

// CurrentUser returns the authenticated principal, or nil outside an
// authenticated request.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequirePermission denies the request unless the gate allows the action.
func RequirePermission(gate *Gate, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.Can(CurrentUser(c), permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
			return
		}
		c.Next()
	}
}

// RequireRole denies the request unless the principal holds the named role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
}
