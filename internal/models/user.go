package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRole is protected: it cannot be deleted and bypasses permission checks.
const AdminRole = "admin"

// User is an authenticatable principal. The password column holds a bcrypt
// hash and is never serialized.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      uuid.UUID `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null;type:varchar(255)"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;type:varchar(255)"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Many-to-Many Relations
	Roles []*Role `json:"roles,omitempty" gorm:"many2many:user_roles"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

// HasRole reports whether one of the loaded roles matches name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the protected admin role.
func (u *User) IsAdmin() bool {
	return u.HasRole(AdminRole)
}
