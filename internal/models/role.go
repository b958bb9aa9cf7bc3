package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role groups permissions. A user's effective permission set is the union
// across all assigned roles.
type Role struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      uuid.UUID `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Many-to-Many Relations
	Permissions []*Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions"`
	Users       []*User       `json:"-" gorm:"many2many:user_roles"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// Permission names a resource-action pair, e.g. "edit projects".
type Permission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      uuid.UUID `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Permission) BeforeCreate(*gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}
