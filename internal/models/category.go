package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category groups projects. Deletion is always soft so that audit history
// and the category -> project relation survive.
type Category struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UUID        uuid.UUID      `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	Name        string         `json:"name" gorm:"not null;type:varchar(255)"`
	Description string         `json:"description"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:true"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// One-to-Many Relations
	Projects []*Project `json:"projects,omitempty" gorm:"foreignKey:CategoryID"`
}

// BeforeCreate assigns the external token. The token is immutable after this.
func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// AuditAttributes returns the attribute snapshot recorded by the audit trail.
func (c *Category) AuditAttributes() map[string]any {
	return map[string]any{
		"name":         c.Name,
		"description":  c.Description,
		"is_active":    c.IsActive,
		"metadata":     string(c.Metadata),
		"published_at": c.PublishedAt,
	}
}
