package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project belongs to exactly one category and may carry a single PDF
// document stored outside the database; DocumentPath is the file-store key.
type Project struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UUID         uuid.UUID      `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	CategoryID   uint           `json:"category_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"not null;type:varchar(255)"`
	Description  string         `json:"description"`
	IsActive     bool           `json:"is_active" gorm:"not null;default:true"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	DocumentPath *string        `json:"document_path,omitempty"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Foreign Key Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// One-to-Many Relations
	Tasks []*Task `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// AuditAttributes returns the attribute snapshot recorded by the audit trail.
func (p *Project) AuditAttributes() map[string]any {
	return map[string]any{
		"category_id":   p.CategoryID,
		"name":          p.Name,
		"description":   p.Description,
		"is_active":     p.IsActive,
		"metadata":      string(p.Metadata),
		"document_path": p.DocumentPath,
		"start_date":    p.StartDate,
		"end_date":      p.EndDate,
	}
}
