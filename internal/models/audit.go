package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event kinds.
const (
	AuditEventCreated = "created"
	AuditEventUpdated = "updated"
	AuditEventDeleted = "deleted"
)

// AuditRecord is an append-only snapshot of a mutation: which entity, what
// happened, who did it, and the changed attribute values. The application
// never updates or deletes rows of this table.
type AuditRecord struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	AuditableType string         `json:"auditable_type" gorm:"not null;index:idx_audits_auditable;type:varchar(50)"`
	AuditableID   uint           `json:"auditable_id" gorm:"not null;index:idx_audits_auditable"`
	Event         string         `json:"event" gorm:"not null;type:varchar(20)"`
	UserID        *uint          `json:"user_id,omitempty"`
	OldValues     datatypes.JSON `json:"old_values,omitempty"`
	NewValues     datatypes.JSON `json:"new_values,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`

	// Foreign Key Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Auditable is implemented by models whose mutations are recorded.
type Auditable interface {
	AuditAttributes() map[string]any
}
