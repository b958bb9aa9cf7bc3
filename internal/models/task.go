package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every accepted status value.
var TaskStatuses = []string{
	string(TaskStatusPending),
	string(TaskStatusInProgress),
	string(TaskStatusCompleted),
	string(TaskStatusCancelled),
}

// Task represents a unit of work inside a project.
type Task struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UUID        uuid.UUID      `json:"uuid" gorm:"type:uuid;uniqueIndex;not null"`
	ProjectID   uint           `json:"project_id" gorm:"not null;index"`
	Title       string         `json:"title" gorm:"not null;type:varchar(255)"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status" gorm:"not null;type:varchar(20);default:pending"`
	IsPriority  bool           `json:"is_priority" gorm:"not null;default:false"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Foreign Key Relations
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	return nil
}

// AuditAttributes returns the attribute snapshot recorded by the audit trail.
func (t *Task) AuditAttributes() map[string]any {
	return map[string]any{
		"project_id":  t.ProjectID,
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"is_priority": t.IsPriority,
		"metadata":    string(t.Metadata),
		"due_date":    t.DueDate,
	}
}
