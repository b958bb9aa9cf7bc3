// Package audit persists immutable before/after snapshots of entity
// mutations. Recording is a best-effort side effect: failures are logged
// and never propagate to the triggering operation.
package audit

import (
	"encoding/json"
	"log/slog"
	"reflect"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
)

// Recorder writes audit records for entity mutations.
type Recorder struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRecorder(db *gorm.DB, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{db: db, log: log}
}

// Created records a creation with the full new attribute set.
func (r *Recorder) Created(userID *uint, entityType string, entityID uint, entity models.Auditable) {
	r.write(userID, entityType, entityID, models.AuditEventCreated, nil, entity.AuditAttributes())
}

// Updated records only the attributes whose values changed since the
// before snapshot was taken.
func (r *Recorder) Updated(userID *uint, entityType string, entityID uint, before map[string]any, entity models.Auditable) {
	oldChanged := make(map[string]any)
	newChanged := make(map[string]any)
	for key, newVal := range entity.AuditAttributes() {
		oldVal, ok := before[key]
		if !ok || !reflect.DeepEqual(oldVal, newVal) {
			oldChanged[key] = oldVal
			newChanged[key] = newVal
		}
	}
	if len(newChanged) == 0 {
		return
	}
	r.write(userID, entityType, entityID, models.AuditEventUpdated, oldChanged, newChanged)
}

// Deleted records a deletion with the last attribute set.
func (r *Recorder) Deleted(userID *uint, entityType string, entityID uint, entity models.Auditable) {
	r.write(userID, entityType, entityID, models.AuditEventDeleted, entity.AuditAttributes(), nil)
}

func (r *Recorder) write(userID *uint, entityType string, entityID uint, event string, oldValues, newValues map[string]any) {
	record := models.AuditRecord{
		AuditableType: entityType,
		AuditableID:   entityID,
		Event:         event,
		UserID:        userID,
	}
	var err error
	if record.OldValues, err = marshalValues(oldValues); err != nil {
		r.log.Warn("audit: encoding old values failed", "entity", entityType, "id", entityID, "error", err)
		return
	}
	if record.NewValues, err = marshalValues(newValues); err != nil {
		r.log.Warn("audit: encoding new values failed", "entity", entityType, "id", entityID, "error", err)
		return
	}
	if err := r.db.Create(&record).Error; err != nil {
		r.log.Warn("audit: recording failed", "entity", entityType, "id", entityID, "event", event, "error", err)
	}
}

func marshalValues(values map[string]any) (datatypes.JSON, error) {
	if len(values) == 0 {
		return nil, nil
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(buf), nil
}
