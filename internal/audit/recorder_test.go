package audit

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kutbudev/planora/internal/models"
)

// attrs is a minimal models.Auditable for exercising the recorder.
type attrs map[string]any

func (a attrs) AuditAttributes() map[string]any { return a }

func testRecorder(t *testing.T) (*Recorder, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditRecord{}))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecorder(db, log), db
}

func TestCreatedRecordsNewValues(t *testing.T) {
	r, db := testRecorder(t)
	actor := uint(7)

	r.Created(&actor, "Category", 1, attrs{"name": "Engineering"})

	var record models.AuditRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, models.AuditEventCreated, record.Event)
	assert.Equal(t, "Category", record.AuditableType)
	require.NotNil(t, record.UserID)
	assert.Equal(t, actor, *record.UserID)
	assert.Empty(t, record.OldValues)
	assert.JSONEq(t, `{"name":"Engineering"}`, string(record.NewValues))
}

func TestUpdatedRecordsOnlyChanges(t *testing.T) {
	r, db := testRecorder(t)

	before := map[string]any{"name": "Engineering", "is_active": true}
	r.Updated(nil, "Category", 1, before, attrs{"name": "Platform", "is_active": true})

	var record models.AuditRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, models.AuditEventUpdated, record.Event)
	assert.JSONEq(t, `{"name":"Engineering"}`, string(record.OldValues))
	assert.JSONEq(t, `{"name":"Platform"}`, string(record.NewValues))
}

func TestUpdatedSkipsNoopChanges(t *testing.T) {
	r, db := testRecorder(t)

	same := map[string]any{"name": "Engineering"}
	r.Updated(nil, "Category", 1, same, attrs(same))

	var count int64
	require.NoError(t, db.Model(&models.AuditRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeletedRecordsSnapshot(t *testing.T) {
	r, db := testRecorder(t)

	r.Deleted(nil, "Task", 4, attrs{"title": "Cut over"})

	var record models.AuditRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, models.AuditEventDeleted, record.Event)
	assert.JSONEq(t, `{"title":"Cut over"}`, string(record.OldValues))
	assert.Empty(t, record.NewValues)
}

func TestRecordingNeverPropagatesFailure(t *testing.T) {
	r, db := testRecorder(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditRecord{}))

	// Must not panic; the caller's operation is unaffected.
	r.Created(nil, "Category", 1, attrs{"name": "x"})
}
