// Package jobs executes queued bulk-transfer work on worker goroutines.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/excel"
	"github.com/kutbudev/planora/internal/queue"
	"github.com/kutbudev/planora/internal/storage"
)

// Runner resolves queued jobs against the database and file store.
type Runner struct {
	db    *gorm.DB
	store *storage.Store
	log   *slog.Logger
}

func NewRunner(db *gorm.DB, store *storage.Store, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{db: db, store: store, log: log}
}

// Run executes one job. Export jobs render the workbook and leave it in the
// file store; import jobs process the uploaded temp file and delete it
// afterwards whether or not the import succeeded.
func (r *Runner) Run(ctx context.Context, job queue.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch job.Type {
	case queue.JobExport:
		key, err := excel.ExportToStore(r.db, r.store, job.Entity)
		if err != nil {
			return err
		}
		r.log.Info("queued export completed", "entity", job.Entity, "file", key)
		return nil
	case queue.JobImport:
		defer func() {
			if err := r.store.Delete(job.Path); err != nil {
				r.log.Warn("import: temp file cleanup failed", "path", job.Path, "error", err)
			}
		}()
		if err := excel.Import(r.db, r.log, job.Entity, r.store.Path(job.Path)); err != nil {
			return err
		}
		r.log.Info("queued import completed", "entity", job.Entity, "file", job.Path)
		return nil
	}
	return fmt.Errorf("unknown job type %q", job.Type)
}
