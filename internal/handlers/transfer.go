package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kutbudev/planora/internal/excel"
	"github.com/kutbudev/planora/internal/queue"
	"github.com/kutbudev/planora/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// entityLabels maps a pipeline entity to its response wording.
var entityLabels = map[string][2]string{
	excel.EntityCategories: {"Category", "Categories"},
	excel.EntityProjects:   {"Project", "Projects"},
	excel.EntityTasks:      {"Task", "Tasks"},
}

// exportExcel renders the workbook inline and streams it as a download.
func (h *Handler) exportExcel(c *gin.Context, entity string) {
	f, err := excel.Export(h.db, entity)
	if err != nil {
		h.serverError(c, "exporting "+entity, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+entity+`.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("export download failed", "entity", entity, "error", err)
	}
}

// queueExport acknowledges immediately; the workbook is rendered by a
// worker and left in the file store.
func (h *Handler) queueExport(c *gin.Context, entity string) {
	if err := h.queue.Enqueue(queue.Job{Type: queue.JobExport, Entity: entity}); err != nil {
		h.serverError(c, "queuing "+entity+" export", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": entityLabels[entity][0] + " export queued successfully"})
}

// importExcel processes the uploaded spreadsheet on the request goroutine.
func (h *Handler) importExcel(c *gin.Context, entity string) {
	fh, err := c.FormFile("file")
	if err != nil {
		validationFailed(c, validation.ValidateImportFile(nil))
		return
	}
	if errs := validation.ValidateImportFile(fh); errs.Any() {
		validationFailed(c, errs)
		return
	}
	src, err := fh.Open()
	if err != nil {
		h.serverError(c, "importing "+entity, err)
		return
	}
	defer src.Close()
	if err := excel.ImportReader(h.db, h.log, entity, filepath.Ext(fh.Filename), src); err != nil {
		h.serverError(c, "importing "+entity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": entityLabels[entity][1] + " imported successfully"})
}

// queueImport persists the upload to temp storage and enqueues a job
// referencing that path; the worker deletes the temp file after processing.
func (h *Handler) queueImport(c *gin.Context, entity string) {
	fh, err := c.FormFile("file")
	if err != nil {
		validationFailed(c, validation.ValidateImportFile(nil))
		return
	}
	if errs := validation.ValidateImportFile(fh); errs.Any() {
		validationFailed(c, errs)
		return
	}
	src, err := fh.Open()
	if err != nil {
		h.serverError(c, "queuing "+entity+" import", err)
		return
	}
	defer src.Close()

	key, err := h.store.Put("imports", uuid.NewString()+filepath.Ext(fh.Filename), src)
	if err != nil {
		h.serverError(c, "queuing "+entity+" import", err)
		return
	}
	if err := h.queue.Enqueue(queue.Job{Type: queue.JobImport, Entity: entity, Path: key}); err != nil {
		// The job will never run, so the temp file is ours to clean up.
		if cleanupErr := h.store.Delete(key); cleanupErr != nil {
			h.log.Warn("import: temp file cleanup failed", "path", key, "error", cleanupErr)
		}
		h.serverError(c, "queuing "+entity+" import", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": entityLabels[entity][0] + " import queued successfully"})
}
