// Package excel implements the bulk transfer pipeline: spreadsheet export
// with fixed per-entity column schemas and header-keyed import with
// row-level validation.
package excel

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/storage"
)

const sheetName = "Sheet1"

// timeFormat is the cell encoding for all date columns.
const timeFormat = "2006-01-02 15:04:05"

// Entity names accepted by the pipeline.
const (
	EntityCategories = "categories"
	EntityProjects   = "projects"
	EntityTasks      = "tasks"
)

// ValidEntity reports whether the pipeline handles the entity type.
func ValidEntity(entity string) bool {
	switch entity {
	case EntityCategories, EntityProjects, EntityTasks:
		return true
	}
	return false
}

// Export renders the full current record set of the entity type as a
// workbook, relation names resolved. Soft-deleted records are excluded by
// the store's default read path.
func Export(db *gorm.DB, entity string) (*excelize.File, error) {
	switch entity {
	case EntityCategories:
		return exportCategories(db)
	case EntityProjects:
		return exportProjects(db)
	case EntityTasks:
		return exportTasks(db)
	}
	return nil, fmt.Errorf("unknown entity type %q", entity)
}

// ExportToStore renders the workbook on the caller's goroutine and writes
// it to the file store as exports/{entity}_{timestamp}.xlsx, returning the
// stored key.
func ExportToStore(db *gorm.DB, store *storage.Store, entity string) (string, error) {
	f, err := Export(db, entity)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.xlsx", entity, time.Now().Format("2006-01-02_15-04-05"))
	return store.Put("exports", name, &buf)
}

func exportCategories(db *gorm.DB) (*excelize.File, error) {
	var categories []models.Category
	if err := db.Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	headers := []any{"ID", "UUID", "Name", "Description", "Is Active", "Published At", "Created At", "Updated At"}
	rows := make([][]any, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []any{
			c.ID,
			c.UUID.String(),
			c.Name,
			c.Description,
			yesNo(c.IsActive),
			fmtTime(c.PublishedAt),
			c.CreatedAt.Format(timeFormat),
			c.UpdatedAt.Format(timeFormat),
		})
	}
	return build(headers, rows)
}

func exportProjects(db *gorm.DB) (*excelize.File, error) {
	var projects []models.Project
	if err := db.Preload("Category").Order("id").Find(&projects).Error; err != nil {
		return nil, err
	}
	headers := []any{"ID", "UUID", "Category", "Name", "Description", "Is Active", "Document Path", "Start Date", "End Date", "Created At", "Updated At"}
	rows := make([][]any, 0, len(projects))
	for _, p := range projects {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		document := ""
		if p.DocumentPath != nil {
			document = *p.DocumentPath
		}
		rows = append(rows, []any{
			p.ID,
			p.UUID.String(),
			category,
			p.Name,
			p.Description,
			yesNo(p.IsActive),
			document,
			fmtTime(p.StartDate),
			fmtTime(p.EndDate),
			p.CreatedAt.Format(timeFormat),
			p.UpdatedAt.Format(timeFormat),
		})
	}
	return build(headers, rows)
}

func exportTasks(db *gorm.DB) (*excelize.File, error) {
	var tasks []models.Task
	if err := db.Preload("Project.Category").Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	headers := []any{"ID", "UUID", "Project", "Category", "Title", "Description", "Status", "Is Priority", "Due Date", "Created At", "Updated At"}
	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		project, category := "", ""
		if t.Project != nil {
			project = t.Project.Name
			if t.Project.Category != nil {
				category = t.Project.Category.Name
			}
		}
		rows = append(rows, []any{
			t.ID,
			t.UUID.String(),
			project,
			category,
			t.Title,
			t.Description,
			string(t.Status),
			yesNo(t.IsPriority),
			fmtTime(t.DueDate),
			t.CreatedAt.Format(timeFormat),
			t.UpdatedAt.Format(timeFormat),
		})
	}
	return build(headers, rows)
}

func build(headers []any, rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeFormat)
}
