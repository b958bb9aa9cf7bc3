package excel

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/models"
)

// Import reads a spreadsheet from path and creates one entity per valid
// row. Rows failing validation are skipped and logged; one bad row never
// aborts the batch, and no per-row error detail is reported back.
func Import(db *gorm.DB, log *slog.Logger, entity, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ImportReader(db, log, entity, filepath.Ext(path), f)
}

// ImportReader is Import over an already-open stream; ext selects the
// decoder (".csv" or an excelize-readable workbook).
func ImportReader(db *gorm.DB, log *slog.Logger, entity, ext string, r io.Reader) error {
	if log == nil {
		log = slog.Default()
	}
	rows, err := readRows(ext, r)
	if err != nil {
		return err
	}
	importRow, err := rowImporter(entity)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := importRow(db, row); err != nil {
			// Row-level isolation: skip and continue.
			log.Warn("import: skipping row", "entity", entity, "row", i+2, "reason", err)
		}
	}
	return nil
}

type rowFunc func(db *gorm.DB, row map[string]string) error

func rowImporter(entity string) (rowFunc, error) {
	switch entity {
	case EntityCategories:
		return importCategoryRow, nil
	case EntityProjects:
		return importProjectRow, nil
	case EntityTasks:
		return importTaskRow, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entity)
}

// readRows decodes the sheet into header-keyed row maps. The first row is
// the heading row; headings are normalized ("Is Active" -> "is_active").
// The decoder is picked by extension: csv, legacy BIFF workbooks (.xls),
// or OOXML via excelize.
func readRows(ext string, r io.Reader) ([]map[string]string, error) {
	var raw [][]string
	switch {
	case strings.EqualFold(ext, ".csv"):
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return nil, err
		}
		raw = records
	case strings.EqualFold(ext, ".xls"):
		records, err := readLegacyRows(r)
		if err != nil {
			return nil, err
		}
		raw = records
	default:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		raw, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, err
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, record := range raw[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// biffMaxRows is the row limit of a BIFF8 worksheet.
const biffMaxRows = 65536

func readLegacyRows(r io.Reader) ([][]string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	wb, err := xls.OpenReader(bytes.NewReader(buf), "utf-8")
	if err != nil {
		return nil, err
	}
	return wb.ReadAllCells(biffMaxRows), nil
}

func importCategoryRow(db *gorm.DB, row map[string]string) error {
	if row["name"] == "" {
		return fmt.Errorf("name is required")
	}
	publishedAt, err := cellTime(row["published_at"])
	if err != nil {
		return fmt.Errorf("published_at: %w", err)
	}
	category := models.Category{
		Name:        row["name"],
		Description: row["description"],
		IsActive:    Truthy(row["is_active"]),
		Metadata:    importMetadata(),
		PublishedAt: publishedAt,
	}
	return db.Create(&category).Error
}

func importProjectRow(db *gorm.DB, row map[string]string) error {
	if row["name"] == "" {
		return fmt.Errorf("name is required")
	}
	var category models.Category
	if err := db.Where("name = ?", row["category"]).First(&category).Error; err != nil {
		return fmt.Errorf("category %q not found", row["category"])
	}
	startDate, err := cellTime(row["start_date"])
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	endDate, err := cellTime(row["end_date"])
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	project := models.Project{
		CategoryID:  category.ID,
		Name:        row["name"],
		Description: row["description"],
		IsActive:    Truthy(row["is_active"]),
		Metadata:    importMetadata(),
		StartDate:   startDate,
		EndDate:     endDate,
	}
	return db.Create(&project).Error
}

func importTaskRow(db *gorm.DB, row map[string]string) error {
	if row["title"] == "" {
		return fmt.Errorf("title is required")
	}
	var project models.Project
	if err := db.Where("name = ?", row["project"]).First(&project).Error; err != nil {
		return fmt.Errorf("project %q not found", row["project"])
	}
	status := row["status"]
	if status == "" {
		status = string(models.TaskStatusPending)
	}
	if !validStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	dueDate, err := cellTime(row["due_date"])
	if err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	task := models.Task{
		ProjectID:   project.ID,
		Title:       row["title"],
		Description: row["description"],
		Status:      models.TaskStatus(status),
		IsPriority:  Truthy(row["is_priority"]),
		Metadata:    importMetadata(),
		DueDate:     dueDate,
	}
	return db.Create(&task).Error
}

// Truthy maps the textual boolean encodings spreadsheets carry: yes/1/true
// (case-insensitive) are true, anything else is false.
func Truthy(cell string) bool {
	switch strings.ToLower(cell) {
	case "yes", "1", "true":
		return true
	}
	return false
}

func validStatus(status string) bool {
	for _, s := range models.TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// importMetadata tags a record as machine-imported.
func importMetadata() datatypes.JSON {
	buf, _ := json.Marshal(map[string]any{
		"imported":    true,
		"import_date": time.Now().Format(timeFormat),
	})
	return datatypes.JSON(buf)
}

var cellLayouts = []string{timeFormat, "2006-01-02", time.RFC3339}

func cellTime(cell string) (*time.Time, error) {
	if cell == "" {
		return nil, nil
	}
	for _, layout := range cellLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", cell)
}
