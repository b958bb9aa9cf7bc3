// Package handlers implements the JSON API: per-entity CRUD, audit
// history, and the spreadsheet import/export endpoints. Every mutating
// flow runs gate check, then validation, then the store write; denials and
// invalid payloads never touch the database.
package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/audit"
	"github.com/kutbudev/planora/internal/auth"
	"github.com/kutbudev/planora/internal/queue"
	"github.com/kutbudev/planora/internal/storage"
	"github.com/kutbudev/planora/internal/validation"
)

// Handler carries the collaborators shared by every endpoint.
type Handler struct {
	db    *gorm.DB
	gate  *auth.Gate
	audit *audit.Recorder
	store *storage.Store
	queue *queue.Queue
	log   *slog.Logger
	debug bool
}

func New(db *gorm.DB, gate *auth.Gate, recorder *audit.Recorder, store *storage.Store, q *queue.Queue, log *slog.Logger, debug bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{db: db, gate: gate, audit: recorder, store: store, queue: q, log: log, debug: debug}
}

// authorize runs the access gate for the named action and ends the request
// with 403 on denial.
func (h *Handler) authorize(c *gin.Context, permission string) bool {
	if !h.gate.Can(auth.CurrentUser(c), permission) {
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
		return false
	}
	return true
}

// actorID returns the acting principal's id for audit records.
func (h *Handler) actorID(c *gin.Context) *uint {
	user := auth.CurrentUser(c)
	if user == nil {
		return nil
	}
	return &user.ID
}

// bindInput reads the raw request payload as a field map, from JSON or
// multipart form fields. Validation works on the raw map so that the rule
// tables see exactly what the client sent.
func bindInput(c *gin.Context) (map[string]any, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		input := make(map[string]any, len(form.Value))
		for field, values := range form.Value {
			if len(values) > 0 {
				input[field] = values[0]
			}
		}
		return input, nil
	}

	input := make(map[string]any)
	if err := c.ShouldBindJSON(&input); err != nil {
		if err == io.EOF {
			return input, nil
		}
		return nil, err
	}
	return input, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
}

func validationFailed(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

func notFound(c *gin.Context, entity string) {
	c.JSON(http.StatusNotFound, gin.H{"message": entity + " not found"})
}

// serverError answers 500. The underlying cause is always logged but only
// echoed to the client in debug mode.
func (h *Handler) serverError(c *gin.Context, action string, err error) {
	h.log.Error("request failed", "action", action, "error", err)
	message := "Error " + action
	if h.debug {
		message += ": " + err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// listParams are the common list query parameters.
type listParams struct {
	search    string
	sortBy    string
	sortOrder string
	page      int
	perPage   int
}

func parseListParams(c *gin.Context) listParams {
	p := listParams{
		search:    c.Query("search"),
		sortBy:    c.Query("sort_by"),
		sortOrder: strings.ToLower(c.Query("sort_order")),
		page:      atoiDefault(c.Query("page"), 1),
		perPage:   atoiDefault(c.Query("per_page"), 10),
	}
	if p.page < 1 {
		p.page = 1
	}
	if p.perPage < 1 || p.perPage > 100 {
		p.perPage = 10
	}
	if p.sortOrder != "desc" {
		p.sortOrder = "asc"
	}
	return p
}

// order resolves the sort clause against the entity's allowed columns,
// falling back to the per-entity default ordering.
func (p listParams) order(allowed map[string]bool, fallback string) string {
	if p.sortBy != "" && allowed[p.sortBy] {
		return p.sortBy + " " + p.sortOrder
	}
	return fallback
}

// searchWhere applies the case-insensitive OR-combined substring match.
func searchWhere(q *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" {
		return q
	}
	like := "%" + strings.ToLower(search) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = like
	}
	return q.Where(strings.Join(clauses, " OR "), args...)
}

// pageEnvelope is the paginated list response shape.
func pageEnvelope(data any, p listParams, total int64) gin.H {
	lastPage := (total + int64(p.perPage) - 1) / int64(p.perPage)
	if lastPage < 1 {
		lastPage = 1
	}
	return gin.H{
		"data":         data,
		"current_page": p.page,
		"per_page":     p.perPage,
		"total":        total,
		"last_page":    lastPage,
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
