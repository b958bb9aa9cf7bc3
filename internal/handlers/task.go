package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/excel"
	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/validation"
)

const taskType = "Task"

var taskSortColumns = map[string]bool{
	"title": true, "status": true, "is_priority": true,
	"due_date": true, "created_at": true, "updated_at": true,
}

// ListTasks handles GET /tasks.
func (h *Handler) ListTasks(c *gin.Context) {
	if !h.authorize(c, "view tasks") {
		return
	}
	p := parseListParams(c)

	base := h.db.Model(&models.Task{})
	if projectID := c.Query("project_id"); projectID != "" {
		base = base.Where("project_id = ?", projectID)
	}
	if status := c.Query("status"); status != "" {
		base = base.Where("status = ?", status)
	}
	if priority := c.Query("is_priority"); priority != "" {
		base = base.Where("is_priority = ?", excel.Truthy(priority))
	}
	base = searchWhere(base, p.search, "title", "description")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		h.serverError(c, "listing tasks", err)
		return
	}
	var tasks []models.Task
	err := base.Session(&gorm.Session{}).
		Preload("Project").
		Order(p.order(taskSortColumns, "due_date asc")).
		Offset((p.page - 1) * p.perPage).
		Limit(p.perPage).
		Find(&tasks).Error
	if err != nil {
		h.serverError(c, "listing tasks", err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(tasks, p, total))
}

// CreateTask handles POST /tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	if !h.authorize(c, "create tasks") {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.TaskRules())
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	task := models.Task{
		ProjectID:   payload.Uint("project_id"),
		Title:       payload.String("title"),
		Description: payload.String("description"),
		Status:      models.TaskStatus(payload.String("status")),
		Metadata:    payload.JSON("metadata"),
		DueDate:     payload.Time("due_date"),
	}
	if payload.Has("is_priority") {
		task.IsPriority = payload.Bool("is_priority")
	}

	if err := h.db.Create(&task).Error; err != nil {
		h.serverError(c, "creating task", err)
		return
	}
	h.audit.Created(h.actorID(c), taskType, task.ID, &task)

	h.db.Preload("Project").First(&task, task.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

// GetTask handles GET /tasks/{token}.
func (h *Handler) GetTask(c *gin.Context) {
	if !h.authorize(c, "view tasks") {
		return
	}
	task, ok := h.findTask(c, "Project")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{token}.
func (h *Handler) UpdateTask(c *gin.Context) {
	if !h.authorize(c, "edit tasks") {
		return
	}
	task, ok := h.findTask(c)
	if !ok {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.TaskRules())
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	before := task.AuditAttributes()
	task.ProjectID = payload.Uint("project_id")
	task.Title = payload.String("title")
	task.Description = payload.String("description")
	task.Status = models.TaskStatus(payload.String("status"))
	if payload.Has("is_priority") {
		task.IsPriority = payload.Bool("is_priority")
	}
	if payload.Has("metadata") {
		task.Metadata = payload.JSON("metadata")
	}
	if payload.Has("due_date") {
		task.DueDate = payload.Time("due_date")
	}

	if err := h.db.Save(task).Error; err != nil {
		h.serverError(c, "updating task", err)
		return
	}
	h.audit.Updated(h.actorID(c), taskType, task.ID, before, task)

	h.db.Preload("Project").First(task, task.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// DeleteTask handles DELETE /tasks/{token}.
func (h *Handler) DeleteTask(c *gin.Context) {
	if !h.authorize(c, "delete tasks") {
		return
	}
	task, ok := h.findTask(c)
	if !ok {
		return
	}
	if err := h.db.Delete(task).Error; err != nil {
		h.serverError(c, "deleting task", err)
		return
	}
	h.audit.Deleted(h.actorID(c), taskType, task.ID, task)

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ProjectsForSelect handles GET /projects-for-select: active projects,
// name order, for dropdowns.
func (h *Handler) ProjectsForSelect(c *gin.Context) {
	if !h.authorize(c, "view projects") {
		return
	}
	var projects []models.Project
	err := h.db.Select("id", "uuid", "name", "category_id").
		Where("is_active = ?", true).
		Order("name").
		Find(&projects).Error
	if err != nil {
		h.serverError(c, "listing projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// TaskSubGet dispatches GET /tasks/{a}/{b}.
func (h *Handler) TaskSubGet(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "export" && action == "excel":
		if h.authorize(c, "export tasks") {
			h.exportExcel(c, excel.EntityTasks)
		}
	case first == "export" && action == "queue":
		if h.authorize(c, "export tasks") {
			h.queueExport(c, excel.EntityTasks)
		}
	case action == "audits":
		if !h.authorize(c, "view audits") {
			return
		}
		task, ok := h.findTaskToken(c, first)
		if !ok {
			return
		}
		h.respondAudits(c, taskType, task.ID)
	default:
		notFound(c, taskType)
	}
}

// TaskSubPost dispatches POST /tasks/import/{excel|queue}.
func (h *Handler) TaskSubPost(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "import" && action == "excel":
		if h.authorize(c, "import tasks") {
			h.importExcel(c, excel.EntityTasks)
		}
	case first == "import" && action == "queue":
		if h.authorize(c, "import tasks") {
			h.queueImport(c, excel.EntityTasks)
		}
	default:
		notFound(c, taskType)
	}
}

func (h *Handler) findTask(c *gin.Context, preloads ...string) (*models.Task, bool) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		notFound(c, taskType)
		return nil, false
	}
	q := h.db
	for _, preload := range preloads {
		q = q.Preload(preload)
	}
	var task models.Task
	if err := q.Where("uuid = ?", token).First(&task).Error; err != nil {
		notFound(c, taskType)
		return nil, false
	}
	return &task, true
}

func (h *Handler) findTaskToken(c *gin.Context, raw string) (*models.Task, bool) {
	token, err := uuid.Parse(raw)
	if err != nil {
		notFound(c, taskType)
		return nil, false
	}
	var task models.Task
	if err := h.db.Unscoped().Where("uuid = ?", token).First(&task).Error; err != nil {
		notFound(c, taskType)
		return nil, false
	}
	return &task, true
}
