package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/excel"
	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/validation"
)

const projectType = "Project"

var projectSortColumns = map[string]bool{
	"name": true, "description": true, "is_active": true,
	"start_date": true, "end_date": true, "created_at": true, "updated_at": true,
}

// ListProjects handles GET /projects.
func (h *Handler) ListProjects(c *gin.Context) {
	if !h.authorize(c, "view projects") {
		return
	}
	p := parseListParams(c)

	base := h.db.Model(&models.Project{})
	if categoryID := c.Query("category_id"); categoryID != "" {
		base = base.Where("category_id = ?", categoryID)
	}
	base = searchWhere(base, p.search, "name", "description")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		h.serverError(c, "listing projects", err)
		return
	}
	var projects []models.Project
	err := base.Session(&gorm.Session{}).
		Preload("Category").
		Order(p.order(projectSortColumns, "name asc")).
		Offset((p.page - 1) * p.perPage).
		Limit(p.perPage).
		Find(&projects).Error
	if err != nil {
		h.serverError(c, "listing projects", err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(projects, p, total))
}

// CreateProject handles POST /projects. The body may be multipart with an
// optional PDF document; the document rule runs before any storage write.
func (h *Handler) CreateProject(c *gin.Context) {
	if !h.authorize(c, "create projects") {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.ProjectRules())
	if errs == nil {
		errs = make(validation.Errors)
	}
	fh, _ := c.FormFile("document")
	if fh != nil {
		for field, messages := range validation.ValidateDocument(fh) {
			errs[field] = append(errs[field], messages...)
		}
	}
	if errs.Any() {
		validationFailed(c, errs)
		return
	}

	project := models.Project{
		CategoryID:  payload.Uint("category_id"),
		Name:        payload.String("name"),
		Description: payload.String("description"),
		IsActive:    true,
		Metadata:    payload.JSON("metadata"),
		StartDate:   payload.Time("start_date"),
		EndDate:     payload.Time("end_date"),
	}
	if payload.Has("is_active") {
		project.IsActive = payload.Bool("is_active")
	}

	if fh != nil {
		key, err := h.storeDocument(fh)
		if err != nil {
			h.serverError(c, "creating project", err)
			return
		}
		project.DocumentPath = &key
	}

	if err := h.db.Create(&project).Error; err != nil {
		h.serverError(c, "creating project", err)
		return
	}
	h.audit.Created(h.actorID(c), projectType, project.ID, &project)

	h.db.Preload("Category").First(&project, project.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"project": project,
	})
}

// GetProject handles GET /projects/{token}.
func (h *Handler) GetProject(c *gin.Context) {
	if !h.authorize(c, "view projects") {
		return
	}
	project, ok := h.findProject(c, "Category", "Tasks")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /projects/{token}. A newly uploaded document
// replaces the previous one, which is removed from storage.
func (h *Handler) UpdateProject(c *gin.Context) {
	if !h.authorize(c, "edit projects") {
		return
	}
	project, ok := h.findProject(c)
	if !ok {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.ProjectRules())
	if errs == nil {
		errs = make(validation.Errors)
	}
	fh, _ := c.FormFile("document")
	if fh != nil {
		for field, messages := range validation.ValidateDocument(fh) {
			errs[field] = append(errs[field], messages...)
		}
	}
	if errs.Any() {
		validationFailed(c, errs)
		return
	}

	before := project.AuditAttributes()
	project.CategoryID = payload.Uint("category_id")
	project.Name = payload.String("name")
	project.Description = payload.String("description")
	if payload.Has("is_active") {
		project.IsActive = payload.Bool("is_active")
	}
	if payload.Has("metadata") {
		project.Metadata = payload.JSON("metadata")
	}
	if payload.Has("start_date") {
		project.StartDate = payload.Time("start_date")
	}
	if payload.Has("end_date") {
		project.EndDate = payload.Time("end_date")
	}

	if fh != nil {
		if project.DocumentPath != nil {
			if err := h.store.Delete(*project.DocumentPath); err != nil {
				h.log.Warn("replacing document: old file removal failed", "path", *project.DocumentPath, "error", err)
			}
		}
		key, err := h.storeDocument(fh)
		if err != nil {
			h.serverError(c, "updating project", err)
			return
		}
		project.DocumentPath = &key
	}

	if err := h.db.Save(project).Error; err != nil {
		h.serverError(c, "updating project", err)
		return
	}
	h.audit.Updated(h.actorID(c), projectType, project.ID, before, project)

	h.db.Preload("Category").First(project, project.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully",
		"project": project,
	})
}

// DeleteProject handles DELETE /projects/{token}. The attached document is
// removed from storage as part of the same logical operation: if that
// fails, the delete fails and the record stays.
func (h *Handler) DeleteProject(c *gin.Context) {
	if !h.authorize(c, "delete projects") {
		return
	}
	project, ok := h.findProject(c)
	if !ok {
		return
	}
	if project.DocumentPath != nil {
		if err := h.store.Delete(*project.DocumentPath); err != nil {
			h.serverError(c, "deleting project", err)
			return
		}
	}
	if err := h.db.Delete(project).Error; err != nil {
		h.serverError(c, "deleting project", err)
		return
	}
	h.audit.Deleted(h.actorID(c), projectType, project.ID, project)

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// CategoriesForSelect handles GET /categories-for-select: active
// categories, name order, for dropdowns.
func (h *Handler) CategoriesForSelect(c *gin.Context) {
	if !h.authorize(c, "view categories") {
		return
	}
	var categories []models.Category
	err := h.db.Select("id", "uuid", "name").
		Where("is_active = ?", true).
		Order("name").
		Find(&categories).Error
	if err != nil {
		h.serverError(c, "listing categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ProjectSubGet dispatches GET /projects/{a}/{b}.
func (h *Handler) ProjectSubGet(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "export" && action == "excel":
		if h.authorize(c, "export projects") {
			h.exportExcel(c, excel.EntityProjects)
		}
	case first == "export" && action == "queue":
		if h.authorize(c, "export projects") {
			h.queueExport(c, excel.EntityProjects)
		}
	case action == "audits":
		if !h.authorize(c, "view audits") {
			return
		}
		project, ok := h.findProjectToken(c, first)
		if !ok {
			return
		}
		h.respondAudits(c, projectType, project.ID)
	default:
		notFound(c, projectType)
	}
}

// ProjectSubPost dispatches POST /projects/import/{excel|queue}.
func (h *Handler) ProjectSubPost(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "import" && action == "excel":
		if h.authorize(c, "import projects") {
			h.importExcel(c, excel.EntityProjects)
		}
	case first == "import" && action == "queue":
		if h.authorize(c, "import projects") {
			h.queueImport(c, excel.EntityProjects)
		}
	default:
		notFound(c, projectType)
	}
}

func (h *Handler) storeDocument(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.store.Put("documents", uuid.NewString()+".pdf", src)
}

func (h *Handler) findProject(c *gin.Context, preloads ...string) (*models.Project, bool) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		notFound(c, projectType)
		return nil, false
	}
	q := h.db
	for _, preload := range preloads {
		q = q.Preload(preload)
	}
	var project models.Project
	if err := q.Where("uuid = ?", token).First(&project).Error; err != nil {
		notFound(c, projectType)
		return nil, false
	}
	return &project, true
}

func (h *Handler) findProjectToken(c *gin.Context, raw string) (*models.Project, bool) {
	token, err := uuid.Parse(raw)
	if err != nil {
		notFound(c, projectType)
		return nil, false
	}
	var project models.Project
	if err := h.db.Unscoped().Where("uuid = ?", token).First(&project).Error; err != nil {
		notFound(c, projectType)
		return nil, false
	}
	return &project, true
}
