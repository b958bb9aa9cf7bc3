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

const categoryType = "Category"

var categorySortColumns = map[string]bool{
	"name": true, "description": true, "is_active": true,
	"published_at": true, "created_at": true, "updated_at": true,
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	if !h.authorize(c, "view categories") {
		return
	}
	p := parseListParams(c)

	base := searchWhere(h.db.Model(&models.Category{}), p.search, "name", "description")

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		h.serverError(c, "listing categories", err)
		return
	}
	var categories []models.Category
	err := base.Session(&gorm.Session{}).
		Order(p.order(categorySortColumns, "name asc")).
		Offset((p.page - 1) * p.perPage).
		Limit(p.perPage).
		Find(&categories).Error
	if err != nil {
		h.serverError(c, "listing categories", err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(categories, p, total))
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(c *gin.Context) {
	if !h.authorize(c, "create categories") {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.CategoryRules())
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	category := models.Category{
		Name:        payload.String("name"),
		Description: payload.String("description"),
		IsActive:    true,
		Metadata:    payload.JSON("metadata"),
		PublishedAt: payload.Time("published_at"),
	}
	if payload.Has("is_active") {
		category.IsActive = payload.Bool("is_active")
	}

	if err := h.db.Create(&category).Error; err != nil {
		h.serverError(c, "creating category", err)
		return
	}
	h.audit.Created(h.actorID(c), categoryType, category.ID, &category)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": category,
	})
}

// GetCategory handles GET /categories/{token}.
func (h *Handler) GetCategory(c *gin.Context) {
	if !h.authorize(c, "view categories") {
		return
	}
	category, ok := h.findCategory(c, "Projects")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory handles PUT /categories/{token}.
func (h *Handler) UpdateCategory(c *gin.Context) {
	if !h.authorize(c, "edit categories") {
		return
	}
	category, ok := h.findCategory(c)
	if !ok {
		return
	}
	input, err := bindInput(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	payload, errs := validation.Validate(h.db, input, validation.CategoryRules())
	if errs != nil {
		validationFailed(c, errs)
		return
	}

	before := category.AuditAttributes()
	category.Name = payload.String("name")
	category.Description = payload.String("description")
	if payload.Has("is_active") {
		category.IsActive = payload.Bool("is_active")
	}
	if payload.Has("metadata") {
		category.Metadata = payload.JSON("metadata")
	}
	if payload.Has("published_at") {
		category.PublishedAt = payload.Time("published_at")
	}

	if err := h.db.Save(category).Error; err != nil {
		h.serverError(c, "updating category", err)
		return
	}
	h.audit.Updated(h.actorID(c), categoryType, category.ID, before, category)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// DeleteCategory handles DELETE /categories/{token}. The delete is soft:
// the record is hidden from normal queries but retained for audit history.
func (h *Handler) DeleteCategory(c *gin.Context) {
	if !h.authorize(c, "delete categories") {
		return
	}
	category, ok := h.findCategory(c)
	if !ok {
		return
	}
	if err := h.db.Delete(category).Error; err != nil {
		h.serverError(c, "deleting category", err)
		return
	}
	h.audit.Deleted(h.actorID(c), categoryType, category.ID, category)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// CategorySubGet dispatches GET /categories/{a}/{b}: export/excel,
// export/queue and {token}/audits share the two-segment shape.
func (h *Handler) CategorySubGet(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "export" && action == "excel":
		if h.authorize(c, "export categories") {
			h.exportExcel(c, excel.EntityCategories)
		}
	case first == "export" && action == "queue":
		if h.authorize(c, "export categories") {
			h.queueExport(c, excel.EntityCategories)
		}
	case action == "audits":
		if !h.authorize(c, "view audits") {
			return
		}
		category, ok := h.findCategoryToken(c, first)
		if !ok {
			return
		}
		h.respondAudits(c, categoryType, category.ID)
	default:
		notFound(c, categoryType)
	}
}

// CategorySubPost dispatches POST /categories/import/{excel|queue}.
func (h *Handler) CategorySubPost(c *gin.Context) {
	first, action := c.Param("uuid"), c.Param("action")
	switch {
	case first == "import" && action == "excel":
		if h.authorize(c, "import categories") {
			h.importExcel(c, excel.EntityCategories)
		}
	case first == "import" && action == "queue":
		if h.authorize(c, "import categories") {
			h.queueImport(c, excel.EntityCategories)
		}
	default:
		notFound(c, categoryType)
	}
}

func (h *Handler) findCategory(c *gin.Context, preloads ...string) (*models.Category, bool) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		notFound(c, categoryType)
		return nil, false
	}
	q := h.db
	for _, preload := range preloads {
		q = q.Preload(preload)
	}
	var category models.Category
	if err := q.Where("uuid = ?", token).First(&category).Error; err != nil {
		notFound(c, categoryType)
		return nil, false
	}
	return &category, true
}

// findCategoryToken resolves an audits lookup. Unscoped: a soft-deleted
// category keeps its audit history reachable.
func (h *Handler) findCategoryToken(c *gin.Context, raw string) (*models.Category, bool) {
	token, err := uuid.Parse(raw)
	if err != nil {
		notFound(c, categoryType)
		return nil, false
	}
	var category models.Category
	if err := h.db.Unscoped().Where("uuid = ?", token).First(&category).Error; err != nil {
		notFound(c, categoryType)
		return nil, false
	}
	return &category, true
}
