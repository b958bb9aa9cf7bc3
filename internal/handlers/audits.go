package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/planora/internal/models"
)

// respondAudits lists an entity's audit history, newest first, with the
// acting user attached.
func (h *Handler) respondAudits(c *gin.Context, auditableType string, auditableID uint) {
	var records []models.AuditRecord
	err := h.db.Preload("User").
		Where("auditable_type = ? AND auditable_id = ?", auditableType, auditableID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		h.serverError(c, "loading audits", err)
		return
	}
	c.JSON(http.StatusOK, records)
}
