// checklists.go implements the checklist record endpoints: direct submission,
// listing, update, and deletion.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/models"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
	"github.com/checklist-rve/checklist-rve/internal/telemetry"
)

// ChecklistHandlers handles checklist record endpoints
type ChecklistHandlers struct {
	checklistRepo *repositories.ChecklistRepository
}

// NewChecklistHandlers creates a new ChecklistHandlers instance
func NewChecklistHandlers(checklistRepo *repositories.ChecklistRepository) *ChecklistHandlers {
	return &ChecklistHandlers{checklistRepo: checklistRepo}
}

// SubmitChecklistRequest represents a checklist submission body. Data carries
// the form fields as-is; the service does not interpret them.
type SubmitChecklistRequest struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data" binding:"required"`
	AutoSave bool           `json:"autoSave"`
}

// CreateHandler stores a directly submitted checklist
// POST /api/v1/checklists
func (h *ChecklistHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitChecklistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "checklist data is required")
			return
		}

		record, err := h.checklistRepo.Create(c.Request.Context(), repositories.NewChecklist{
			Type:     req.Type,
			Data:     req.Data,
			Source:   models.SourceDirect,
			AutoSave: req.AutoSave,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		telemetry.ChecklistSubmissionsTotal.WithLabelValues(record.Source, record.Type).Inc()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Checklist guardado exitosamente",
			"id":      record.ID,
		})
	}
}

// ListHandler returns every stored checklist, newest first
// GET /api/v1/checklists
func (h *ChecklistHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.checklistRepo.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"checklists": records,
			"count":      len(records),
		})
	}
}

// UpdateHandler overwrites the form data of an existing checklist
// PUT /api/v1/checklists/:id
func (h *ChecklistHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitChecklistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "checklist data is required")
			return
		}

		record, err := h.checklistRepo.Update(c.Request.Context(), c.Param("id"), req.Data, req.AutoSave)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Checklist actualizado exitosamente",
			"checklist": record,
		})
	}
}

// DeleteHandler removes a checklist record and its index entry
// DELETE /api/v1/checklists/:id
func (h *ChecklistHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.checklistRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Checklist eliminado exitosamente",
		})
	}
}
