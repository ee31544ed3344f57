// types.go implements the checklist type catalog endpoints. The first read
// seeds the built-in catalog, so the frontend always has something to render.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/models"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
)

// TypeHandlers handles checklist type catalog endpoints
type TypeHandlers struct {
	typeRepo *repositories.TypeRepository
}

// NewTypeHandlers creates a new TypeHandlers instance
func NewTypeHandlers(typeRepo *repositories.TypeRepository) *TypeHandlers {
	return &TypeHandlers{typeRepo: typeRepo}
}

// ListHandler returns the full type catalog, seeding it if empty
// GET /api/v1/checklist-types
func (h *TypeHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := h.typeRepo.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"types":   types,
		})
	}
}

// CreateTypeRequest represents the type creation body
type CreateTypeRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
}

// CreateHandler appends a new type descriptor to the catalog
// POST /api/v1/checklist-types
func (h *TypeHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTypeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "id, name and description are required")
			return
		}

		created, err := h.typeRepo.Create(c.Request.Context(), models.ChecklistType{
			ID:          req.ID,
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			IsActive:    true,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Tipo de checklist creado exitosamente",
			"type":    created,
		})
	}
}

// UpdateTypeRequest represents the type update body; nil fields are left as is
type UpdateTypeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"isActive"`
}

// UpdateHandler merges changes into an existing type descriptor
// PUT /api/v1/checklist-types/:id
func (h *TypeHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateTypeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := h.typeRepo.Update(c.Request.Context(), c.Param("id"), repositories.TypeUpdate{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			IsActive:    req.IsActive,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Tipo de checklist actualizado exitosamente",
			"type":    updated,
		})
	}
}
