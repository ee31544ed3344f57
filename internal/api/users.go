// users.go implements the admin user-management endpoints. Responses carry
// the public account view; password hashes never leave the repository layer.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/models"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
)

// UserHandlers handles user management endpoints
type UserHandlers struct {
	userRepo *repositories.UserRepository
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(userRepo *repositories.UserRepository) *UserHandlers {
	return &UserHandlers{userRepo: userRepo}
}

// ListHandler lists all accounts
// GET /api/v1/users
func (h *UserHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.userRepo.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		public := make([]models.PublicUser, 0, len(users))
		for i := range users {
			public = append(public, users[i].Public())
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"users":   public,
			"count":   len(public),
		})
	}
}

// CreateUserRequest represents the admin account-creation body
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Name     string `json:"name"`
}

// CreateHandler creates an account on behalf of an administrator
// POST /api/v1/users
func (h *UserHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "email, password and role are required")
			return
		}

		user, err := h.userRepo.Register(c.Request.Context(), req.Email, req.Password, req.Role, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Usuario creado exitosamente",
			"user":    user.Public(),
		})
	}
}

// UpdateUserRequest represents the account update body; nil fields are left as is
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password"`
}

// UpdateHandler merges changes into an existing account
// PUT /api/v1/users/:email
func (h *UserHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := h.userRepo.Update(c.Request.Context(), c.Param("email"), repositories.UserUpdate{
			Name:        req.Name,
			Role:        req.Role,
			IsActive:    req.IsActive,
			NewPassword: req.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Usuario actualizado exitosamente",
			"user":    user.Public(),
		})
	}
}

// DeleteHandler removes an account and its index entry
// DELETE /api/v1/users/:email
func (h *UserHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.userRepo.Delete(c.Request.Context(), c.Param("email")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Usuario eliminado exitosamente",
		})
	}
}
