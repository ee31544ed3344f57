// auth.go implements the credential endpoints: login, self-service
// registration, and first-run admin initialization.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/auth"
	"github.com/checklist-rve/checklist-rve/internal/config"
	"github.com/checklist-rve/checklist-rve/internal/models"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
)

// AuthHandlers handles credential endpoints
type AuthHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, userRepo *repositories.UserRepository) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates an account and issues a session token
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := h.userRepo.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := auth.GenerateJWT(user.Email, user.Role, h.cfg.Auth.TokenTTL)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login exitoso",
			"token":   token,
			"user":    user.Public(),
		})
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Name     string `json:"name"`
}

// RegisterHandler creates a new account
// POST /api/v1/auth/register
func (h *AuthHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
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
			"message": "Usuario registrado exitosamente",
			"user":    user.Public(),
		})
	}
}

// InitAdminRequest represents the first-run admin initialization body
type InitAdminRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// InitAdminHandler creates the first administrator account. It answers 409
// when the email already exists, so re-running initialization is harmless.
// POST /api/v1/init-admin
func (h *AuthHandlers) InitAdminHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InitAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := h.userRepo.Register(c.Request.Context(), req.Email, req.Password, models.RoleAdmin, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Administrador creado exitosamente",
			"user":    user.Public(),
		})
	}
}
