// links.go implements the single-use link endpoints. Issuing requires a
// session; validation and resolution are public because the link token itself
// is the capability being checked.
//
// Status contract on the public routes:
//   - GET answers 404 for unknown or expired tokens and 410 for consumed ones,
//     so the form can tell "ask for a new link" apart from "already submitted".
//   - POST answers 400 for any token the submission cannot go through
//     (unknown, expired, or already consumed).
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/config"
	"github.com/checklist-rve/checklist-rve/internal/middleware"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
	"github.com/checklist-rve/checklist-rve/internal/telemetry"
)

// LinkHandlers handles single-use link endpoints
type LinkHandlers struct {
	cfg      *config.Config
	linkRepo *repositories.LinkRepository
}

// NewLinkHandlers creates a new LinkHandlers instance
func NewLinkHandlers(cfg *config.Config, linkRepo *repositories.LinkRepository) *LinkHandlers {
	return &LinkHandlers{
		cfg:      cfg,
		linkRepo: linkRepo,
	}
}

// IssueLinkRequest represents the link issuance body
type IssueLinkRequest struct {
	ChecklistType string         `json:"checklistType"`
	Metadata      map[string]any `json:"metadata"`
}

// publicURL builds the shareable form URL for a token.
func (h *LinkHandlers) publicURL(token string) string {
	return h.cfg.Server.GetPublicURL() + h.cfg.Links.PublicPath + "/" + token
}

// IssueHandler mints a fresh single-use link
// PUT /api/v1/links
func (h *LinkHandlers) IssueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IssueLinkRequest
		// An empty body is fine; the checklist type then defaults.
		_ = c.ShouldBindJSON(&req)

		createdBy := c.GetString(middleware.ContextEmailKey)
		link, err := h.linkRepo.Issue(c.Request.Context(), req.ChecklistType, createdBy, req.Metadata)
		if err != nil {
			respondError(c, err)
			return
		}

		telemetry.LinksIssuedTotal.Inc()

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Link generado exitosamente",
			"linkToken": link.Token,
			"url":       h.publicURL(link.Token),
			"expiresAt": link.ExpiresAt,
		})
	}
}

// ListActiveHandler returns every link still present in the active index
// GET /api/v1/links
func (h *LinkHandlers) ListActiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		links, err := h.linkRepo.ListActive(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"links":   links,
			"count":   len(links),
		})
	}
}

// ValidateHandler checks whether a token still accepts a submission
// GET /api/v1/links/:token
func (h *LinkHandlers) ValidateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := h.linkRepo.Validate(c.Request.Context(), c.Param("token"))
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrLinkUsed):
				telemetry.LinkRejectionsTotal.WithLabelValues("used").Inc()
				respondErrorStatus(c, http.StatusGone, "este link ya fue utilizado")
			case errors.Is(err, repositories.ErrLinkExpired):
				telemetry.LinkRejectionsTotal.WithLabelValues("expired").Inc()
				respondErrorStatus(c, http.StatusNotFound, "este link ha expirado")
			case errors.Is(err, repositories.ErrNotFound):
				telemetry.LinkRejectionsTotal.WithLabelValues("unknown").Inc()
				respondErrorStatus(c, http.StatusNotFound, "link no encontrado")
			default:
				respondError(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"linkData": link,
		})
	}
}

// ResolveSubmission represents a submission arriving through a link
type ResolveSubmission struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data" binding:"required"`
}

// ResolveHandler consumes a link and stores the submitted checklist. The
// consumption is atomic; under concurrent submissions exactly one wins.
// POST /api/v1/links/:token
func (h *LinkHandlers) ResolveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveSubmission
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorStatus(c, http.StatusBadRequest, "checklist data is required")
			return
		}

		record, err := h.linkRepo.Resolve(c.Request.Context(), c.Param("token"), req.Data, req.Type)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrLinkUsed):
				telemetry.LinkRejectionsTotal.WithLabelValues("used").Inc()
				respondErrorStatus(c, http.StatusBadRequest, "este link ya fue utilizado")
			case errors.Is(err, repositories.ErrLinkExpired):
				telemetry.LinkRejectionsTotal.WithLabelValues("expired").Inc()
				respondErrorStatus(c, http.StatusBadRequest, "este link ha expirado")
			case errors.Is(err, repositories.ErrNotFound):
				telemetry.LinkRejectionsTotal.WithLabelValues("unknown").Inc()
				respondErrorStatus(c, http.StatusBadRequest, "link no encontrado")
			default:
				respondError(c, err)
			}
			return
		}

		telemetry.LinksConsumedTotal.Inc()
		telemetry.ChecklistSubmissionsTotal.WithLabelValues(record.Source, record.Type).Inc()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Checklist guardado exitosamente",
			"id":      record.ID,
		})
	}
}
