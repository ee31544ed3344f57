// respond.go maps repository errors to HTTP status codes and the response
// envelope shared by every endpoint: {"success": true, ...} on success and
// {"success": false, "error": "..."} on failure. Unexpected store failures are
// logged server-side with the request ID and answered with a generic message
// so internal detail never reaches the client.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/middleware"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
)

// statusFor translates a repository sentinel into its HTTP status code.
// Unknown errors map to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrLinkUsed), errors.Is(err, repositories.ErrLinkExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope for err. Sentinel errors carry
// their own message to the client; anything else is logged and replaced with
// a generic one.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.RequestIDKey),
		)
		message = "internal server error"
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// respondErrorStatus writes the failure envelope with an explicit status and
// message, for routes whose status contract differs from the default mapping.
func respondErrorStatus(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
