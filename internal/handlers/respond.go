package handlers

import (
	"net/http"

	"practice-service/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto HTTP statuses so clients can
// tell a correctable request (400) from a missing resource (404), a closed
// time window (410), a terminal session (409) and an ownership mismatch (403).
func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindExpired:
		status = http.StatusGone
	case apperrors.KindCompleted:
		status = http.StatusConflict
	case apperrors.KindUnauthorized:
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Kind),
	})
}
