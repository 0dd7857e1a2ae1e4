package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/logger"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		validationErr *domain.ValidationError
		serviceErr    *domain.ServiceError
		loadErr       *compositor.ImageLoadError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationInProgress), errors.Is(err, domain.ErrStaleGeneration):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMemeNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message} with the mapped status.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), "Request failed: %v", err)
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
