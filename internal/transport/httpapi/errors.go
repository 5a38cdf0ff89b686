package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leaf-health-bot/internal/domain/entity"
)

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusFor сопоставляет ошибку анализа с HTTP-статусом.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnknownPlant), errors.Is(err, entity.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrStageFailure), errors.Is(err, entity.ErrSegmentationFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Kind:    string(entity.KindOf(err)),
		Message: err.Error(),
	})
}
