package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-companion/internal/ai"
	"study-companion/internal/service"
)

type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Code: status, Message: msg, RequestID: c.GetString(requestIDKey)})
}

// fail maps service and provider errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	var providerErr *ai.ProviderError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, service.ErrStopped):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &providerErr):
		writeError(c, http.StatusBadGateway, providerErr.Error())
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
