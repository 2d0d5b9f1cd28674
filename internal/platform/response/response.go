package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/punchly/service-loyalty/internal/platform/domain"
)

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Error maps a DomainError category to an HTTP status. Anything that is not a
// DomainError is reported generically so internals never leak to clients.
func Error(c *gin.Context, err error) {
	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		c.JSON(statusFor(domErr), gin.H{"error": domErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusFor(err *domain.DomainError) int {
	switch {
	case errors.Is(err.Err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err.Err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err.Err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err.Err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err.Err, domain.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
