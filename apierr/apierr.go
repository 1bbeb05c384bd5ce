// Package apierr contains the sentinel errors used across layers and the
// single place where they are mapped onto HTTP responses.
package apierr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAuthRequired indicates no valid principal on the request.
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden indicates a principal with insufficient role or
	// permission level.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the referenced entity, parent or user does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation or an illegal state
	// combination.
	ErrConflict = errors.New("conflict")
)

// FieldError is one field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of violations back to the caller.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Translate normalizes storage-layer errors into domain sentinels.
// Unique-constraint rejections become the same conflict the slug
// pre-check produces, so losing a check-then-insert race looks no
// different to the caller.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}

// Respond converts an error into its HTTP response. Domain errors map to
// client statuses; anything else is a storage failure: logged with
// context, answered with a generic message.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		logger.Error("operation failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
