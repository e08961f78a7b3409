package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pos-backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

// statusFor maps the service error taxonomy onto HTTP status codes. The
// handlers never inspect raw storage errors; services have already folded
// those into the taxonomy.
func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateUsername),
		errors.Is(err, apperr.ErrDuplicateRoleName),
		errors.Is(err, apperr.ErrRoleInUse),
		errors.Is(err, apperr.ErrPermissionInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// uintParam parses a numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
