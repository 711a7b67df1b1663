package api

import (
	"errors"
	"net/http"

	"districtrisk/domain/core"
	"districtrisk/internal"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error to the HTTP status of its kind.
func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsBadRequestError(err):
		return http.StatusBadRequest
	case core.IsScoringError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDataLoad):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "code"} with the status of the error's kind.
func respondError(c *gin.Context, err error) {
	kind := core.Kind(err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		internal.DefaultLogger.Error("[API] %s %s (request %s): %v", c.Request.Method, c.Request.URL.Path, c.GetString(requestIDKey), err)
	} else {
		internal.DefaultLogger.Debug("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  kind,
	})
}
