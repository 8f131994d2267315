package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/volumekit/volumed/internal/vfs"
)

// statusFor maps an engine error kind onto an HTTP status. Unknown errors
// are internal failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vfs.ErrTraversal):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrExists):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrNotDir), errors.Is(err, vfs.ErrIsDir):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrEncoding):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) abortWithError(c *gin.Context, err error) {
	if errors.Is(err, vfs.ErrTraversal) && h.metrics != nil {
		h.metrics.RecordTraversal()
	}
	c.JSON(statusFor(err), gin.H{
		"error":     err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
