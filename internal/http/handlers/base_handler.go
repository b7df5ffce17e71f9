// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trafficdesk/internal/modules/fieldstatus"
	"trafficdesk/internal/modules/job"
	"trafficdesk/internal/modules/notify"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/modules/timelock"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, statusCode int, v any) {
	c.JSON(statusCode, v)
}

func writeError(c *gin.Context, statusCode int, msg string) {
	writeJSON(c, statusCode, errorResponse{Error: msg})
}

// writeCoreError maps the lifecycle error taxonomy onto HTTP codes. Messages
// pass through unchanged so portal UIs can show why a call was rejected.
func writeCoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound), errors.Is(err, notify.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, fieldstatus.ErrForbidden), errors.Is(err, timelock.ErrLocked):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, job.ErrBadRequest), errors.Is(err, fieldstatus.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, status.ErrInvalidTransition), errors.Is(err, fieldstatus.ErrInvalidState), errors.Is(err, job.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
