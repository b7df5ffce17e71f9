// README: Driver/rep/supplier portal handlers for status updates and no-show evidence.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trafficdesk/internal/http/middleware"
	"trafficdesk/internal/modules/fieldstatus"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

type FieldHandler struct {
	field *fieldstatus.Service
}

func NewFieldHandler(field *fieldstatus.Service) *FieldHandler {
	return &FieldHandler{field: field}
}

type fieldStatusRequest struct {
	Status string `json:"status"`
	Lat    string `json:"lat"`
	Lng    string `json:"lng"`
}

// UpdateStatus serves both the driver and rep portals; the role comes from the
// route.
func (h *FieldHandler) UpdateStatus(role status.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fieldStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
			writeError(c, http.StatusBadRequest, "missing status")
			return
		}
		pos, ok := parsePoint(req.Lat, req.Lng)
		if !ok {
			writeError(c, http.StatusBadRequest, "gps coordinates must be numeric")
			return
		}
		err := h.field.UpdateStatus(c.Request.Context(), fieldstatus.UpdateStatusCommand{
			ActorUserID: types.ID(middleware.CallerUID(c)),
			JobID:       types.ID(c.Param("id")),
			Role:        role,
			NewStatus:   status.Status(req.Status),
			Position:    pos,
		})
		if err != nil {
			writeCoreError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
	}
}

type noShowRequest struct {
	Photo1 string `json:"photo1"`
	Photo2 string `json:"photo2"`
	Lat    string `json:"lat"`
	Lng    string `json:"lng"`
}

func (h *FieldHandler) SubmitNoShow(role status.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req noShowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		pos, ok := parsePoint(req.Lat, req.Lng)
		if !ok {
			writeError(c, http.StatusBadRequest, "gps coordinates must be numeric")
			return
		}
		err := h.field.SubmitNoShow(c.Request.Context(), fieldstatus.NoShowCommand{
			ActorUserID: types.ID(middleware.CallerUID(c)),
			JobID:       types.ID(c.Param("id")),
			Role:        role,
			Photo1:      req.Photo1,
			Photo2:      req.Photo2,
			Position:    pos,
		})
		if err != nil {
			writeCoreError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"status": status.StatusNoShow})
	}
}

type supplierStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *FieldHandler) UpdateSupplierStatus(c *gin.Context) {
	var req supplierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	err := h.field.UpdateSupplierStatus(c.Request.Context(), fieldstatus.SupplierCommand{
		ActorUserID: types.ID(middleware.CallerUID(c)),
		JobID:       types.ID(c.Param("id")),
		NewStatus:   status.Status(req.Status),
		Notes:       req.Notes,
	})
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
}

func parsePoint(lat, lng string) (types.Point, bool) {
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return types.Point{}, false
	}
	return types.Point{Lat: la, Lng: ln}, true
}
