// README: Dispatcher handlers: create/assign/status/lock/details.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trafficdesk/internal/http/middleware"
	"trafficdesk/internal/modules/job"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

type JobHandler struct {
	jobs *job.Service
}

func NewJobHandler(jobs *job.Service) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type createJobRequest struct {
	RefCode            string    `json:"ref_code"`
	ServiceDate        time.Time `json:"service_date"`
	ServiceType        string    `json:"service_type"`
	PaxAdults          int       `json:"pax_adults"`
	PaxChildren        int       `json:"pax_children"`
	OriginID           string    `json:"origin_id"`
	DestinationID      string    `json:"destination_id"`
	CollectionRequired bool      `json:"collection_required"`
	CustomerName       string    `json:"customer_name"`
	FlightNumber       string    `json:"flight_number"`
}

func (h *JobHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.jobs.Create(c.Request.Context(), job.CreateCommand{
		RefCode:            req.RefCode,
		ServiceDate:        req.ServiceDate,
		ServiceType:        job.ServiceType(req.ServiceType),
		PaxAdults:          req.PaxAdults,
		PaxChildren:        req.PaxChildren,
		OriginID:           types.ID(req.OriginID),
		DestinationID:      types.ID(req.DestinationID),
		CollectionRequired: req.CollectionRequired,
		CustomerName:       req.CustomerName,
		FlightNumber:       req.FlightNumber,
	})
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": id})
}

func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.jobs.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, j)
}

func (h *JobHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	err := h.jobs.SetStatus(c.Request.Context(), job.SetStatusCommand{
		JobID:       types.ID(c.Param("id")),
		ActorUserID: types.ID(middleware.CallerUID(c)),
		NewStatus:   status.Status(req.Status),
	})
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
}

type assignRequest struct {
	VehicleID string  `json:"vehicle_id"`
	DriverID  *string `json:"driver_id"`
	RepID     *string `json:"rep_id"`
}

func (h *JobHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd := job.AssignCommand{
		JobID:     types.ID(c.Param("id")),
		VehicleID: types.ID(req.VehicleID),
	}
	if req.DriverID != nil {
		d := types.ID(*req.DriverID)
		cmd.DriverID = &d
	}
	if req.RepID != nil {
		r := types.ID(*req.RepID)
		cmd.RepID = &r
	}
	id, err := h.jobs.Assign(c.Request.Context(), cmd)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"assignment_id": id})
}

func (h *JobHandler) Reassign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd := job.AssignCommand{
		JobID:     types.ID(c.Param("id")),
		VehicleID: types.ID(req.VehicleID),
	}
	if req.DriverID != nil {
		d := types.ID(*req.DriverID)
		cmd.DriverID = &d
	}
	if req.RepID != nil {
		r := types.ID(*req.RepID)
		cmd.RepID = &r
	}
	id, err := h.jobs.Reassign(c.Request.Context(), cmd)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"assignment_id": id})
}

type updateDetailsRequest struct {
	ServiceDate        *time.Time `json:"service_date"`
	ServiceType        *string    `json:"service_type"`
	PaxAdults          *int       `json:"pax_adults"`
	PaxChildren        *int       `json:"pax_children"`
	OriginID           *string    `json:"origin_id"`
	DestinationID      *string    `json:"destination_id"`
	CustomerName       *string    `json:"customer_name"`
	FlightNumber       *string    `json:"flight_number"`
	CollectionRequired *bool      `json:"collection_required"`
}

func (h *JobHandler) UpdateDetails(c *gin.Context) {
	var req updateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd := job.UpdateDetailsCommand{
		JobID:       types.ID(c.Param("id")),
		ActorUserID: types.ID(middleware.CallerUID(c)),
		ServiceDate: req.ServiceDate,
		PaxAdults:   req.PaxAdults,
		PaxChildren: req.PaxChildren,
		CustomerName: req.CustomerName,
		FlightNumber: req.FlightNumber,
		CollectionRequired: req.CollectionRequired,
	}
	if req.ServiceType != nil {
		st := job.ServiceType(*req.ServiceType)
		cmd.ServiceType = &st
	}
	if req.OriginID != nil {
		o := types.ID(*req.OriginID)
		cmd.OriginID = &o
	}
	if req.DestinationID != nil {
		d := types.ID(*req.DestinationID)
		cmd.DestinationID = &d
	}
	changed, err := h.jobs.UpdateDetails(c.Request.Context(), cmd)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"changed_fields": changed})
}

func (h *JobHandler) MarkCollectionCollected(c *gin.Context) {
	if err := h.jobs.MarkCollectionCollected(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"collection_collected": true})
}

type lockRequest struct {
	Role string `json:"role"`
}

func (h *JobHandler) Lock(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		writeError(c, http.StatusBadRequest, "missing role")
		return
	}
	if err := h.jobs.Lock(c.Request.Context(), types.ID(c.Param("id")), status.Role(req.Role)); err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"locked": true})
}

func (h *JobHandler) Unlock(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		writeError(c, http.StatusBadRequest, "missing role")
		return
	}
	err := h.jobs.Unlock(c.Request.Context(), types.ID(c.Param("id")), status.Role(req.Role), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeCoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"unlocked": true})
}
