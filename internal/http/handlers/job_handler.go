// README: Transport job lifecycle handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightgo/internal/http/middleware"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/order"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

type JobHandler struct {
	orders *order.Service
}

func NewJobHandler(svc *order.Service) *JobHandler {
	return &JobHandler{orders: svc}
}

type createFromSearchReq struct {
	SessionID string `json:"session_id"`
	VehicleID string `json:"vehicle_id"`
	DriverID  string `json:"driver_id"`
}

func (h *JobHandler) CreateFromSearch(c *gin.Context) {
	var req createFromSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.VehicleID == "" || req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	j, err := h.orders.CreateFromSearch(c.Request.Context(), order.CreateFromSearchCommand{
		SessionID: types.ID(req.SessionID),
		VehicleID: types.ID(req.VehicleID),
		DriverID:  types.ID(req.DriverID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, j)
}

type createDirectReq struct {
	PickupLat    float64  `json:"pickup_lat"`
	PickupLng    float64  `json:"pickup_lng"`
	DropoffLat   float64  `json:"dropoff_lat"`
	DropoffLng   float64  `json:"dropoff_lng"`
	WeightKg     float64  `json:"weight_kg"`
	VolumeM3     *float64 `json:"volume_m3"`
	VehicleClass string   `json:"vehicle_class"`
	Urgent       bool     `json:"urgent"`
	Description  string   `json:"description"`
}

func (h *JobHandler) CreateDirect(c *gin.Context) {
	var req createDirectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	j, err := h.orders.CreateDirect(c.Request.Context(), order.CreateDirectCommand{
		ClientID:     middleware.CallerUID(c),
		Pickup:       types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:      types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		WeightKg:     req.WeightKg,
		VolumeM3:     req.VolumeM3,
		VehicleClass: pricing.VehicleClass(req.VehicleClass),
		Urgent:       req.Urgent,
		Description:  req.Description,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, j)
}

func (h *JobHandler) Accept(c *gin.Context) {
	err := h.orders.Accept(c.Request.Context(), order.AcceptCommand{
		JobID:    types.ID(c.Param("id")),
		DriverID: middleware.CallerUID(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusAccepted})
}

type refuseReq struct {
	Reason string `json:"reason"`
}

func (h *JobHandler) Refuse(c *gin.Context) {
	var req refuseReq
	_ = c.ShouldBindJSON(&req)
	err := h.orders.Refuse(c.Request.Context(), order.RefuseCommand{
		JobID:    types.ID(c.Param("id")),
		DriverID: middleware.CallerUID(c),
		Reason:   req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"refused": true})
}

type changeStatusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *JobHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	uid := middleware.CallerUID(c)
	err := h.orders.ChangeStatus(c.Request.Context(), order.ChangeStatusCommand{
		JobID:     types.ID(c.Param("id")),
		To:        order.Status(req.Status),
		ActorType: middleware.CallerRole(c),
		ActorID:   &uid,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
}

type evaluateReq struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

func (h *JobHandler) Evaluate(c *gin.Context) {
	var req evaluateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.orders.Evaluate(c.Request.Context(), order.EvaluateCommand{
		JobID:     types.ID(c.Param("id")),
		RaterRole: account.Role(middleware.CallerRole(c)),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rated": true})
}

func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, j)
}

func (h *JobHandler) Events(c *gin.Context) {
	events, err := h.orders.Events(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, events)
}

// ListMine returns the caller's jobs; drivers see assigned jobs, everyone
// else their own orders.
func (h *JobHandler) ListMine(c *gin.Context) {
	uid := middleware.CallerUID(c)
	var (
		jobs []*order.TransportJob
		err  error
	)
	if middleware.CallerRole(c) == string(account.RoleDriver) {
		jobs, err = h.orders.ListByDriver(c.Request.Context(), uid)
	} else {
		jobs, err = h.orders.ListByClient(c.Request.Context(), uid)
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, jobs)
}

func (h *JobHandler) ListByStatus(c *gin.Context) {
	jobs, err := h.orders.ListByStatus(c.Request.Context(), order.Status(c.Param("status")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, jobs)
}
