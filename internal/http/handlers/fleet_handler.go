// README: Fleet registration handlers for vehicles and driver states.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightgo/internal/http/middleware"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

type FleetHandler struct {
	fleet fleet.Store
}

func NewFleetHandler(store fleet.Store) *FleetHandler {
	return &FleetHandler{fleet: store}
}

type registerVehicleReq struct {
	ID           string  `json:"id"`
	Registration string  `json:"registration"`
	Class        string  `json:"class"`
	WeightCapT   float64 `json:"weight_cap_t"`
	VolumeCapM3  float64 `json:"volume_cap_m3"`
}

func (h *FleetHandler) RegisterVehicle(c *gin.Context) {
	var req registerVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	class := pricing.VehicleClass(req.Class)
	if req.ID == "" || !class.Known() || req.WeightCapT <= 0 {
		writeError(c, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	v := &fleet.Vehicle{
		ID:           types.ID(req.ID),
		OwnerID:      middleware.CallerUID(c),
		Registration: req.Registration,
		Class:        class,
		WeightCapT:   req.WeightCapT,
		VolumeCapM3:  req.VolumeCapM3,
		Available:    true,
	}
	if err := h.fleet.SaveVehicle(c.Request.Context(), v); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, v)
}

type registerDriverReq struct {
	VehicleID string `json:"vehicle_id"`
}

// RegisterDriver creates or rebinds the caller's driver state to a vehicle.
func (h *FleetHandler) RegisterDriver(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VehicleID != "" {
		if _, err := h.fleet.GetVehicle(c.Request.Context(), types.ID(req.VehicleID)); err != nil {
			writeDomainError(c, err)
			return
		}
	}
	d := &fleet.DriverState{
		ID:        middleware.CallerUID(c),
		VehicleID: types.ID(req.VehicleID),
		Available: true,
	}
	if err := h.fleet.SaveDriver(c.Request.Context(), d); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

func (h *FleetHandler) GetVehicle(c *gin.Context) {
	v, err := h.fleet.GetVehicle(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}
