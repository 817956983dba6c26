// README: Search session handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightgo/internal/http/middleware"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/modules/search"
	"freightgo/internal/types"
)

type SearchHandler struct {
	search *search.Service
}

func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{search: svc}
}

type createSearchReq struct {
	PickupLat    float64  `json:"pickup_lat"`
	PickupLng    float64  `json:"pickup_lng"`
	DropoffLat   float64  `json:"dropoff_lat"`
	DropoffLng   float64  `json:"dropoff_lng"`
	WeightKg     float64  `json:"weight_kg"`
	VolumeM3     *float64 `json:"volume_m3"`
	VehicleClass string   `json:"vehicle_class"`
	Urgent       bool     `json:"urgent"`
	RadiusKm     float64  `json:"radius_km"`
}

func (h *SearchHandler) Create(c *gin.Context) {
	var req createSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, err := h.search.Create(c.Request.Context(), search.CreateCommand{
		ClientID:     middleware.CallerUID(c),
		Pickup:       types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:      types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		WeightKg:     req.WeightKg,
		VolumeM3:     req.VolumeM3,
		VehicleClass: pricing.VehicleClass(req.VehicleClass),
		Urgent:       req.Urgent,
		RadiusKm:     req.RadiusKm,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, sess)
}

func (h *SearchHandler) Refresh(c *gin.Context) {
	sess, err := h.search.Refresh(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

func (h *SearchHandler) Deactivate(c *gin.Context) {
	err := h.search.Deactivate(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"active": false})
}

func (h *SearchHandler) Get(c *gin.Context) {
	sess, err := h.search.Get(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}
