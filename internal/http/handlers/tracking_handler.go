// README: Tracking and driver presence handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freightgo/internal/http/middleware"
	"freightgo/internal/ingest"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/tracking"
	"freightgo/internal/types"
)

type TrackingHandler struct {
	tracking  *tracking.Service
	positions ingest.Publisher // nil when no Kafka brokers are configured
}

func NewTrackingHandler(svc *tracking.Service, positions ingest.Publisher) *TrackingHandler {
	return &TrackingHandler{tracking: svc, positions: positions}
}

type positionReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdatePosition routes a driver position sample. With a Kafka pipeline
// configured the sample goes through the broker and the consumer binary
// applies it; without one it is applied in-process.
func (h *TrackingHandler) UpdatePosition(c *gin.Context) {
	var req positionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pos := types.Point{Lat: req.Lat, Lng: req.Lng}
	if !pos.Valid() {
		writeDomainError(c, geo.ErrInvalidCoordinates)
		return
	}
	if h.positions != nil {
		err := h.positions.Publish(c.Request.Context(), ingest.PositionEvent{
			DriverID:   middleware.CallerUID(c),
			Lat:        req.Lat,
			Lng:        req.Lng,
			RecordedAt: time.Now().UTC(),
		})
		if err != nil {
			writeError(c, http.StatusServiceUnavailable, "position pipeline unavailable")
			return
		}
		writeJSON(c, http.StatusAccepted, gin.H{"queued": true})
		return
	}
	err := h.tracking.UpdatePosition(c.Request.Context(), middleware.CallerUID(c), pos)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"updated": true})
}

type onlineReq struct {
	Online bool `json:"online"`
}

func (h *TrackingHandler) SetOnline(c *gin.Context) {
	var req onlineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.tracking.SetOnline(c.Request.Context(), middleware.CallerUID(c), req.Online); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"online": req.Online})
}

func (h *TrackingHandler) Snapshot(c *gin.Context) {
	snap, err := h.tracking.Snapshot(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

type stepReq struct {
	Note string `json:"note"`
}

func (h *TrackingHandler) AddStep(c *gin.Context) {
	var req stepReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Note == "" {
		writeError(c, http.StatusBadRequest, "missing note")
		return
	}
	err := h.tracking.AddStep(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c), req.Note)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"recorded": true})
}
