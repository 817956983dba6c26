// README: Shared handler utilities; maps domain errors to HTTP statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/order"
	"freightgo/internal/modules/search"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, search.ErrBadRequest),
		errors.Is(err, order.ErrInvalidRating),
		errors.Is(err, geo.ErrInvalidCoordinates):
		writeError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, search.ErrSessionNotFound),
		errors.Is(err, fleet.ErrDriverNotFound),
		errors.Is(err, fleet.ErrVehicleNotFound),
		errors.Is(err, account.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrNotAssignedDriver):
		writeError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, search.ErrUnreachableRoute),
		errors.Is(err, order.ErrUnreachableRoute):
		writeError(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, order.ErrConflict),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrJobNotPending),
		errors.Is(err, order.ErrSessionInactive),
		errors.Is(err, order.ErrDriverVehicleMismatch),
		errors.Is(err, order.ErrDriverIncompatible),
		errors.Is(err, order.ErrNotDelivered),
		errors.Is(err, order.ErrAlreadyRated),
		errors.Is(err, search.ErrSessionInactive),
		errors.Is(err, fleet.ErrDriverUnavailable),
		errors.Is(err, fleet.ErrVehicleUnavailable):
		writeError(c, http.StatusConflict, err.Error())

	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
