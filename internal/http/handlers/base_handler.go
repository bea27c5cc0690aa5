// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/broker"
	"ridebroker/internal/modules/provider"
	"ridebroker/internal/modules/quote"
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

func writeBrokerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, broker.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, quote.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, provider.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, quote.ErrExpired):
		writeError(c, http.StatusGone, err.Error())
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, provider.ErrBookingUnsupported):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
