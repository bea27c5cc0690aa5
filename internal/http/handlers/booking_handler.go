// README: Booking handlers for request/status/cancel/history.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/broker"
	"ridebroker/internal/types"
)

type BookingHandler struct {
	broker *broker.Service
}

func NewBookingHandler(svc *broker.Service) *BookingHandler {
	return &BookingHandler{broker: svc}
}

type requestRideReq struct {
	QuoteID        string `json:"quoteId"`
	PassengerName  string `json:"passengerName"`
	PassengerPhone string `json:"passengerPhone"`
	Notes          string `json:"notes"`
	TripID         string `json:"tripId"`
	StepIndex      *int   `json:"stepIndex"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.broker.RequestRide(c.Request.Context(), booking.RideRequest{
		QuoteID:        types.ID(req.QuoteID),
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		Notes:          req.Notes,
		TripID:         req.TripID,
		StepIndex:      req.StepIndex,
	})
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.broker.GetBookingStatus(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// Cancel accepts an empty body; the reason is optional.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	if body := c.Request.Body; body != nil && body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	b, err := h.broker.CancelBooking(c.Request.Context(), broker.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Events(c *gin.Context) {
	events, err := h.broker.BookingEvents(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	if events == nil {
		events = []booking.Event{}
	}
	writeJSON(c, http.StatusOK, gin.H{"events": events})
}

func (h *BookingHandler) ListByTrip(c *gin.Context) {
	list, err := h.broker.ListBookings(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}
