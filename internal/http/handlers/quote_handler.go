// README: Quote handler: aggregate, rank and explain provider quotes for a trip.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebroker/internal/modules/broker"
	"ridebroker/internal/modules/scoring"
	"ridebroker/internal/types"
)

type QuoteHandler struct {
	broker *broker.Service
}

func NewQuoteHandler(svc *broker.Service) *QuoteHandler {
	return &QuoteHandler{broker: svc}
}

type getQuotesReq struct {
	Pickup         *types.Point        `json:"pickup"`
	Dropoff        *types.Point        `json:"dropoff"`
	PickupAddress  string              `json:"pickupAddress"`
	DropoffAddress string              `json:"dropoffAddress"`
	Market         string              `json:"market"`
	Constraints    scoring.Constraints `json:"constraints"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req getQuotesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup == nil || req.Dropoff == nil {
		writeError(c, http.StatusBadRequest, "pickup and dropoff are required")
		return
	}
	res, err := h.broker.GetQuotes(c.Request.Context(), broker.QuoteCommand{
		Pickup:         *req.Pickup,
		Dropoff:        *req.Dropoff,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Market:         req.Market,
		Constraints:    req.Constraints,
	})
	if err != nil {
		writeBrokerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
