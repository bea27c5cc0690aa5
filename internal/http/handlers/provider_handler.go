// README: Catalogue handlers for providers and markets.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebroker/internal/modules/broker"
)

type ProviderHandler struct {
	broker *broker.Service
}

func NewProviderHandler(svc *broker.Service) *ProviderHandler {
	return &ProviderHandler{broker: svc}
}

func (h *ProviderHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"providers": h.broker.ListProviders()})
}

func (h *ProviderHandler) Markets(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"markets": h.broker.ListMarkets()})
}
