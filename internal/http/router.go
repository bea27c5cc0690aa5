// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridebroker/internal/http/handlers"
	"ridebroker/internal/http/middleware"
	"ridebroker/internal/modules/broker"
)

type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(svc *broker.Service, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.Logging(log),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, log))

	providerHandler := handlers.NewProviderHandler(svc)
	api.GET("/providers", providerHandler.List)
	api.GET("/markets", providerHandler.Markets)

	quoteHandler := handlers.NewQuoteHandler(svc)
	api.POST("/quotes", quoteHandler.Create)

	bookingHandler := handlers.NewBookingHandler(svc)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	api.GET("/bookings/:id/events", bookingHandler.Events)
	api.GET("/trips/:tripId/bookings", bookingHandler.ListByTrip)

	return r
}
