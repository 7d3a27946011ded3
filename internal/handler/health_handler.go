package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/pkg/response"
)

// HealthHandler reports liveness of the API and its store
type HealthHandler struct {
	db    *database.DB
	trips *service.TripService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, trips *service.TripService) *HealthHandler {
	return &HealthHandler{db: db, trips: trips}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.Ping(ctx); err != nil {
		_ = c.Error(err)
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	count, err := h.trips.CountTrips(ctx, models.TripFilter{})
	if err != nil {
		_ = c.Error(err)
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	response.Success(c, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"trips":     count,
	})
}
