package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// GetTrips handles GET /api/trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	filter := parseFilter(c)

	page, err := h.service.ListTrips(c.Request.Context(), filter, parseListOptions(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to fetch trips")
		return
	}

	response.Success(c, gin.H{
		"data":       page.Data,
		"pagination": page.Pagination,
		"filters":    filter,
	})
}

// GetTripByID handles GET /api/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	trip, err := h.service.GetTripByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to fetch trip")
		return
	}
	if trip == nil {
		response.NotFound(c, "Trip not found")
		return
	}

	response.Success(c, gin.H{"data": trip})
}
