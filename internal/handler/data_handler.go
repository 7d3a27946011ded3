package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/pkg/response"
)

// DataHandler handles loading and clearing the trip store
type DataHandler struct {
	loader *service.LoadService
	trips  *service.TripService
}

// NewDataHandler creates a new data handler
func NewDataHandler(loader *service.LoadService, trips *service.TripService) *DataHandler {
	return &DataHandler{loader: loader, trips: trips}
}

// LoadData handles POST /api/data/load
func (h *DataHandler) LoadData(c *gin.Context) {
	result, err := h.loader.Load(c.Request.Context())
	if errors.Is(err, service.ErrLoadInProgress) {
		response.Conflict(c, err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"success": true,
		"message": "Data loaded successfully",
		"stats":   result,
	})
}

// ClearData handles DELETE /api/data/clear
func (h *DataHandler) ClearData(c *gin.Context) {
	deleted, err := h.trips.ClearTrips(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to clear database")
		return
	}

	response.Success(c, gin.H{
		"success":      true,
		"message":      "Database cleared successfully",
		"deletedCount": deleted,
	})
}

// GetLoadRuns handles GET /api/data/loads
func (h *DataHandler) GetLoadRuns(c *gin.Context) {
	limit := 0
	if v := queryInt(c, "limit"); v != nil {
		limit = *v
	}

	runs, err := h.loader.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to fetch load history")
		return
	}

	response.Success(c, gin.H{
		"data":    runs,
		"running": h.loader.Running(),
	})
}
