package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for statistics
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *service.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	filter := parseFilter(c)

	overview, err := h.service.GetOverview(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to fetch statistics")
		return
	}

	response.Success(c, gin.H{
		"stats":              overview.Stats,
		"hourlyDistribution": overview.HourlyDistribution,
		"filters":            filter,
	})
}

// GetDurationDistribution handles GET /api/stats/duration-distribution
func (h *StatsHandler) GetDurationDistribution(c *gin.Context) {
	h.distribution(c, service.DurationDistribution)
}

// GetDistanceDistribution handles GET /api/stats/distance-distribution
func (h *StatsHandler) GetDistanceDistribution(c *gin.Context) {
	h.distribution(c, service.DistanceDistribution)
}

// GetSpeedDistribution handles GET /api/stats/speed-distribution
func (h *StatsHandler) GetSpeedDistribution(c *gin.Context) {
	h.distribution(c, service.SpeedDistribution)
}

func (h *StatsHandler) distribution(c *gin.Context, kind service.Distribution) {
	filter := parseFilter(c)

	buckets, size, err := h.service.GetDistribution(c.Request.Context(), kind, filter, parseBucketSize(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, "Failed to fetch "+string(kind)+" distribution")
		return
	}

	response.Success(c, gin.H{
		"distribution": buckets,
		"bucketSize":   size,
		"filters":      filter,
	})
}
