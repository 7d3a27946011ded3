package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jengzang/taxi-trips-backend-go/internal/config"
	"github.com/jengzang/taxi-trips-backend-go/internal/handler"
	"github.com/jengzang/taxi-trips-backend-go/internal/metrics"
	"github.com/jengzang/taxi-trips-backend-go/internal/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Trips  *handler.TripHandler
	Stats  *handler.StatsHandler
	Data   *handler.DataHandler
	Health *handler.HealthHandler
}

// SetupRouter 设置路由. limiter may be nil to disable rate limiting.
func SetupRouter(cfg *config.Config, h Handlers, log zerolog.Logger, m *metrics.Metrics, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", h.Health.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API 路由组
	api := r.Group("/api")
	{
		// 行程查询
		api.GET("/trips", h.Trips.GetTrips)
		api.GET("/trips/:id", h.Trips.GetTripByID)

		// 统计与分布直方图
		stats := api.Group("/stats")
		{
			stats.GET("", h.Stats.GetStats)
			stats.GET("/duration-distribution", h.Stats.GetDurationDistribution)
			stats.GET("/distance-distribution", h.Stats.GetDistanceDistribution)
			stats.GET("/speed-distribution", h.Stats.GetSpeedDistribution)
		}

		// 数据导入与清理
		data := api.Group("/data")
		if limiter != nil {
			data.Use(limiter.Middleware())
		}
		{
			data.POST("/load", h.Data.LoadData)
			data.DELETE("/clear", h.Data.ClearData)
			data.GET("/loads", h.Data.GetLoadRuns)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
			"path":  c.Request.URL.Path,
		})
	})

	return r
}
