package handler

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

// parseFilter reads trip filters from the query string.
// Values that fail to parse are treated as absent.
func parseFilter(c *gin.Context) models.TripFilter {
	return models.TripFilter{
		MinDuration:    queryInt(c, "minDuration"),
		MaxDuration:    queryInt(c, "maxDuration"),
		MinDistance:    queryFloat(c, "minDistance"),
		MaxDistance:    queryFloat(c, "maxDistance"),
		PickupHour:     queryInt(c, "pickupHour"),
		MinPassengers:  queryInt(c, "minPassengers"),
		PassengerCount: queryInt(c, "passengerCount"),
		StartDate:      queryString(c, "startDate"),
		EndDate:        queryString(c, "endDate"),
	}
}

// parseListOptions reads pagination and ordering. Normalization happens in
// the repository layer.
func parseListOptions(c *gin.Context) models.ListOptions {
	opts := models.ListOptions{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if v := queryInt(c, "page"); v != nil {
		opts.Page = *v
	}
	if v := queryInt(c, "limit"); v != nil {
		opts.Limit = *v
	}
	return opts
}

// parseBucketSize returns 0 when bucketSize is missing or invalid
func parseBucketSize(c *gin.Context) float64 {
	if v := queryFloat(c, "bucketSize"); v != nil {
		return *v
	}
	return 0
}

func queryString(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(c *gin.Context, key string) *int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func queryFloat(c *gin.Context, key string) *float64 {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
