package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/taxi-trips-backend-go/internal/config"
	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/handler"
	"github.com/jengzang/taxi-trips-backend-go/internal/metrics"
	"github.com/jengzang/taxi-trips-backend-go/internal/middleware"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
	"github.com/jengzang/taxi-trips-backend-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const csvHeader = "id,vendor_id,pickup_datetime,dropoff_datetime,passenger_count,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,store_and_fwd_flag,trip_duration\n"

func trip(id string, hour, duration, passengers int) string {
	return fmt.Sprintf("%s,1,2016-01-01 %02d:00:00,2016-01-01 %02d:10:00,%d,-73.98,40.75,-73.97,40.76,N,%d\n",
		id, hour, hour, passengers, duration)
}

func newTestRouter(t *testing.T, body string, rateLimit int) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(src, []byte(body), 0o644))

	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(dir, "trips.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m, err := metrics.New()
	require.NoError(t, err)

	tripRepo := repository.NewTripRepository(db)
	trips := service.NewTripService(tripRepo)
	stats := service.NewStatsService(repository.NewStatsRepository(db))
	loader := service.NewLoadService(tripRepo, repository.NewLoadRunRepository(db), m, zerolog.Nop(),
		service.LoadConfig{SourcePath: src, BatchSize: 2})

	limiter := middleware.NewRateLimiter(rateLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	cfg := &config.Config{CORSOrigin: "*"}
	h := Handlers{
		Trips:  handler.NewTripHandler(trips),
		Stats:  handler.NewStatsHandler(stats),
		Data:   handler.NewDataHandler(loader, trips),
		Health: handler.NewHealthHandler(db, trips),
	}
	return SetupRouter(cfg, h, zerolog.Nop(), m, limiter), m
}

func sample() string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteString(trip("a", 1, 600, 1))
	b.WriteString(trip("b", 2, 900, 2))
	b.WriteString(trip("c", 2, 1200, 3))
	b.WriteString(trip("short", 3, 10, 1))
	return b.String()
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestLoadThenQuery(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)

	w := do(r, http.MethodPost, "/api/data/load")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Data loaded successfully", body["message"])
	stats := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 4, stats["total"])
	assert.EqualValues(t, 3, stats["kept"])
	assert.EqualValues(t, 1, stats["excluded"])

	w = do(r, http.MethodGet, "/api/trips?limit=2&sortBy=trip_duration&sortOrder=DESC")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "c", data[0].(map[string]interface{})["id"])
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["totalPages"])
	assert.EqualValues(t, 1, pagination["page"])
	assert.EqualValues(t, 2, pagination["limit"])

	w = do(r, http.MethodGet, "/api/trips?pickupHour=2&minPassengers=3&minDistance=abc")
	body = decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, map[string]interface{}{"pickupHour": float64(2), "minPassengers": float64(3)}, body["filters"])
}

func TestGetTripByID(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/data/load").Code)

	w := do(r, http.MethodGet, "/api/trips/b")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "b", data["id"])
	assert.EqualValues(t, 2, data["pickup_hour"])

	w = do(r, http.MethodGet, "/api/trips/short")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Trip not found"}`, w.Body.String())
}

func TestStatsAndDistributions(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/data/load").Code)

	w := do(r, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["stats"].(map[string]interface{})["total_trips"])
	assert.Len(t, body["hourlyDistribution"], 2)
	assert.Equal(t, map[string]interface{}{}, body["filters"])

	w = do(r, http.MethodGet, "/api/stats/duration-distribution")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 300, body["bucketSize"])
	assert.Len(t, body["distribution"], 3)

	w = do(r, http.MethodGet, "/api/stats/duration-distribution?bucketSize=600")
	body = decode(t, w)
	assert.EqualValues(t, 600, body["bucketSize"])
	assert.Len(t, body["distribution"], 2)

	for _, kind := range []string{"distance", "speed"} {
		w = do(r, http.MethodGet, "/api/stats/"+kind+"-distribution?bucketSize=-1")
		require.Equal(t, http.StatusOK, w.Code, kind)
		assert.NotNil(t, decode(t, w)["distribution"], kind)
	}
}

func TestStatsOnEmptyStore(t *testing.T) {
	r, _ := newTestRouter(t, csvHeader, 100)

	w := do(r, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 0, body["stats"].(map[string]interface{})["total_trips"])
	assert.Equal(t, []interface{}{}, body["hourlyDistribution"])
}

func TestClearData(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/data/load").Code)

	w := do(r, http.MethodDelete, "/api/data/clear")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Database cleared successfully", body["message"])
	assert.EqualValues(t, 3, body["deletedCount"])

	body = decode(t, do(r, http.MethodGet, "/api/trips"))
	assert.EqualValues(t, 0, body["pagination"].(map[string]interface{})["total"])
}

func TestLoadRuns(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/data/load").Code)

	w := do(r, http.MethodGet, "/api/data/loads")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	runs := body["data"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].(map[string]interface{})["status"])
	assert.Equal(t, false, body["running"])
}

func TestDataRoutesAreRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 1)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/data/loads").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/data/loads").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/trips").Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)

	w := do(r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["trips"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestNoRouteAndCORS(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)

	w := do(r, http.MethodGet, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found","path":"/api/unknown"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodOptions, "/api/trips")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, sample(), 100)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/data/load").Code)

	w := do(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taxi_ingest_loads_total")
	assert.Contains(t, w.Body.String(), `route="/api/data/load"`)
}
