package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

// Default histogram bucket widths
const (
	DefaultDurationBucket = 300.0 // seconds
	DefaultDistanceBucket = 2.0   // km
	DefaultSpeedBucket    = 5.0   // kph
)

// StatsRepository handles database operations for statistics
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats computes summary statistics over the filtered trips in one query
func (r *StatsRepository) GetStats(ctx context.Context, filter models.TripFilter) (*models.TripStats, error) {
	where, args := buildWhereClause(filter)

	query := `SELECT
		COUNT(*) AS total_trips,
		AVG(trip_duration) AS avg_duration_sec,
		AVG(trip_distance_km) AS avg_distance_km,
		AVG(avg_speed_kph) AS avg_speed_kph,
		AVG(passenger_count) AS avg_passengers,
		MIN(trip_duration) AS min_duration,
		MAX(trip_duration) AS max_duration,
		MIN(trip_distance_km) AS min_distance,
		MAX(trip_distance_km) AS max_distance,
		MIN(pickup_datetime) AS earliest_trip,
		MAX(pickup_datetime) AS latest_trip
		FROM trips` + where

	var (
		stats                                   models.TripStats
		avgDuration, avgDistance, avgSpeed      sql.NullFloat64
		avgPassengers, minDistance, maxDistance sql.NullFloat64
		minDuration, maxDuration                sql.NullInt64
		earliest, latest                        sql.NullString
	)
	err := r.db.Conn().QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalTrips,
		&avgDuration, &avgDistance, &avgSpeed, &avgPassengers,
		&minDuration, &maxDuration,
		&minDistance, &maxDistance,
		&earliest, &latest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip stats: %w", err)
	}

	stats.AvgDurationSec = nullFloat(avgDuration)
	stats.AvgDistanceKm = nullFloat(avgDistance)
	stats.AvgSpeedKph = nullFloat(avgSpeed)
	stats.AvgPassengers = nullFloat(avgPassengers)
	stats.MinDuration = nullInt(minDuration)
	stats.MaxDuration = nullInt(maxDuration)
	stats.MinDistance = nullFloat(minDistance)
	stats.MaxDistance = nullFloat(maxDistance)
	stats.EarliestTrip = nullString(earliest)
	stats.LatestTrip = nullString(latest)

	return &stats, nil
}

// GetHourlyDistribution counts filtered trips per pickup hour, ascending.
// Hours without trips are omitted.
func (r *StatsRepository) GetHourlyDistribution(ctx context.Context, filter models.TripFilter) ([]models.HourlyCount, error) {
	where, args := buildWhereClause(filter)

	query := `SELECT pickup_hour, COUNT(*) AS count
		FROM trips` + where + `
		GROUP BY pickup_hour
		ORDER BY pickup_hour`

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly distribution: %w", err)
	}
	defer rows.Close()

	distribution := []models.HourlyCount{}
	for rows.Next() {
		var hc models.HourlyCount
		if err := rows.Scan(&hc.PickupHour, &hc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly distribution: %w", err)
		}
		distribution = append(distribution, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly distribution: %w", err)
	}

	return distribution, nil
}

// GetDurationDistribution buckets trip durations into bucketSize-second bins
func (r *StatsRepository) GetDurationDistribution(ctx context.Context, filter models.TripFilter, bucketSize float64) ([]models.Bucket, error) {
	return r.bucketize(ctx, "trip_duration", filter, bucketOrDefault(bucketSize, DefaultDurationBucket), false)
}

// GetDistanceDistribution buckets trip distances into bucketSize-km bins
func (r *StatsRepository) GetDistanceDistribution(ctx context.Context, filter models.TripFilter, bucketSize float64) ([]models.Bucket, error) {
	return r.bucketize(ctx, "trip_distance_km", filter, bucketOrDefault(bucketSize, DefaultDistanceBucket), false)
}

// GetSpeedDistribution buckets average speeds into bucketSize-kph bins.
// Trips without a speed are left out.
func (r *StatsRepository) GetSpeedDistribution(ctx context.Context, filter models.TripFilter, bucketSize float64) ([]models.Bucket, error) {
	return r.bucketize(ctx, "avg_speed_kph", filter, bucketOrDefault(bucketSize, DefaultSpeedBucket), true)
}

// bucketize groups column into [k*size, (k+1)*size) bins. column is always
// a constant supplied by the callers above.
func (r *StatsRepository) bucketize(ctx context.Context, column string, filter models.TripFilter, size float64, skipNull bool) ([]models.Bucket, error) {
	where, whereArgs := buildWhereClause(filter)
	if skipNull {
		where = withCondition(where, column+" IS NOT NULL")
	}

	query := `SELECT CAST(` + column + ` / ? AS INTEGER) * ? AS bucket, COUNT(*) AS count
		FROM trips` + where + `
		GROUP BY bucket
		ORDER BY bucket`
	args := append([]interface{}{size, size}, whereArgs...)

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s distribution: %w", column, err)
	}
	defer rows.Close()

	buckets := []models.Bucket{}
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s distribution: %w", column, err)
		}
		b.BucketMin = b.Bucket
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s distribution: %w", column, err)
	}

	return buckets, nil
}

func bucketOrDefault(size, def float64) float64 {
	if !(size > 0) {
		return def
	}
	return size
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
