package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

const tripColumns = `id, pickup_datetime, dropoff_datetime,
	pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
	passenger_count, trip_duration, trip_distance_km, avg_speed_kph, pickup_hour`

const upsertTripSQL = `INSERT INTO trips (` + tripColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		pickup_datetime = excluded.pickup_datetime,
		dropoff_datetime = excluded.dropoff_datetime,
		pickup_latitude = excluded.pickup_latitude,
		pickup_longitude = excluded.pickup_longitude,
		dropoff_latitude = excluded.dropoff_latitude,
		dropoff_longitude = excluded.dropoff_longitude,
		passenger_count = excluded.passenger_count,
		trip_duration = excluded.trip_duration,
		trip_distance_km = excluded.trip_distance_km,
		avg_speed_kph = excluded.avg_speed_kph,
		pickup_hour = excluded.pickup_hour`

// TripRepository handles database operations for trips
type TripRepository struct {
	db *database.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *database.DB) *TripRepository {
	return &TripRepository{db: db}
}

// FindAll retrieves one page of filtered trips. Invalid sort parameters fall
// back to pickup_datetime DESC; see NormalizePage for pagination fallbacks.
func (r *TripRepository) FindAll(ctx context.Context, filter models.TripFilter, page, limit int, sortBy, sortOrder string) ([]models.Trip, error) {
	where, args := buildWhereClause(filter)
	column, order := NormalizeSort(sortBy, sortOrder)
	page, limit = NormalizePage(page, limit)

	// id breaks ties so pages never overlap
	query := "SELECT " + tripColumns + " FROM trips" + where +
		" ORDER BY " + column + " " + order + ", id " + order +
		" LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := make([]models.Trip, 0, limit)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	return trips, nil
}

// FindByID retrieves a single trip by ID. It returns nil, nil when absent.
func (r *TripRepository) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	row := r.db.Conn().QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE id = ?", id)

	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &t, nil
}

// Count returns the number of trips matching filter
func (r *TripRepository) Count(ctx context.Context, filter models.TripFilter) (int64, error) {
	where, args := buildWhereClause(filter)

	var total int64
	err := r.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM trips"+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}

	return total, nil
}

// UpsertBatch writes trips in a single transaction, replacing rows with the
// same id. Either every trip is written or none is.
func (r *TripRepository) UpsertBatch(ctx context.Context, trips []models.Trip) (int64, error) {
	if len(trips) == 0 {
		return 0, nil
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertTripSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i := range trips {
			t := &trips[i]
			var speed sql.NullFloat64
			if t.AvgSpeedKph != nil {
				speed = sql.NullFloat64{Float64: *t.AvgSpeedKph, Valid: true}
			}
			_, err := stmt.ExecContext(ctx,
				t.ID, t.PickupDatetime, t.DropoffDatetime,
				t.PickupLatitude, t.PickupLongitude, t.DropoffLatitude, t.DropoffLongitude,
				t.PassengerCount, t.TripDuration, t.TripDistanceKm, speed, t.PickupHour,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert trip %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return int64(len(trips)), nil
}

// DeleteAll removes every trip and returns how many were deleted
func (r *TripRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM trips")
		if err != nil {
			return fmt.Errorf("failed to delete trips: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(s rowScanner) (models.Trip, error) {
	var t models.Trip
	var speed sql.NullFloat64
	err := s.Scan(
		&t.ID, &t.PickupDatetime, &t.DropoffDatetime,
		&t.PickupLatitude, &t.PickupLongitude, &t.DropoffLatitude, &t.DropoffLongitude,
		&t.PassengerCount, &t.TripDuration, &t.TripDistanceKm, &speed, &t.PickupHour,
	)
	if err != nil {
		return t, err
	}
	if speed.Valid {
		v := speed.Float64
		t.AvgSpeedKph = &v
	}
	return t, nil
}
