package models

// RawTripRow is one CSV record before validation. Every field is the
// untouched cell text; columns the loader does not know are kept in Extra.
type RawTripRow struct {
	ID               string
	PickupDatetime   string
	DropoffDatetime  string
	PickupLatitude   string
	PickupLongitude  string
	DropoffLatitude  string
	DropoffLongitude string
	PassengerCount   string
	TripDuration     string

	Extra map[string]string
}

// Trip represents a validated, enriched taxi trip as stored in the trips table
type Trip struct {
	ID string `json:"id" db:"id"`

	// Temporal info, canonical UTC (2006-01-02T15:04:05.000Z)
	PickupDatetime  string `json:"pickup_datetime" db:"pickup_datetime"`
	DropoffDatetime string `json:"dropoff_datetime" db:"dropoff_datetime"`

	// Origin and destination
	PickupLatitude   float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude" db:"pickup_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" db:"dropoff_longitude"`

	PassengerCount int `json:"passenger_count" db:"passenger_count"`
	TripDuration   int `json:"trip_duration" db:"trip_duration"` // Seconds

	// Derived features
	TripDistanceKm float64  `json:"trip_distance_km" db:"trip_distance_km"`
	AvgSpeedKph    *float64 `json:"avg_speed_kph" db:"avg_speed_kph"` // nil when duration is not positive
	PickupHour     int      `json:"pickup_hour" db:"pickup_hour"`     // 0-23 UTC, -1 when unknown

	// Pass-through columns from the source file; not persisted
	Extra map[string]string `json:"-" db:"-"`
}

// Pagination describes a page of a filtered listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// TripsPage represents a paginated response of trips
type TripsPage struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
