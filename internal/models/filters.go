package models

// TripFilter represents filter parameters for querying trips.
// A nil field imposes no constraint.
type TripFilter struct {
	MinDuration    *int     `json:"minDuration,omitempty"`    // Seconds, inclusive
	MaxDuration    *int     `json:"maxDuration,omitempty"`    // Seconds, inclusive
	MinDistance    *float64 `json:"minDistance,omitempty"`    // Km, inclusive
	MaxDistance    *float64 `json:"maxDistance,omitempty"`    // Km, inclusive
	PickupHour     *int     `json:"pickupHour,omitempty"`     // 0-23, exact
	MinPassengers  *int     `json:"minPassengers,omitempty"`  // Inclusive
	PassengerCount *int     `json:"passengerCount,omitempty"` // Exact
	StartDate      *string  `json:"startDate,omitempty"`      // Compared with pickup_datetime, inclusive
	EndDate        *string  `json:"endDate,omitempty"`        // Compared with pickup_datetime, inclusive
}

// IsEmpty reports whether the filter constrains nothing
func (f TripFilter) IsEmpty() bool {
	return f.MinDuration == nil && f.MaxDuration == nil &&
		f.MinDistance == nil && f.MaxDistance == nil &&
		f.PickupHour == nil && f.MinPassengers == nil && f.PassengerCount == nil &&
		f.StartDate == nil && f.EndDate == nil
}

// ListOptions represents pagination and ordering for trip listings
type ListOptions struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`    // pickup_datetime, trip_duration, trip_distance_km, avg_speed_kph, passenger_count
	SortOrder string `form:"sortOrder"` // ASC, DESC
}
