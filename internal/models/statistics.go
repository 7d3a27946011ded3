package models

// TripStats represents aggregate statistics over a filtered set of trips.
// Averages and extremes are nil when the set is empty.
type TripStats struct {
	TotalTrips     int64    `json:"total_trips"`
	AvgDurationSec *float64 `json:"avg_duration_sec"`
	AvgDistanceKm  *float64 `json:"avg_distance_km"`
	AvgSpeedKph    *float64 `json:"avg_speed_kph"`
	AvgPassengers  *float64 `json:"avg_passengers"`
	MinDuration    *int64   `json:"min_duration"`
	MaxDuration    *int64   `json:"max_duration"`
	MinDistance    *float64 `json:"min_distance"`
	MaxDistance    *float64 `json:"max_distance"`
	EarliestTrip   *string  `json:"earliest_trip"`
	LatestTrip     *string  `json:"latest_trip"`
}

// HourlyCount represents the number of trips picked up in one hour of day
type HourlyCount struct {
	PickupHour int   `json:"pickup_hour"`
	Count      int64 `json:"count"`
}

// Bucket represents one histogram bin. Bins are left-closed, right-open
// and identified by their lower edge.
type Bucket struct {
	Bucket    float64 `json:"bucket"`
	Count     int64   `json:"count"`
	BucketMin float64 `json:"bucket_min"`
}

// StatsOverview combines the summary statistics with the hourly profile
type StatsOverview struct {
	Stats              *TripStats    `json:"stats"`
	HourlyDistribution []HourlyCount `json:"hourlyDistribution"`
}
