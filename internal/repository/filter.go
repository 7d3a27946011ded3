package repository

import (
	"strings"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

// Pagination defaults
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
	DefaultSortBy   = "pickup_datetime"
	DefaultOrder    = "DESC"
)

// Sortable columns. Only keys of this table ever reach the ORDER BY clause.
var sortColumns = map[string]string{
	"pickup_datetime":  "pickup_datetime",
	"trip_duration":    "trip_duration",
	"trip_distance_km": "trip_distance_km",
	"avg_speed_kph":    "avg_speed_kph",
	"passenger_count":  "passenger_count",
}

var sortOrders = map[string]string{
	"ASC":  "ASC",
	"DESC": "DESC",
}

// buildWhereClause turns the present filter fields into an AND-ed predicate
// with positional placeholders. An empty filter yields "" and no args.
func buildWhereClause(filter models.TripFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if filter.MinDuration != nil {
		add("trip_duration >= ?", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		add("trip_duration <= ?", *filter.MaxDuration)
	}
	if filter.MinDistance != nil {
		add("trip_distance_km >= ?", *filter.MinDistance)
	}
	if filter.MaxDistance != nil {
		add("trip_distance_km <= ?", *filter.MaxDistance)
	}
	if filter.PickupHour != nil {
		add("pickup_hour = ?", *filter.PickupHour)
	}
	if filter.MinPassengers != nil {
		add("passenger_count >= ?", *filter.MinPassengers)
	}
	if filter.PassengerCount != nil {
		add("passenger_count = ?", *filter.PassengerCount)
	}
	if filter.StartDate != nil {
		add("pickup_datetime >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("pickup_datetime <= ?", *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// withCondition appends one more fixed condition to a clause from buildWhereClause.
func withCondition(where, cond string) string {
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

// NormalizePage applies the pagination fallbacks: page < 1 becomes 1,
// limit <= 0 becomes DefaultPageSize, limit > MaxPageSize is capped.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// NormalizeSort resolves sortBy and sortOrder against the allow-lists,
// falling back to pickup_datetime DESC.
func NormalizeSort(sortBy, sortOrder string) (string, string) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = DefaultSortBy
	}
	order, ok := sortOrders[strings.ToUpper(strings.TrimSpace(sortOrder))]
	if !ok {
		order = DefaultOrder
	}
	return column, order
}
