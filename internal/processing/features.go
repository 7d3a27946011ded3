package processing

import (
	"math"
	"strconv"
	"strings"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/spatial"
	"github.com/jengzang/taxi-trips-backend-go/internal/temporal"
)

// DeriveFeatures converts a row whose timestamps are already normalized
// into a Trip with distance, speed and pickup hour filled in.
// Malformed numbers become NaN (or zero for integer fields); it never fails.
func DeriveFeatures(row models.RawTripRow) models.Trip {
	pickupLat := parseFloat(row.PickupLatitude)
	pickupLon := parseFloat(row.PickupLongitude)
	dropoffLat := parseFloat(row.DropoffLatitude)
	dropoffLon := parseFloat(row.DropoffLongitude)
	duration := parseFloat(row.TripDuration)

	distance := spatial.DistanceKm(pickupLat, pickupLon, dropoffLat, dropoffLon)

	var speed *float64
	if duration > 0 && !math.IsNaN(distance) {
		v := distance / (duration / 3600)
		speed = &v
	}

	hour, ok := temporal.ExtractPickupHour(row.PickupDatetime)
	if !ok {
		hour = -1
	}

	return models.Trip{
		ID:               strings.TrimSpace(row.ID),
		PickupDatetime:   row.PickupDatetime,
		DropoffDatetime:  row.DropoffDatetime,
		PickupLatitude:   pickupLat,
		PickupLongitude:  pickupLon,
		DropoffLatitude:  dropoffLat,
		DropoffLongitude: dropoffLon,
		PassengerCount:   parseInt(row.PassengerCount),
		TripDuration:     toInt(duration),
		TripDistanceKm:   distance,
		AvgSpeedKph:      speed,
		PickupHour:       hour,
		Extra:            row.Extra,
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseInt accepts integral strings and floats with an integral prefix ("2.0").
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return toInt(parseFloat(s))
}

func toInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Trunc(f))
}
