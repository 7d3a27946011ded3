package spatial

import (
	"github.com/golang/geo/s2"
)

// DistanceKm calculates the great-circle distance between two points in kilometers
// using the Haversine formula
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Constants
const (
	EarthRadiusKm = 6378.137 // WGS84 equatorial radius, the sphere trip distances are reported on
)
