package spatial

import (
	"github.com/golang/geo/s2"
)

// NYC service area. Points outside are treated as GPS noise.
const (
	MinLatitude  = 40.477399
	MaxLatitude  = 40.917577
	MinLongitude = -74.25909
	MaxLongitude = -73.700272
)

var nycBounds = s2.RectFromLatLng(s2.LatLngFromDegrees(MinLatitude, MinLongitude)).
	AddPoint(s2.LatLngFromDegrees(MaxLatitude, MaxLongitude))

// IsValidCoordinate reports whether the point lies inside the NYC bounding box.
// The box edges are inclusive; NaN or out-of-range values are rejected.
func IsValidCoordinate(lat, lon float64) bool {
	return nycBounds.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Bounds returns the NYC bounding box as (minLat, minLon, maxLat, maxLon).
func Bounds() (float64, float64, float64, float64) {
	lo, hi := nycBounds.Lo(), nycBounds.Hi()
	return lo.Lat.Degrees(), lo.Lng.Degrees(), hi.Lat.Degrees(), hi.Lng.Degrees()
}
