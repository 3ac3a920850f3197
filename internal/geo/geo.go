// Package geo holds the pure distance math behind geofence verification.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance in meters between two
// coordinates, computed with the haversine formula. Total over finite
// inputs; never negative.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinGeofence reports whether a measured distance falls inside a fence of
// the given radius. The boundary is inclusive: a student standing exactly at
// the edge is accepted.
func WithinGeofence(distanceMeters, radiusMeters float64) bool {
	return distanceMeters <= radiusMeters
}

// ValidCoordinates reports whether lat/lon are in range for WGS84.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
