// Package geo holds the pure geographic primitives used by candidate
// search and routing: great-circle distance and the polyline codec.
// Nothing in this package touches storage or the network.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Point is a coordinate pair in decimal degrees.  It marshals as
// {"lat": ..., "lon": ...}.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKm returns the great-circle distance in kilometres between
// two coordinates using the haversine formula.  Inputs are assumed to
// be valid degrees; validation happens at the API boundary.  The
// function is symmetric and returns 0 for identical points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
