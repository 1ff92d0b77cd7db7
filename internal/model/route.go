package model

import (
	"time"

	"github.com/openems/bed-allocation/internal/geo"
)

// Route is the result of a route computation between two points.  It
// is transient — assembled per request and never persisted.  Encoded
// is the compact polyline form of Points and is empty for fallback
// routes.
type Route struct {
	DistanceMeters float64       // driving (or straight-line) distance
	Duration       time.Duration // estimated travel time
	Points         []geo.Point   // ordered path, at least origin and destination
	Encoded        string        // polyline encoding of Points, optional
}

// DistanceKm returns the route distance in kilometres.
func (r *Route) DistanceKm() float64 { return r.DistanceMeters / 1000.0 }

// ETAMinutes returns the whole-minute travel estimate.
func (r *Route) ETAMinutes() int { return int(r.Duration / time.Minute) }

// Match is the allocation engine's output: the winning hospital, the
// reserved bed and the computed route.  Transient, returned straight
// to the caller.
type Match struct {
	HospitalID    uint64      `json:"hospital_id"`
	HospitalName  string      `json:"hospital_name"`
	DistanceKm    float64     `json:"distance_km"`
	BedID         uint64      `json:"bed_id"`
	AvailableBeds int         `json:"available_beds"`
	ReservationID string      `json:"reservation_id"`
	ExpiresAt     time.Time   `json:"expires_at"`
	ETAMinutes    int         `json:"eta_minutes"`
	Encoded       string      `json:"encoded_polyline,omitempty"`
	Path          []geo.Point `json:"route_coordinates"`
}
