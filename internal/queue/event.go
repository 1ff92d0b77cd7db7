// Package queue defines the allocation event payloads exchanged over
// the message broker and the publisher/consumer that move them.
package queue

import "time"

// Event kind discriminators carried in the envelope.
const (
	KindAssigned = "ASSIGNED"
	KindReserved = "RESERVED"
	KindExpired  = "EXPIRED"
)

// AssignedEvent is published when an ambulance is matched to a
// hospital.  It contains enough information for downstream consumers
// (dashboards, notification fan-out) without querying the database.
type AssignedEvent struct {
	AmbulanceID  string    `json:"ambulance_id"`
	HospitalID   uint64    `json:"hospital_id"`
	HospitalName string    `json:"hospital_name"`
	BedID        uint64    `json:"bed_id"`
	BedType      string    `json:"bed_type"`
	DistanceKm   float64   `json:"distance_km"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReservedEvent is published when a bed reservation is created.
type ReservedEvent struct {
	ReservationID string    `json:"reservation_id"`
	AmbulanceID   string    `json:"ambulance_id"`
	HospitalID    uint64    `json:"hospital_id"`
	BedID         uint64    `json:"bed_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ExpiredEvent is published when lazy expiry reclaims a stale hold.
type ExpiredEvent struct {
	ReservationID string    `json:"reservation_id"`
	AmbulanceID   string    `json:"ambulance_id"`
	HospitalID    uint64    `json:"hospital_id"`
	BedID         uint64    `json:"bed_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Envelope wraps a payload with its kind so a single durable queue
// can carry all three event types.
type Envelope struct {
	Event    string         `json:"event"`
	Assigned *AssignedEvent `json:"assigned,omitempty"`
	Reserved *ReservedEvent `json:"reserved,omitempty"`
	Expired  *ExpiredEvent  `json:"expired,omitempty"`
}
