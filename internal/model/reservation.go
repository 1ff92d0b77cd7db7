package model

import "time"

// Reservation status values.  A reservation starts RESERVED and is
// transitioned to EXPIRED by lazy expiry, or to CONFIRMED/CANCELLED by
// hospital staff action.  Rows are never deleted; the full history is
// kept as an audit trail.
const (
	ReservationReserved  = "RESERVED"
	ReservationConfirmed = "CONFIRMED"
	ReservationExpired   = "EXPIRED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is an exclusive time-bounded hold on a bed for an
// inbound ambulance.  The storage layer guarantees that at most one
// reservation per bed is in status RESERVED at any instant.
//
// Fields:
//  ID          – opaque unique identifier (UUID).
//  HospitalID  – hospital owning the reserved bed.
//  BedID       – bed being held.
//  AmbulanceID – transport that requested the hold.
//  Status      – RESERVED, CONFIRMED, EXPIRED or CANCELLED.
//  CreatedAt   – when the hold was created.
//  ExpiryTime  – CreatedAt plus the hold TTL; after this instant the
//                hold no longer blocks the bed.
type Reservation struct {
	ID          string    `json:"id"`           // bed_reservations.id
	HospitalID  uint64    `json:"hospital_id"`  // bed_reservations.hospital_id
	BedID       uint64    `json:"bed_id"`       // bed_reservations.bed_id
	AmbulanceID string    `json:"ambulance_id"` // bed_reservations.ambulance_id
	Status      string    `json:"status"`       // bed_reservations.status
	CreatedAt   time.Time `json:"created_at"`   // bed_reservations.created_at
	ExpiryTime  time.Time `json:"expiry_time"`  // bed_reservations.expiry_time
}
