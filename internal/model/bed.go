package model

import (
	"fmt"
	"strings"
	"time"
)

// BedType enumerates the reservable bed categories.
type BedType string

const (
	BedTypeICU        BedType = "ICU"
	BedTypeVentilator BedType = "VENTILATOR"
)

// ParseBedType normalises and validates a client-supplied bed type.
// Unrecognised values are rejected so the engine can surface an
// invalid-argument error before touching storage.
func ParseBedType(s string) (BedType, error) {
	switch BedType(strings.ToUpper(strings.TrimSpace(s))) {
	case BedTypeICU:
		return BedTypeICU, nil
	case BedTypeVentilator:
		return BedTypeVentilator, nil
	}
	return "", fmt.Errorf("invalid bed type: %q (allowed: ICU, VENTILATOR)", s)
}

// Bed status values.  Occupancy is maintained by hospital operations
// staff; the allocation engine only ever reads it.  A reserved bed is
// still AVAILABLE — reservations live in bed_reservations, not here.
const (
	BedStatusAvailable    = "AVAILABLE"
	BedStatusOccupied     = "OCCUPIED"
	BedStatusOutOfService = "OUT_OF_SERVICE"
)

// Bed is a single reservable unit owned by a hospital.
//
// Fields:
//  ID         – primary key identifier.
//  HospitalID – owning hospital.
//  BedType    – category of the bed (ICU, VENTILATOR).
//  Status     – AVAILABLE, OCCUPIED or OUT_OF_SERVICE.
type Bed struct {
	ID         uint64    // beds.id
	HospitalID uint64    // beds.hospital_id
	BedType    BedType   // beds.bed_type
	Status     string    // beds.status
	CreatedAt  time.Time // beds.created_at
	UpdatedAt  time.Time // beds.updated_at
}
