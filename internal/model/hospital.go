package model

import "time"

// Hospital is one entry in the national facility directory.  Directory
// rows come from a government CSV export and are read-only to the
// allocation engine; only the ingest path writes them.  Latitude and
// longitude are pointers because a large share of the directory is not
// geocoded — such hospitals are never candidates for matching.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the hospital.
//  Location  – free-form locality string from the directory.
//  Category  – directory classification (e.g. "Public", "Private").
//  CareType  – level of care (e.g. "Tertiary").
//  Address   – postal address.
//  State     – state the hospital is located in.
//  District  – district within the state.
//  Pincode   – postal code.
//  Telephone – contact number, if listed.
//  TotalBeds – total bed capacity as declared in the directory.
//  Latitude  – geocoded latitude in degrees (nullable).
//  Longitude – geocoded longitude in degrees (nullable).
type Hospital struct {
	ID        uint64   `json:"id"`         // hospitals.id
	Name      string   `json:"name"`       // hospitals.name
	Location  string   `json:"location"`   // hospitals.location
	Category  string   `json:"category"`   // hospitals.category
	CareType  string   `json:"care_type"`  // hospitals.care_type
	Address   string   `json:"address"`    // hospitals.address
	State     string   `json:"state"`      // hospitals.state
	District  string   `json:"district"`   // hospitals.district
	Pincode   string   `json:"pincode"`    // hospitals.pincode
	Telephone string   `json:"telephone"`  // hospitals.telephone
	TotalBeds int      `json:"total_beds"` // hospitals.total_beds
	Latitude  *float64 `json:"latitude"`   // hospitals.latitude (nullable)
	Longitude *float64 `json:"longitude"`  // hospitals.longitude (nullable)

	CreatedAt time.Time `json:"-"` // hospitals.created_at
}

// Geocoded reports whether the hospital carries a usable coordinate
// pair.  Non-geocoded hospitals are excluded from every search pass.
func (h *Hospital) Geocoded() bool {
	return h.Latitude != nil && h.Longitude != nil
}
