package model

import "time"

// SOS report status values.
const (
	SOSPending   = "PENDING"
	SOSHandled   = "HANDLED"
	SOSDismissed = "DISMISSED"
)

// SOSReport is a citizen emergency report.  Reports may be captured
// offline on a device and synced later; OfflineID is the client-side
// identifier used to deduplicate replays of the same report.
//
// Fields:
//  ID              – primary key identifier.
//  Latitude        – reporter latitude in degrees.
//  Longitude       – reporter longitude in degrees.
//  EmergencyType   – free-form classification (e.g. "MEDICAL").
//  Message         – optional reporter message.
//  ClientTimestamp – capture time in unix milliseconds, as reported
//                    by the device.
//  OfflineID       – client-generated idempotency key (nullable).
//  Status          – PENDING, HANDLED or DISMISSED.
//  ServerTimestamp – when the server accepted the report.
type SOSReport struct {
	ID              uint64    `json:"id"`               // sos_reports.id
	Latitude        float64   `json:"latitude"`         // sos_reports.latitude
	Longitude       float64   `json:"longitude"`        // sos_reports.longitude
	EmergencyType   string    `json:"emergency_type"`   // sos_reports.emergency_type
	Message         string    `json:"message"`          // sos_reports.message
	ClientTimestamp int64     `json:"client_timestamp"` // sos_reports.client_timestamp
	OfflineID       *string   `json:"offline_id"`       // sos_reports.offline_id (nullable)
	Status          string    `json:"status"`           // sos_reports.status
	ServerTimestamp time.Time `json:"server_timestamp"` // sos_reports.server_timestamp
}
