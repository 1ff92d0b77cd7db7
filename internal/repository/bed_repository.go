package repository

import (
	"context"
	"database/sql"

	"github.com/openems/bed-allocation/internal/model"
)

// BedRepo reads bed inventory.  Bed status is owned by hospital
// operations staff; the allocation path never flips it — occupancy
// and reservation are separate concepts.
type BedRepo struct {
	db *sql.DB
}

// NewBedRepo returns a BedRepo bound to the given database.
func NewBedRepo(db *sql.DB) *BedRepo { return &BedRepo{db: db} }

// AvailableBeds lists beds of the requested type at one hospital that
// are currently AVAILABLE.  Ordering by id keeps the engine's bed
// selection deterministic.  This is the fine-grained re-check behind
// the bounding-box pre-filter, which is not transactionally
// consistent with concurrent reservations.
func (r *BedRepo) AvailableBeds(ctx context.Context, hospitalID uint64, bedType model.BedType) ([]model.Bed, error) {
	const q = `SELECT id, hospital_id, bed_type, status, created_at, updated_at
               FROM beds
               WHERE hospital_id = ? AND bed_type = ? AND status = 'AVAILABLE'
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, hospitalID, string(bedType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var beds []model.Bed
	for rows.Next() {
		var b model.Bed
		if err := rows.Scan(&b.ID, &b.HospitalID, &b.BedType, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}
