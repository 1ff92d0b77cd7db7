package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/openems/bed-allocation/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique key violation.
const mysqlDupEntry = 1062

// ReservationRepo persists bed reservations.  The schema carries a
// stored generated column active_bed_id = IF(status='RESERVED',
// bed_id, NULL) with a unique index; since MySQL unique indexes skip
// NULLs, that index enforces "at most one RESERVED reservation per
// bed" inside the storage engine, where every concurrent writer must
// pass through it.  TryReserve turns the resulting duplicate-key
// error into ErrBedTaken.
//
// Reservation rows are never deleted.  Expiry and cancellation are
// status transitions so the history remains auditable.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// TryReserve atomically creates a RESERVED hold on a bed.  Exactly
// one of two racing callers succeeds; the loser receives ErrBedTaken.
// The hold expires ttl after creation.
func (r *ReservationRepo) TryReserve(ctx context.Context, hospitalID, bedID uint64, ambulanceID string, ttl time.Duration) (*model.Reservation, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res := &model.Reservation{
		ID:          uuid.NewString(),
		HospitalID:  hospitalID,
		BedID:       bedID,
		AmbulanceID: ambulanceID,
		Status:      model.ReservationReserved,
		CreatedAt:   now,
		ExpiryTime:  now.Add(ttl),
	}
	const q = `INSERT INTO bed_reservations (id, hospital_id, bed_id, ambulance_id, status, created_at, expiry_time)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.HospitalID, res.BedID, res.AmbulanceID, res.Status,
		res.CreatedAt, res.ExpiryTime,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return nil, ErrBedTaken
		}
		return nil, err
	}
	return res, nil
}

// ActiveForBed reports whether a RESERVED reservation currently
// exists for the bed.  The engine uses it as a cheap race-detection
// guard before attempting the real atomic insert.
func (r *ReservationRepo) ActiveForBed(ctx context.Context, bedID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM bed_reservations WHERE bed_id = ? AND status = 'RESERVED')`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, bedID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ExpireOlderThan transitions every RESERVED reservation whose expiry
// time has passed to EXPIRED and returns the records it transitioned.
// The select and update run in one transaction with row locks so two
// concurrent sweeps cannot both claim the same record.  There is no
// background timer; this runs at the start of every allocation call.
func (r *ReservationRepo) ExpireOlderThan(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT id, hospital_id, bed_id, ambulance_id, status, created_at, expiry_time
                 FROM bed_reservations
                 WHERE status = 'RESERVED' AND expiry_time <= ?
                 FOR UPDATE`
	rows, err := tx.QueryContext(ctx, sel, now.UTC())
	if err != nil {
		return nil, err
	}
	var expired []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.HospitalID, &res.BedID, &res.AmbulanceID,
			&res.Status, &res.CreatedAt, &res.ExpiryTime); err != nil {
			rows.Close()
			return nil, err
		}
		res.Status = model.ReservationExpired
		expired = append(expired, res)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		committed = true
		return nil, tx.Commit()
	}

	const upd = `UPDATE bed_reservations SET status = 'EXPIRED'
                 WHERE status = 'RESERVED' AND expiry_time <= ?`
	if _, err := tx.ExecContext(ctx, upd, now.UTC()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return expired, nil
}

// GetByID loads a reservation by its UUID.  ErrNotFound is returned
// when no such reservation exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, hospital_id, bed_id, ambulance_id, status, created_at, expiry_time
               FROM bed_reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.HospitalID, &res.BedID, &res.AmbulanceID,
		&res.Status, &res.CreatedAt, &res.ExpiryTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
