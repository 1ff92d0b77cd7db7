package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/openems/bed-allocation/internal/model"
)

// SOSRepo persists citizen emergency reports.  The insert path is
// idempotent on the client-generated offline id so that reports
// captured offline can be replayed safely after reconnecting.
type SOSRepo struct {
	db *sql.DB
}

// NewSOSRepo returns an SOSRepo bound to the given database.
func NewSOSRepo(db *sql.DB) *SOSRepo { return &SOSRepo{db: db} }

const sosCols = `id, latitude, longitude, emergency_type, message, client_timestamp,
                 offline_id, status, server_timestamp`

func scanSOS(scan func(dest ...any) error) (*model.SOSReport, error) {
	var rep model.SOSReport
	var offline sql.NullString
	if err := scan(
		&rep.ID, &rep.Latitude, &rep.Longitude, &rep.EmergencyType, &rep.Message,
		&rep.ClientTimestamp, &offline, &rep.Status, &rep.ServerTimestamp,
	); err != nil {
		return nil, err
	}
	if offline.Valid {
		v := offline.String
		rep.OfflineID = &v
	}
	return &rep, nil
}

// Create inserts a new report and returns it with generated fields
// populated.  When the report carries an offline id that was already
// synced, the existing row is returned instead and the second return
// value is false.  A unique index on offline_id closes the race
// between two replays of the same report.
func (r *SOSRepo) Create(ctx context.Context, rep *model.SOSReport) (*model.SOSReport, bool, error) {
	if rep.OfflineID != nil {
		existing, err := r.GetByOfflineID(ctx, *rep.OfflineID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	const q = `INSERT INTO sos_reports (latitude, longitude, emergency_type, message, client_timestamp, offline_id, status)
               VALUES (?, ?, ?, ?, ?, ?, 'PENDING')`
	var offline any
	if rep.OfflineID != nil {
		offline = *rep.OfflineID
	}
	result, err := r.db.ExecContext(ctx, q,
		rep.Latitude, rep.Longitude, rep.EmergencyType, rep.Message,
		rep.ClientTimestamp, offline,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry && rep.OfflineID != nil {
			// Lost a replay race; the other insert won.
			existing, gerr := r.GetByOfflineID(ctx, *rep.OfflineID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

// GetByID loads a single report.
func (r *SOSRepo) GetByID(ctx context.Context, id uint64) (*model.SOSReport, error) {
	const q = `SELECT ` + sosCols + ` FROM sos_reports WHERE id = ?`
	rep, err := scanSOS(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rep, err
}

// GetByOfflineID looks a report up by its idempotency key.
func (r *SOSRepo) GetByOfflineID(ctx context.Context, offlineID string) (*model.SOSReport, error) {
	const q = `SELECT ` + sosCols + ` FROM sos_reports WHERE offline_id = ?`
	rep, err := scanSOS(r.db.QueryRowContext(ctx, q, offlineID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rep, err
}

// List returns reports newest first, optionally restricted to one
// status.  An empty status means all reports.
func (r *SOSRepo) List(ctx context.Context, status string) ([]model.SOSReport, error) {
	q := `SELECT ` + sosCols + ` FROM sos_reports`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY server_timestamp DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SOSReport, 0)
	for rows.Next() {
		rep, err := scanSOS(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

// UpdateStatus changes a report's status.  ErrNotFound is returned
// when the id does not exist.
func (r *SOSRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE sos_reports SET status = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
