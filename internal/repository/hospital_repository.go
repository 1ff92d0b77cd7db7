package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/openems/bed-allocation/internal/model"
)

// hospitalCols is the column list shared by every directory query so
// scanHospital can stay in one place.
const hospitalCols = `id, name, location, category, care_type, address, state, district,
                      pincode, telephone, total_beds, latitude, longitude, created_at`

// HospitalRepo provides read access to the hospital directory and the
// write path used by CSV ingestion.  The directory can hold tens of
// thousands of rows, so spatial queries always go through a bounding
// box pre-filter rather than scanning the full table.
type HospitalRepo struct {
	db *sql.DB
}

// NewHospitalRepo returns a HospitalRepo bound to the given database.
func NewHospitalRepo(db *sql.DB) *HospitalRepo { return &HospitalRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *HospitalRepo) DB() *sql.DB { return r.db }

// scanHospital reads one row of hospitalCols into a model.Hospital.
// Latitude and longitude are nullable; absent coordinates stay nil.
func scanHospital(scan func(dest ...any) error) (*model.Hospital, error) {
	var h model.Hospital
	var lat, lon sql.NullFloat64
	if err := scan(
		&h.ID, &h.Name, &h.Location, &h.Category, &h.CareType, &h.Address,
		&h.State, &h.District, &h.Pincode, &h.Telephone, &h.TotalBeds,
		&lat, &lon, &h.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat.Valid {
		v := lat.Float64
		h.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		h.Longitude = &v
	}
	return &h, nil
}

// collectHospitals drains rows produced by a hospitalCols query.
func collectHospitals(rows *sql.Rows) ([]model.Hospital, error) {
	defer rows.Close()
	out := make([]model.Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// FindWithinBox returns hospitals inside the given coordinate window
// that currently own at least one AVAILABLE bed of the requested
// type.  Hospitals without coordinates never match because NULL fails
// the BETWEEN predicate.  Rows come back in id order, which fixes the
// tie-break when two candidates sit at the same distance.
func (r *HospitalRepo) FindWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, bedType model.BedType) ([]model.Hospital, error) {
	const q = `SELECT DISTINCT h.id, h.name, h.location, h.category, h.care_type, h.address,
                      h.state, h.district, h.pincode, h.telephone, h.total_beds,
                      h.latitude, h.longitude, h.created_at
               FROM hospitals h
               JOIN beds b ON b.hospital_id = h.id
               WHERE h.latitude BETWEEN ? AND ?
                 AND h.longitude BETWEEN ? AND ?
                 AND b.bed_type = ?
                 AND b.status = 'AVAILABLE'
               ORDER BY h.id`
	rows, err := r.db.QueryContext(ctx, q, minLat, maxLat, minLon, maxLon, string(bedType))
	if err != nil {
		return nil, err
	}
	return collectHospitals(rows)
}

// GeocodedWithinBox returns every geocoded hospital inside the given
// coordinate window, regardless of bed inventory.  The public nearby
// endpoint uses it; the allocation engine does not.
func (r *HospitalRepo) GeocodedWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]model.Hospital, error) {
	const q = `SELECT ` + hospitalCols + `
               FROM hospitals
               WHERE latitude BETWEEN ? AND ?
                 AND longitude BETWEEN ? AND ?
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, err
	}
	return collectHospitals(rows)
}

// GetByID loads a single hospital.  ErrNotFound is returned when the
// id does not exist.
func (r *HospitalRepo) GetByID(ctx context.Context, id uint64) (*model.Hospital, error) {
	const q = `SELECT ` + hospitalCols + ` FROM hospitals WHERE id = ?`
	h, err := scanHospital(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

// ListFilter narrows the directory listing.  Zero values mean "no
// filter".
type ListFilter struct {
	State    string
	District string
	Category string
	MinBeds  int
	Limit    int
	Offset   int
}

// List returns a page of the directory matching the filter, ordered
// by id for stable pagination.
func (r *HospitalRepo) List(ctx context.Context, f ListFilter) ([]model.Hospital, error) {
	var where []string
	var args []any
	if f.State != "" {
		where = append(where, "LOWER(state) = LOWER(?)")
		args = append(args, f.State)
	}
	if f.District != "" {
		where = append(where, "LOWER(district) = LOWER(?)")
		args = append(args, f.District)
	}
	if f.Category != "" {
		where = append(where, "LOWER(category) = LOWER(?)")
		args = append(args, f.Category)
	}
	if f.MinBeds > 0 {
		where = append(where, "total_beds >= ?")
		args = append(args, f.MinBeds)
	}
	q := `SELECT ` + hospitalCols + ` FROM hospitals`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectHospitals(rows)
}

// Search performs a keyword search across the descriptive directory
// columns, mirroring the multi-field lookup the dashboard uses.
func (r *HospitalRepo) Search(ctx context.Context, keyword string, limit int) ([]model.Hospital, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT ` + hospitalCols + `
               FROM hospitals
               WHERE LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(state) LIKE ?
                  OR LOWER(district) LIKE ? OR LOWER(address) LIKE ?
               ORDER BY id LIMIT ?`
	pat := "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
	rows, err := r.db.QueryContext(ctx, q, pat, pat, pat, pat, pat, limit)
	if err != nil {
		return nil, err
	}
	return collectHospitals(rows)
}

// Count returns the number of directory rows.  Ingestion uses it to
// skip reloading an already populated directory.
func (r *HospitalRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&n)
	return n, err
}

// InsertBulk writes ingested directory rows in a single statement.
// Passing an empty slice is a no-op.
func (r *HospitalRepo) InsertBulk(ctx context.Context, hospitals []model.Hospital) error {
	if len(hospitals) == 0 {
		return nil
	}
	query := `INSERT INTO hospitals (name, location, category, care_type, address, state, district, pincode, telephone, total_beds, latitude, longitude) VALUES `
	args := make([]any, 0, len(hospitals)*12)
	for i, h := range hospitals {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		var lat, lon any
		if h.Latitude != nil {
			lat = *h.Latitude
		}
		if h.Longitude != nil {
			lon = *h.Longitude
		}
		args = append(args, h.Name, h.Location, h.Category, h.CareType, h.Address,
			h.State, h.District, h.Pincode, h.Telephone, h.TotalBeds, lat, lon)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
