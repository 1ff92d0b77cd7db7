package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/model"
)

// insertBatchSize bounds the number of rows per bulk INSERT so a large
// directory export does not blow the MySQL packet limit.
const insertBatchSize = 500

// Directory is the slice of the hospital store the loader needs.
type Directory interface {
	Count(ctx context.Context) (int64, error)
	InsertBulk(ctx context.Context, hospitals []model.Hospital) error
}

// Government directory export column positions.  The export has ~48
// columns; only the ones the application serves are mapped.
const (
	colCoordinates = 1
	colLocation    = 2
	colName        = 3
	colCategory    = 4
	colCareType    = 5
	colAddress     = 7
	colState       = 8
	colDistrict    = 9
	colPincode     = 11
	colTelephone   = 12
	colTotalBeds   = 40
)

// LoadDirectory reads every *.csv file under dir and bulk-inserts the
// parsed hospitals.  Loading is skipped entirely when the table is
// already populated, so restarts do not duplicate the directory.
// Malformed rows and unparseable coordinates are tolerated: the row is
// kept without coordinates when only the coordinates are bad, and
// skipped when it has no name.
func LoadDirectory(ctx context.Context, dir string, store Directory) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count hospitals: %w", err)
	}
	if n > 0 {
		log.Info().Int64("hospitals", n).Msg("hospital directory already loaded, skipping csv ingest")
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return fmt.Errorf("glob csv dir: %w", err)
	}
	if len(matches) == 0 {
		log.Warn().Str("dir", dir).Msg("no csv files found, hospital directory stays empty")
		return nil
	}
	sort.Strings(matches)

	total := 0
	for _, path := range matches {
		loaded, err := loadFile(ctx, path, store)
		if err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		total += loaded
	}
	log.Info().Int("hospitals", total).Int("files", len(matches)).Msg("hospital directory loaded")
	return nil
}

func loadFile(ctx context.Context, path string, store Directory) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // directory rows have ragged lengths
	r.LazyQuotes = true

	loaded := 0
	batch := make([]model.Hospital, 0, insertBatchSize)
	header := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("skipping malformed csv line")
			continue
		}
		if header {
			header = false
			continue
		}
		h, ok := parseRecord(record)
		if !ok {
			continue
		}
		batch = append(batch, h)
		if len(batch) >= insertBatchSize {
			if err := store.InsertBulk(ctx, batch); err != nil {
				return loaded, err
			}
			loaded += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := store.InsertBulk(ctx, batch); err != nil {
			return loaded, err
		}
		loaded += len(batch)
	}
	return loaded, nil
}

// parseRecord maps one directory row onto a Hospital.  Rows without a
// name are rejected; everything else degrades field by field.
func parseRecord(record []string) (model.Hospital, bool) {
	h := model.Hospital{
		Name:      field(record, colName),
		Location:  field(record, colLocation),
		Category:  field(record, colCategory),
		CareType:  field(record, colCareType),
		Address:   field(record, colAddress),
		State:     field(record, colState),
		District:  field(record, colDistrict),
		Pincode:   field(record, colPincode),
		Telephone: field(record, colTelephone),
	}
	if h.Name == "" {
		return model.Hospital{}, false
	}
	if n, err := strconv.Atoi(field(record, colTotalBeds)); err == nil && n > 0 {
		h.TotalBeds = n
	}
	if lat, lon, ok := parseCoordinates(field(record, colCoordinates)); ok {
		h.Latitude = &lat
		h.Longitude = &lon
	}
	return h, true
}

// parseCoordinates parses a "lat, lon" pair.  Out-of-range values are
// treated as not geocoded.
func parseCoordinates(s string) (float64, float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// field reads a column, returning "" when the row is too short.  The
// export uses "0" as a null marker in text columns.
func field(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	v := strings.TrimSpace(record[index])
	if v == "0" {
		return ""
	}
	return v
}
