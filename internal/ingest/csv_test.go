package ingest

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openems/bed-allocation/internal/model"
)

// fakeDirectory records bulk inserts in memory.
type fakeDirectory struct {
	existing int64
	rows     []model.Hospital
}

func (f *fakeDirectory) Count(ctx context.Context) (int64, error) { return f.existing, nil }

func (f *fakeDirectory) InsertBulk(ctx context.Context, hospitals []model.Hospital) error {
	f.rows = append(f.rows, hospitals...)
	return nil
}

// directoryRow builds a 48-column export row with the mapped fields
// populated.
func directoryRow(coords, name string, totalBeds string) []string {
	row := make([]string, 48)
	row[colCoordinates] = coords
	row[colLocation] = "Anna Nagar"
	row[colName] = name
	row[colCategory] = "Public"
	row[colCareType] = "Tertiary"
	row[colAddress] = "12 Hospital Road"
	row[colState] = "Tamil Nadu"
	row[colDistrict] = "Chennai"
	row[colPincode] = "600040"
	row[colTelephone] = "044-12345678"
	row[colTotalBeds] = totalBeds
	return row
}

func writeCSV(t *testing.T, dir, name string, rows [][]string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	header := make([]string, 48)
	header[0] = "Sr_No"
	header[colCoordinates] = "Location_Coordinates"
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "hospitals.csv", [][]string{
		directoryRow("13.0827, 80.2707", "Chennai General", "450"),
		directoryRow("not-a-coordinate", "Ungeocoded Clinic", "20"),
		directoryRow("13.05, 80.25", "", "10"), // no name, dropped
		{"1", "too-short-row"},
	})

	store := &fakeDirectory{}
	require.NoError(t, LoadDirectory(context.Background(), dir, store))

	require.Len(t, store.rows, 2)

	first := store.rows[0]
	assert.Equal(t, "Chennai General", first.Name)
	assert.Equal(t, "Tamil Nadu", first.State)
	assert.Equal(t, "Chennai", first.District)
	assert.Equal(t, 450, first.TotalBeds)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, 13.0827, *first.Latitude, 1e-6)
	assert.InDelta(t, 80.2707, *first.Longitude, 1e-6)

	// Bad coordinates degrade to an ungeocoded row, not a dropped one.
	second := store.rows[1]
	assert.Equal(t, "Ungeocoded Clinic", second.Name)
	assert.Nil(t, second.Latitude)
}

func TestLoadDirectorySkipsWhenPopulated(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "hospitals.csv", [][]string{
		directoryRow("13.0827, 80.2707", "Chennai General", "450"),
	})

	store := &fakeDirectory{existing: 1000}
	require.NoError(t, LoadDirectory(context.Background(), dir, store))
	assert.Empty(t, store.rows)
}

func TestLoadDirectoryNoFiles(t *testing.T) {
	store := &fakeDirectory{}
	require.NoError(t, LoadDirectory(context.Background(), t.TempDir(), store))
	assert.Empty(t, store.rows)
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, ok := parseCoordinates("10.5, -20.25")
	require.True(t, ok)
	assert.Equal(t, 10.5, lat)
	assert.Equal(t, -20.25, lon)

	cases := []string{"", "10.5", "10.5;20.5", "abc, def", "99.0, 20.0", "10.0, 200.0"}
	for _, c := range cases {
		_, _, ok := parseCoordinates(c)
		assert.False(t, ok, "input %q", c)
	}
}
