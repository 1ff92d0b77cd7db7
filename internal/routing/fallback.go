package routing

import (
	"context"
	"time"

	"github.com/openems/bed-allocation/internal/geo"
	"github.com/openems/bed-allocation/internal/model"
)

// fallbackSpeedKmh is the assumed average ambulance speed for the
// straight-line duration estimate.
const fallbackSpeedKmh = 40.0

// StraightLine estimates routes without any external dependency: the
// distance is the great-circle distance, the duration assumes a fixed
// average speed, and the path is just origin and destination.  It
// never fails for valid coordinates.
type StraightLine struct{}

// NewStraightLine returns the deterministic fallback provider.
func NewStraightLine() *StraightLine { return &StraightLine{} }

func (s *StraightLine) Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64, profile string) (*model.Route, error) {
	distKm := geo.DistanceKm(fromLat, fromLon, toLat, toLon)
	duration := time.Duration(distKm / fallbackSpeedKmh * float64(time.Hour))
	return &model.Route{
		DistanceMeters: distKm * 1000,
		Duration:       duration,
		Points: []geo.Point{
			{Lat: fromLat, Lon: fromLon},
			{Lat: toLat, Lon: toLon},
		},
	}, nil
}
