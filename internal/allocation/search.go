package allocation

import (
	"context"
	"sort"

	"github.com/openems/bed-allocation/internal/geo"
	"github.com/openems/bed-allocation/internal/model"
)

// DefaultPasses are the bounding-box half-widths, in degrees, of the
// widening search passes.  The final 180-degree pass covers the whole
// globe, so the search always terminates after a bounded number of
// passes.
var DefaultPasses = []float64{1.0, 6.0, 180.0}

// candidate is one hospital in a pass, annotated with its true
// great-circle distance from the origin.
type candidate struct {
	hospital model.Hospital
	distKm   float64
}

// candidatesWithinPass runs one bounding-box pass and returns the
// geocoded hospitals holding at least one AVAILABLE bed of the
// requested type, sorted by true distance ascending.  The sort is
// stable and the catalog returns rows in id order, so equal distances
// resolve deterministically by hospital id.
func (e *Engine) candidatesWithinPass(ctx context.Context, originLat, originLon, halfWidth float64, bedType model.BedType) ([]candidate, error) {
	hospitals, err := e.hospitals.FindWithinBox(ctx,
		originLat-halfWidth, originLat+halfWidth,
		originLon-halfWidth, originLon+halfWidth,
		bedType,
	)
	if err != nil {
		return nil, err
	}
	candidates := make([]candidate, 0, len(hospitals))
	for _, h := range hospitals {
		if !h.Geocoded() {
			continue
		}
		candidates = append(candidates, candidate{
			hospital: h,
			distKm:   geo.DistanceKm(originLat, originLon, *h.Latitude, *h.Longitude),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distKm < candidates[j].distKm
	})
	return candidates, nil
}
