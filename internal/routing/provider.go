// Package routing computes driving routes between an ambulance and a
// hospital.  Two providers exist: the GraphHopper cloud API and a
// straight-line estimate.  The failover wrapper selects between them
// so callers never observe a routing failure.
package routing

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/model"
)

// DefaultProfile is the vehicle profile requested when the caller
// does not specify one.
const DefaultProfile = "car"

// Provider computes a route between two coordinate pairs.
type Provider interface {
	Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64, profile string) (*model.Route, error)
}

// failover tries a primary provider and silently falls back to a
// secondary one on any error.  The secondary must be infallible for
// valid coordinates (the straight-line provider is).
type failover struct {
	primary   Provider
	secondary Provider
}

// WithFallback wraps primary so that any failure is recovered via
// secondary.  A nil primary means "not configured" and routes go
// straight to the secondary.
func WithFallback(primary, secondary Provider) Provider {
	return &failover{primary: primary, secondary: secondary}
}

func (f *failover) Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64, profile string) (*model.Route, error) {
	if f.primary != nil {
		route, err := f.primary.Route(ctx, fromLat, fromLon, toLat, toLon, profile)
		if err == nil {
			return route, nil
		}
		// Degraded routing quality is operationally relevant, so log
		// it even though the caller never sees the failure.
		log.Warn().Err(err).Msg("routing: primary provider failed, using straight-line fallback")
	}
	return f.secondary.Route(ctx, fromLat, fromLon, toLat, toLon, profile)
}
