package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openems/bed-allocation/internal/model"
)

// stubProvider returns a canned route or error.
type stubProvider struct {
	route *model.Route
	err   error
	calls int
}

func (s *stubProvider) Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64, profile string) (*model.Route, error) {
	s.calls++
	return s.route, s.err
}

func TestStraightLineRoute(t *testing.T) {
	route, err := NewStraightLine().Route(context.Background(), 10.0, 20.0, 10.01, 20.01, DefaultProfile)
	require.NoError(t, err)

	require.Len(t, route.Points, 2)
	assert.Equal(t, 10.0, route.Points[0].Lat)
	assert.Equal(t, 20.0, route.Points[0].Lon)
	assert.Equal(t, 10.01, route.Points[1].Lat)
	assert.Equal(t, 20.01, route.Points[1].Lon)

	assert.InDelta(t, 1560, route.DistanceMeters, 20)
	assert.Empty(t, route.Encoded)

	// 1.56 km at 40 km/h is about 2 minutes 20 seconds.
	expected := time.Duration(route.DistanceMeters / 1000 / 40.0 * float64(time.Hour))
	assert.Equal(t, expected, route.Duration)
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubProvider{route: &model.Route{DistanceMeters: 4242}}
	secondary := &stubProvider{route: &model.Route{DistanceMeters: 1}}

	route, err := WithFallback(primary, secondary).Route(context.Background(), 0, 0, 1, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 4242.0, route.DistanceMeters)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls)
}

func TestFailoverFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubProvider{err: errors.New("upstream 503")}

	route, err := WithFallback(primary, NewStraightLine()).Route(context.Background(), 10.0, 20.0, 10.01, 20.01, "")
	require.NoError(t, err)
	assert.Len(t, route.Points, 2)
	assert.InDelta(t, 1560, route.DistanceMeters, 20)
	assert.Equal(t, 1, primary.calls)
}

func TestFailoverNilPrimaryGoesStraightToSecondary(t *testing.T) {
	route, err := WithFallback(nil, NewStraightLine()).Route(context.Background(), 0, 0, 0, 1, "")
	require.NoError(t, err)
	assert.Len(t, route.Points, 2)
}
