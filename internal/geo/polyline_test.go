package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The worked example from the polyline format documentation.
func TestDecodePolylineReference(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 38.5, points[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, points[0].Lon, 1e-5)
	assert.InDelta(t, 40.7, points[1].Lat, 1e-5)
	assert.InDelta(t, -120.95, points[1].Lon, 1e-5)
	assert.InDelta(t, 43.252, points[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, points[2].Lon, 1e-5)
}

func TestPolylineRoundTrip(t *testing.T) {
	original := []Point{
		{Lat: 10.0, Lon: 20.0},
		{Lat: 10.01, Lon: 20.01},
		{Lat: -33.86785, Lon: 151.20732},
		{Lat: 51.5074, Lon: -0.1278},
		{Lat: 0, Lon: 0},
	}

	decoded, err := DecodePolyline(EncodePolyline(original))
	require.NoError(t, err)
	require.Len(t, decoded, len(original))
	for i := range original {
		assert.InDelta(t, original[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, original[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestEncodePolylineEmpty(t *testing.T) {
	assert.Equal(t, "", EncodePolyline(nil))

	points, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDecodePolylineTruncated(t *testing.T) {
	// A continuation bit with no following byte.
	_, err := DecodePolyline("_p~iF~ps|U_")
	assert.Error(t, err)
}
