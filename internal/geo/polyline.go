package geo

import (
	"fmt"
	"math"
	"strings"
)

// polylineScale fixes coordinate precision at five decimal degrees,
// the precision used by GraphHopper and Google encoded paths.
const polylineScale = 1e5

// DecodePolyline expands a compact encoded path into coordinates.
// Each coordinate is a zig-zag encoded signed delta from the previous
// point, split into 5-bit groups with a continuation bit and shifted
// into the printable ASCII range.  An error is returned when the
// string ends mid-coordinate.
func DecodePolyline(encoded string) ([]Point, error) {
	var points []Point
	var lat, lon int64
	index := 0
	for index < len(encoded) {
		dLat, next, err := decodeDelta(encoded, index)
		if err != nil {
			return nil, err
		}
		dLon, after, err := decodeDelta(encoded, next)
		if err != nil {
			return nil, err
		}
		index = after
		lat += dLat
		lon += dLon
		points = append(points, Point{
			Lat: float64(lat) / polylineScale,
			Lon: float64(lon) / polylineScale,
		})
	}
	return points, nil
}

// decodeDelta reads one zig-zag encoded value starting at index and
// returns the signed delta plus the index of the next unread byte.
func decodeDelta(encoded string, index int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if index >= len(encoded) {
			return 0, 0, fmt.Errorf("decode polyline: truncated at byte %d", index)
		}
		b := int64(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// EncodePolyline produces the compact encoded form of a path at five
// decimal degree precision.  decode(encode(p)) reproduces p within
// 1e-5 of each coordinate.
func EncodePolyline(points []Point) string {
	var sb strings.Builder
	var prevLat, prevLon int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * polylineScale))
		lon := int64(math.Round(p.Lon * polylineScale))
		encodeDelta(&sb, lat-prevLat)
		encodeDelta(&sb, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return sb.String()
}

func encodeDelta(sb *strings.Builder, delta int64) {
	v := delta << 1
	if delta < 0 {
		v = ^v
	}
	for v >= 0x20 {
		sb.WriteByte(byte(0x20|(v&0x1f)) + 63)
		v >>= 5
	}
	sb.WriteByte(byte(v) + 63)
}
