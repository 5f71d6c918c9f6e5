// Package polyline implements the Google encoded-polyline algorithm:
// lat/lng deltas scaled by 1e5, zig-zag signed, split into 5-bit groups
// offset by 63.
package polyline

import (
	"strings"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
)

// Decode converts an encoded polyline into an ordered coordinate path.
// Malformed input never panics or errors; it yields an empty path, which
// callers treat as a legitimate "no path" degraded state.
func Decode(encoded string) []domain.Coordinate {
	if encoded == "" {
		return nil
	}

	var path []domain.Coordinate
	lat, lng := 0, 0

	for i := 0; i < len(encoded); {
		dlat, next, ok := decodeDelta(encoded, i)
		if !ok {
			return nil
		}
		lat += dlat

		dlng, next2, ok := decodeDelta(encoded, next)
		if !ok {
			return nil
		}
		lng += dlng
		i = next2

		path = append(path, domain.Coordinate{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}
	return path
}

// decodeDelta reads one zig-zag varint starting at index i. ok is false when
// the input ends mid-value or carries an out-of-range byte.
func decodeDelta(s string, i int) (delta, next int, ok bool) {
	result, shift := 0, 0
	for {
		if i >= len(s) {
			return 0, 0, false
		}
		b := int(s[i]) - 63
		if b < 0 {
			return 0, 0, false
		}
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, true
	}
	return result >> 1, i, true
}

// Encode converts a coordinate path into an encoded polyline. Round-trips
// with Decode within 1e-5 degrees per point.
func Encode(path []domain.Coordinate) string {
	var sb strings.Builder
	prevLat, prevLng := 0, 0

	for _, p := range path {
		lat := int(round(p.Lat * 1e5))
		lng := int(round(p.Lng * 1e5))
		encodeDelta(&sb, lat-prevLat)
		encodeDelta(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func encodeDelta(sb *strings.Builder, delta int) {
	v := delta << 1
	if delta < 0 {
		v = ^v
	}
	for v >= 0x20 {
		sb.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	sb.WriteByte(byte(v + 63))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}
