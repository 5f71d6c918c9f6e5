package polyline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
)

// Reference example from the Google polyline algorithm documentation.
func TestDecode_KnownVector(t *testing.T) {
	path := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	want := []domain.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	if len(path) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(path))
	}
	for i := range want {
		if math.Abs(path[i].Lat-want[i].Lat) > 1e-5 || math.Abs(path[i].Lng-want[i].Lng) > 1e-5 {
			t.Errorf("point %d: got %+v, want %+v", i, path[i], want[i])
		}
	}
}

func TestEncode_KnownVector(t *testing.T) {
	got := Encode([]domain.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	})
	if got != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Errorf("unexpected encoding: %q", got)
	}
}

func TestRoundTrip_RandomPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		path := make([]domain.Coordinate, n)
		for i := range path {
			path[i] = domain.Coordinate{
				Lat: rng.Float64()*180 - 90,
				Lng: rng.Float64()*360 - 180,
			}
		}

		decoded := Decode(Encode(path))
		if len(decoded) != n {
			t.Fatalf("trial %d: expected %d points, got %d", trial, n, len(decoded))
		}
		for i := range path {
			if math.Abs(decoded[i].Lat-path[i].Lat) > 1e-5 {
				t.Fatalf("trial %d point %d: lat %v vs %v", trial, i, decoded[i].Lat, path[i].Lat)
			}
			if math.Abs(decoded[i].Lng-path[i].Lng) > 1e-5 {
				t.Fatalf("trial %d point %d: lng %v vs %v", trial, i, decoded[i].Lng, path[i].Lng)
			}
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []string{
		"_p~iF",         // truncated mid-pair
		"_p~iF~ps|U_",   // truncated continuation
		"\x1f\x1f",      // bytes below the base-63 offset
	}
	for _, in := range cases {
		if got := Decode(in); got != nil {
			t.Errorf("Decode(%q): expected empty path, got %d points", in, len(got))
		}
	}
	if got := Decode(""); got != nil {
		t.Errorf("Decode(empty): expected nil, got %v", got)
	}
}
