package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
	"github.com/midwaymeet/midwaymeet/internal/core/usecases"
)

// --- Mock MapsProvider ---

type mockMapsProvider struct {
	geocodeFn     func(ctx context.Context, address string) (*domain.GeocodedAddress, error)
	routeFn       func(ctx context.Context, origin, dest domain.Coordinate) (*domain.TransitRoute, error)
	travelTimesFn func(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error)
	nearbyFn      func(ctx context.Context, center domain.Coordinate, radiusM int, placeType string) ([]domain.Venue, error)

	travelTimesCalls int
}

func (m *mockMapsProvider) Geocode(ctx context.Context, address string) (*domain.GeocodedAddress, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return nil, nil
}

func (m *mockMapsProvider) FastestTransitRoute(ctx context.Context, origin, dest domain.Coordinate) (*domain.TransitRoute, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, origin, dest)
	}
	return nil, domain.ErrNoRoute
}

func (m *mockMapsProvider) TravelTimes(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate, cache *domain.TravelTimeCache) ([]domain.TravelTime, error) {
	m.travelTimesCalls++
	if m.travelTimesFn != nil {
		return m.travelTimesFn(ctx, origin, dests)
	}
	out := make([]domain.TravelTime, len(dests))
	for i := range out {
		out[i] = domain.TravelTime{Seconds: 600, OK: true}
	}
	return out, nil
}

func (m *mockMapsProvider) NearbyPlaces(ctx context.Context, center domain.Coordinate, radiusM int, placeType string) ([]domain.Venue, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, center, radiusM, placeType)
	}
	return nil, nil
}

// fixedTimes maps specific destinations to per-origin travel times keyed by
// venue position, so tests can pin the ranking.
func fixedTimes(origin1 domain.Coordinate, times map[domain.Coordinate][2]int) func(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
	return func(_ context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
		out := make([]domain.TravelTime, len(dests))
		for i, d := range dests {
			pair, ok := times[d]
			if !ok {
				out[i] = domain.TravelTime{Seconds: 600, OK: true}
				continue
			}
			if origin == origin1 {
				out[i] = domain.TravelTime{Seconds: pair[0], OK: true}
			} else {
				out[i] = domain.TravelTime{Seconds: pair[1], OK: true}
			}
		}
		return out, nil
	}
}

// --- GeoMidpointFinder ---

func TestGeoMidpointFinder_PrefersBalancedVenue(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 40.0, Lng: -3.0}
	origin2 := domain.Coordinate{Lat: 41.0, Lng: -3.0}
	balanced := domain.Coordinate{Lat: 40.5, Lng: -3.0}
	lopsided := domain.Coordinate{Lat: 40.3, Lng: -3.0}

	provider := &mockMapsProvider{
		nearbyFn: func(_ context.Context, _ domain.Coordinate, _ int, placeType string) ([]domain.Venue, error) {
			if placeType != "establishment" {
				return nil, nil
			}
			return []domain.Venue{
				{PlaceID: "lop", Name: "Lopsided Bar", Location: lopsided},
				{PlaceID: "bal", Name: "Balanced Cafe", Location: balanced},
			}, nil
		},
		travelTimesFn: fixedTimes(origin1, map[domain.Coordinate][2]int{
			// Same total, but one splits 600/600 and the other 300/900.
			balanced: {600, 600},
			lopsided: {300, 900},
		}),
	}

	finder := usecases.NewGeoMidpointFinder(provider, usecases.FinderConfig{})
	result, err := finder.FindMeetingPoint(context.Background(), origin1, origin2, domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected a best candidate")
	}
	if result.Best.Venue == nil || result.Best.Venue.PlaceID != "bal" {
		t.Fatalf("expected balanced venue to win, got %+v", result.Best.Venue)
	}
	if result.Best.DiffSeconds != 0 {
		t.Errorf("expected zero time difference, got %d", result.Best.DiffSeconds)
	}
	if len(result.Alternatives) != 1 || result.Alternatives[0].Venue.PlaceID != "lop" {
		t.Errorf("expected lopsided venue as the alternative, got %+v", result.Alternatives)
	}
	if result.Algorithm != usecases.AlgorithmGeoMidpoint {
		t.Errorf("wrong algorithm label: %s", result.Algorithm)
	}
}

func TestGeoMidpointFinder_EmptyWhenUnreachable(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 40.0, Lng: -3.0}
	origin2 := domain.Coordinate{Lat: 41.0, Lng: -3.0}

	provider := &mockMapsProvider{
		nearbyFn: func(_ context.Context, center domain.Coordinate, _ int, placeType string) ([]domain.Venue, error) {
			if placeType != "establishment" {
				return nil, nil
			}
			return []domain.Venue{{PlaceID: "v1", Name: "Island Bar", Location: center}}, nil
		},
		travelTimesFn: func(_ context.Context, _ domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
			out := make([]domain.TravelTime, len(dests))
			return out, nil // every pair unresolvable
		},
	}

	finder := usecases.NewGeoMidpointFinder(provider, usecases.FinderConfig{})
	result, err := finder.FindMeetingPoint(context.Background(), origin1, origin2, domain.SearchOptions{})
	if err != nil {
		t.Fatalf("an empty search must not be an error, got: %v", err)
	}
	if !result.Empty() {
		t.Fatal("expected an empty result")
	}
	if result.EmptyReason == "" {
		t.Error("empty result must carry a reason")
	}
	if result.Alternatives == nil || len(result.Alternatives) != 0 {
		t.Errorf("expected empty alternatives slice, got %+v", result.Alternatives)
	}
}

func TestGeoMidpointFinder_InvalidOrigins(t *testing.T) {
	finder := usecases.NewGeoMidpointFinder(&mockMapsProvider{}, usecases.FinderConfig{})
	_, err := finder.FindMeetingPoint(context.Background(),
		domain.Coordinate{Lat: 95, Lng: 0}, domain.Coordinate{Lat: 0, Lng: 0}, domain.SearchOptions{})
	if err == nil {
		t.Fatal("expected validation error for latitude out of range")
	}
}

func TestGeoMidpointFinder_MaxAlternativesOverride(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 40.0, Lng: -3.0}
	origin2 := domain.Coordinate{Lat: 41.0, Lng: -3.0}

	provider := &mockMapsProvider{
		nearbyFn: func(_ context.Context, center domain.Coordinate, _ int, placeType string) ([]domain.Venue, error) {
			if placeType != "establishment" {
				return nil, nil
			}
			venues := make([]domain.Venue, 6)
			for i := range venues {
				venues[i] = domain.Venue{
					PlaceID:  string(rune('a' + i)),
					Location: domain.Coordinate{Lat: center.Lat + float64(i)*0.001, Lng: center.Lng},
				}
			}
			return venues, nil
		},
	}

	finder := usecases.NewGeoMidpointFinder(provider, usecases.FinderConfig{})
	result, err := finder.FindMeetingPoint(context.Background(), origin1, origin2,
		domain.SearchOptions{MaxAlternatives: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Alternatives) != 2 {
		t.Errorf("expected 2 alternatives, got %d", len(result.Alternatives))
	}
}

// --- RouteMinimaxFinder ---

// latProportionalTimes models two origins at the ends of a meridian segment:
// travel time from each origin grows linearly with latitude distance.
func latProportionalTimes(origin1 domain.Coordinate) func(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
	return func(_ context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
		out := make([]domain.TravelTime, len(dests))
		for i, d := range dests {
			var frac float64
			if origin == origin1 {
				frac = d.Lat
			} else {
				frac = 1 - d.Lat
			}
			out[i] = domain.TravelTime{Seconds: int(frac * 3600), OK: true}
		}
		return out, nil
	}
}

func TestRouteMinimaxFinder_ConvergesNearRouteMiddle(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 0, Lng: 0}
	origin2 := domain.Coordinate{Lat: 1, Lng: 0}

	provider := &mockMapsProvider{
		routeFn: func(_ context.Context, _, _ domain.Coordinate) (*domain.TransitRoute, error) {
			return &domain.TransitRoute{
				DistanceMeters:  111000,
				DurationSeconds: 3600,
				Path:            []domain.Coordinate{origin1, origin2},
			}, nil
		},
		travelTimesFn: latProportionalTimes(origin1),
		nearbyFn: func(_ context.Context, center domain.Coordinate, _ int, placeType string) ([]domain.Venue, error) {
			if placeType != "establishment" {
				return nil, nil
			}
			return []domain.Venue{{PlaceID: "mid", Name: "Halfway House", Location: center}}, nil
		},
	}

	finder := usecases.NewRouteMinimaxFinder(provider, usecases.FinderConfig{})
	result, err := finder.FindMeetingPoint(context.Background(), origin1, origin2, domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected a best candidate")
	}
	if result.Best.Venue == nil || result.Best.Venue.PlaceID != "mid" {
		t.Fatalf("expected the snapped venue to win, got %+v", result.Best)
	}
	// The true minimax optimum sits at lat 0.5 with both legs at 1800s.
	if result.Best.MaxSeconds > 1900 {
		t.Errorf("refinement did not converge, max travel time %ds", result.Best.MaxSeconds)
	}
	if result.Route == nil {
		t.Error("result must carry the connecting route")
	}
	if len(result.Samples) == 0 {
		t.Error("result must carry diagnostic samples")
	}
	if result.Algorithm != usecases.AlgorithmRouteMinimax {
		t.Errorf("wrong algorithm label: %s", result.Algorithm)
	}
}

func TestRouteMinimaxFinder_NoRouteAbortsBeforeSampling(t *testing.T) {
	provider := &mockMapsProvider{
		routeFn: func(_ context.Context, _, _ domain.Coordinate) (*domain.TransitRoute, error) {
			return nil, domain.ErrNoRoute
		},
	}

	finder := usecases.NewRouteMinimaxFinder(provider, usecases.FinderConfig{})
	_, err := finder.FindMeetingPoint(context.Background(),
		domain.Coordinate{Lat: 40, Lng: -3}, domain.Coordinate{Lat: 41, Lng: -3}, domain.SearchOptions{})
	if !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if provider.travelTimesCalls != 0 {
		t.Errorf("no travel times may be requested without a route, got %d calls", provider.travelTimesCalls)
	}
}

func TestRouteMinimaxFinder_RefinementWindowTracksSampleCountOverride(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 0, Lng: 0}
	origin2 := domain.Coordinate{Lat: 1, Lng: 0}

	// Latitude span of every refinement batch. With 100 samples the first
	// refinement window is best±0.01; sizing it from the configured default
	// of 30 would span more than 0.06.
	var refineSpans []float64
	inner := latProportionalTimes(origin1)

	provider := &mockMapsProvider{
		routeFn: func(_ context.Context, _, _ domain.Coordinate) (*domain.TransitRoute, error) {
			return &domain.TransitRoute{
				DistanceMeters: 111000,
				Path:           []domain.Coordinate{origin1, origin2},
			}, nil
		},
		travelTimesFn: func(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.TravelTime, error) {
			// Seed batches have 1 destination, corridor batches ~100;
			// anything in between is a refinement batch.
			if len(dests) > 1 && len(dests) < 90 {
				lo, hi := dests[0].Lat, dests[0].Lat
				for _, d := range dests {
					if d.Lat < lo {
						lo = d.Lat
					}
					if d.Lat > hi {
						hi = d.Lat
					}
				}
				refineSpans = append(refineSpans, hi-lo)
			}
			return inner(ctx, origin, dests)
		},
	}

	finder := usecases.NewRouteMinimaxFinder(provider, usecases.FinderConfig{})
	_, err := finder.FindMeetingPoint(context.Background(), origin1, origin2,
		domain.SearchOptions{SampleCount: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refineSpans) == 0 {
		t.Fatal("no refinement batches observed")
	}
	for i, span := range refineSpans {
		if span > 0.05 {
			t.Errorf("refinement batch %d spans %.4f of the route, window ignores the sample count override", i, span)
		}
	}
}

func TestRouteMinimaxFinder_FallsBackToCorridorPoint(t *testing.T) {
	origin1 := domain.Coordinate{Lat: 0, Lng: 0}
	origin2 := domain.Coordinate{Lat: 1, Lng: 0}

	provider := &mockMapsProvider{
		routeFn: func(_ context.Context, _, _ domain.Coordinate) (*domain.TransitRoute, error) {
			return &domain.TransitRoute{
				DistanceMeters: 111000,
				Path:           []domain.Coordinate{origin1, origin2},
			}, nil
		},
		travelTimesFn: latProportionalTimes(origin1),
		// No venues anywhere.
	}

	finder := usecases.NewRouteMinimaxFinder(provider, usecases.FinderConfig{})
	result, err := finder.FindMeetingPoint(context.Background(), origin1, origin2, domain.SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected the raw corridor optimum as fallback")
	}
	if result.Best.Venue != nil {
		t.Errorf("no venue should be attached, got %+v", result.Best.Venue)
	}
	if result.Best.MaxSeconds > 1900 {
		t.Errorf("fallback point not near the optimum, max travel time %ds", result.Best.MaxSeconds)
	}
}

// --- NewFinder ---

func TestNewFinder_Strategies(t *testing.T) {
	provider := &mockMapsProvider{}

	for _, tc := range []struct {
		strategy string
		want     string
	}{
		{"", usecases.AlgorithmGeoMidpoint},
		{"default", usecases.AlgorithmGeoMidpoint},
		{usecases.AlgorithmGeoMidpoint, usecases.AlgorithmGeoMidpoint},
		{usecases.AlgorithmRouteMinimax, usecases.AlgorithmRouteMinimax},
	} {
		f, err := usecases.NewFinder(tc.strategy, provider, usecases.FinderConfig{})
		if err != nil {
			t.Fatalf("strategy %q: %v", tc.strategy, err)
		}
		if f.Algorithm() != tc.want {
			t.Errorf("strategy %q: got %s, want %s", tc.strategy, f.Algorithm(), tc.want)
		}
	}

	if _, err := usecases.NewFinder("dartboard", provider, usecases.FinderConfig{}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
