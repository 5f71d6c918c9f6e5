package usecases

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
	"github.com/midwaymeet/midwaymeet/internal/core/ports"
	"github.com/midwaymeet/midwaymeet/internal/pkg/geospatial"
	"github.com/midwaymeet/midwaymeet/internal/pkg/metrics"
)

// GeoMidpointFinder seeds the search at the great-circle midpoint of the two
// origins, discovers venues around it, and ranks them by the composite
// fairness/efficiency score. The midpoint is only a search seed, never the
// answer itself.
type GeoMidpointFinder struct {
	provider ports.MapsProvider
	cfg      FinderConfig
}

// NewGeoMidpointFinder creates the default-strategy finder.
func NewGeoMidpointFinder(provider ports.MapsProvider, cfg FinderConfig) *GeoMidpointFinder {
	return &GeoMidpointFinder{provider: provider, cfg: cfg.withDefaults()}
}

// Algorithm returns the strategy identifier.
func (f *GeoMidpointFinder) Algorithm() string { return AlgorithmGeoMidpoint }

// FindMeetingPoint runs one midpoint-seeded venue search.
func (f *GeoMidpointFinder) FindMeetingPoint(ctx context.Context, origin1, origin2 domain.Coordinate, opts domain.SearchOptions) (*domain.MeetingPointResult, error) {
	if err := validateOrigins(origin1, origin2); err != nil {
		return nil, err
	}

	radius := f.cfg.SearchRadiusM
	if opts.SearchRadiusM > 0 {
		radius = opts.SearchRadiusM
	}
	maxAlternatives := f.cfg.MaxAlternatives
	if opts.MaxAlternatives > 0 {
		maxAlternatives = opts.MaxAlternatives
	}

	start := time.Now()
	cache := domain.NewTravelTimeCache()
	seed := geospatial.Midpoint(origin1, origin2)

	seedTimes, err := seedTravelTimes(ctx, f.provider, origin1, origin2, seed, cache)
	if err != nil {
		return nil, err
	}

	result := &domain.MeetingPointResult{
		Algorithm:        f.Algorithm(),
		SeedPoint:        seed,
		SeedTransitTimes: seedTimes,
	}

	// Venue discovery around the seed; general pool for scoring plus the
	// categorized breakdown for presentation.
	venues, err := f.provider.NearbyPlaces(ctx, seed, radius, "establishment")
	if err != nil {
		return nil, err
	}
	result.CategorizedVenues = categorizedVenues(ctx, f.provider, seed, radius)

	scored, err := f.scoreVenues(ctx, origin1, origin2, venues, cache)
	if err != nil {
		return nil, err
	}
	metrics.SearchCandidates.WithLabelValues(f.Algorithm()).Observe(float64(len(venues)))

	if len(scored) == 0 {
		result.EmptyReason = "no venue near the midpoint is reachable by transit from both origins"
		result.Alternatives = []domain.ScoredCandidate{}
		metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "empty").Inc()
		slog.Info("midpoint search found no qualifying venue",
			"seed_lat", seed.Lat, "seed_lng", seed.Lng, "venues_considered", len(venues))
		return result, nil
	}

	result.Best = &scored[0]
	end := 1 + maxAlternatives
	if end > len(scored) {
		end = len(scored)
	}
	result.Alternatives = scored[1:end]

	metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "found").Inc()
	metrics.SearchDuration.WithLabelValues(f.Algorithm()).Observe(time.Since(start).Seconds())
	return result, nil
}

// scoreVenues batch-resolves travel times from both origins to every venue
// and ranks by descending composite score. Venues missing a travel time from
// either origin are excluded from consideration.
func (f *GeoMidpointFinder) scoreVenues(ctx context.Context, origin1, origin2 domain.Coordinate, venues []domain.Venue, cache *domain.TravelTimeCache) ([]domain.ScoredCandidate, error) {
	if len(venues) == 0 {
		return nil, nil
	}

	candidates := make([]domain.CandidatePoint, len(venues))
	coords := make([]domain.Coordinate, len(venues))
	byLocation := make(map[domain.Coordinate]*domain.Venue, len(venues))
	for i := range venues {
		candidates[i] = domain.CandidatePoint{Location: venues[i].Location, Source: domain.SourceVenue}
		coords[i] = venues[i].Location
		byLocation[venues[i].Location] = &venues[i]
	}

	t1s, err := f.provider.TravelTimes(ctx, origin1, coords, cache)
	if err != nil {
		return nil, err
	}
	t2s, err := f.provider.TravelTimes(ctx, origin2, coords, cache)
	if err != nil {
		return nil, err
	}

	scored := evaluateCandidates(candidates, t1s, t2s)
	for i := range scored {
		scored[i].Venue = byLocation[scored[i].Location]
		scored[i].Score = f.cfg.compositeScore(&scored[i])
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].MaxSeconds < scored[j].MaxSeconds
	})
	return scored, nil
}
