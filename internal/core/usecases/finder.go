package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
	"github.com/midwaymeet/midwaymeet/internal/core/ports"
	"github.com/midwaymeet/midwaymeet/internal/pkg/geospatial"
)

// Strategy identifiers, selectable per request.
const (
	AlgorithmGeoMidpoint  = "geo-midpoint"
	AlgorithmRouteMinimax = "route-minimax"
)

// FinderConfig holds the search tuning knobs shared by both strategies.
// Values are fixed configuration, not derived at runtime.
type FinderConfig struct {
	FairnessWeight    float64
	EfficiencyWeight  float64
	SearchRadiusM     int
	MaxAlternatives   int
	SampleCount       int
	LateralOffsetsM   []float64
	RefineRounds      int
	RefineSamples     int
	WindowShrink      float64
	VenueSnapRadiusM  int
	MinSampleSpacingM float64
}

// withDefaults fills unset knobs.
func (c FinderConfig) withDefaults() FinderConfig {
	if c.FairnessWeight <= 0 {
		c.FairnessWeight = 0.7
	}
	if c.EfficiencyWeight <= 0 {
		c.EfficiencyWeight = 0.3
	}
	if c.SearchRadiusM <= 0 {
		c.SearchRadiusM = 2000
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = 5
	}
	if c.SampleCount <= 0 {
		c.SampleCount = 30
	}
	if len(c.LateralOffsetsM) == 0 {
		c.LateralOffsetsM = []float64{-60, 0, 60}
	}
	if c.RefineRounds <= 0 {
		c.RefineRounds = 3
	}
	if c.RefineSamples <= 0 {
		c.RefineSamples = 10
	}
	if c.WindowShrink <= 0 || c.WindowShrink >= 1 {
		c.WindowShrink = 0.5
	}
	if c.VenueSnapRadiusM <= 0 {
		c.VenueSnapRadiusM = 150
	}
	if c.MinSampleSpacingM <= 0 {
		c.MinSampleSpacingM = 200
	}
	return c
}

// NewFinder returns the finder for a strategy identifier.
func NewFinder(strategy string, provider ports.MapsProvider, cfg FinderConfig) (ports.MeetingPointFinder, error) {
	switch strategy {
	case AlgorithmGeoMidpoint, "", "default":
		return NewGeoMidpointFinder(provider, cfg), nil
	case AlgorithmRouteMinimax:
		return NewRouteMinimaxFinder(provider, cfg), nil
	default:
		return nil, fmt.Errorf("unknown meeting-point strategy: %s", strategy)
	}
}

// evaluateCandidates zips per-origin travel times with the candidate list,
// dropping every candidate missing a travel time from either origin. A pair
// the provider could not resolve is excluded, never scored as zero.
func evaluateCandidates(candidates []domain.CandidatePoint, t1s, t2s []domain.TravelTime) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for i, cand := range candidates {
		if i >= len(t1s) || i >= len(t2s) || !t1s[i].OK || !t2s[i].OK {
			continue
		}
		t1, t2 := t1s[i].Seconds, t2s[i].Seconds
		sc := domain.ScoredCandidate{
			CandidatePoint:  cand,
			TimeFromOrigin1: t1,
			TimeFromOrigin2: t2,
			TotalSeconds:    t1 + t2,
		}
		if t1 > t2 {
			sc.MaxSeconds, sc.DiffSeconds = t1, t1-t2
		} else {
			sc.MaxSeconds, sc.DiffSeconds = t2, t2-t1
		}
		scored = append(scored, sc)
	}
	return scored
}

// compositeScore is the default strategy's objective: a weighted blend of a
// fairness term penalizing travel-time imbalance and an efficiency term
// penalizing long worst-case commutes. Higher is better.
func (c FinderConfig) compositeScore(sc *domain.ScoredCandidate) float64 {
	fairness := 1.0 / (1.0 + float64(sc.DiffSeconds))
	efficiency := 1.0 / (1.0 + float64(sc.MaxSeconds))
	return c.FairnessWeight*fairness + c.EfficiencyWeight*efficiency
}

// sortMinimax orders candidates by ascending max travel time, tie-broken by
// ascending time difference.
func sortMinimax(scored []domain.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MaxSeconds != scored[j].MaxSeconds {
			return scored[i].MaxSeconds < scored[j].MaxSeconds
		}
		return scored[i].DiffSeconds < scored[j].DiffSeconds
	})
}

// providerPlaceTypes maps the app taxonomy to the provider's place-type
// parameter for categorized searches.
var providerPlaceTypes = map[domain.Category]string{
	domain.CategoryRestaurant: "restaurant",
	domain.CategoryCafe:       "cafe",
	domain.CategoryBar:        "bar",
	domain.CategoryShopping:   "shopping_mall",
	domain.CategoryPark:       "park",
	domain.CategoryAttraction: "tourist_attraction",
	domain.CategoryGym:        "gym",
	domain.CategoryLibrary:    "library",
}

// categorizedVenues runs one nearby search per category concurrently. Each
// category fails soft to an empty list via the provider contract.
func categorizedVenues(ctx context.Context, provider ports.MapsProvider, center domain.Coordinate, radiusM int) map[domain.Category][]domain.Venue {
	cats := domain.Categories()
	lists := make([][]domain.Venue, len(cats))

	var wg sync.WaitGroup
	for i, cat := range cats {
		placeType, ok := providerPlaceTypes[cat]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, placeType string) {
			defer wg.Done()
			venues, _ := provider.NearbyPlaces(ctx, center, radiusM, placeType)
			lists[i] = venues
		}(i, placeType)
	}
	wg.Wait()

	out := make(map[domain.Category][]domain.Venue, len(cats))
	for i, cat := range cats {
		if _, ok := providerPlaceTypes[cat]; ok {
			out[cat] = lists[i]
		}
	}
	return out
}

// thinSamples reduces a scored sample list for diagnostic display, keeping a
// minimum spacing between retained points. The input is assumed sorted best
// first, so the best sample always survives.
func thinSamples(scored []domain.ScoredCandidate, minSpacingM float64) []domain.ScoredCandidate {
	var kept []domain.ScoredCandidate
	for _, sc := range scored {
		tooClose := false
		for _, k := range kept {
			if geospatial.Distance(sc.Location, k.Location) < minSpacingM {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, sc)
		}
	}
	return kept
}

// seedTravelTimes fetches the diagnostic transit times from both origins to
// the seed point through the batched path, warming the per-search cache.
func seedTravelTimes(ctx context.Context, provider ports.MapsProvider, origin1, origin2, seed domain.Coordinate, cache *domain.TravelTimeCache) (domain.SeedTransitTimes, error) {
	t1s, err := provider.TravelTimes(ctx, origin1, []domain.Coordinate{seed}, cache)
	if err != nil {
		return domain.SeedTransitTimes{}, err
	}
	t2s, err := provider.TravelTimes(ctx, origin2, []domain.Coordinate{seed}, cache)
	if err != nil {
		return domain.SeedTransitTimes{}, err
	}
	st := domain.SeedTransitTimes{}
	if len(t1s) > 0 {
		st.FromOrigin1 = t1s[0]
	}
	if len(t2s) > 0 {
		st.FromOrigin2 = t2s[0]
	}
	return st, nil
}

func validateOrigins(origin1, origin2 domain.Coordinate) error {
	if !origin1.Valid() || !origin2.Valid() {
		return fmt.Errorf("origins must be valid WGS 84 coordinates")
	}
	return nil
}
