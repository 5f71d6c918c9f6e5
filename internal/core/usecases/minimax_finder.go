package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
	"github.com/midwaymeet/midwaymeet/internal/core/ports"
	"github.com/midwaymeet/midwaymeet/internal/pkg/geospatial"
	"github.com/midwaymeet/midwaymeet/internal/pkg/metrics"
)

// RouteMinimaxFinder samples candidate points along the fastest transit route
// between the two origins and minimizes the worse of the two travel times.
// Sampling covers the route corridor: evenly spaced path fractions plus
// perpendicular offsets at each fraction, refined by a shrinking-window hill
// climb around the incumbent before snapping to a real venue.
type RouteMinimaxFinder struct {
	provider ports.MapsProvider
	cfg      FinderConfig
}

// NewRouteMinimaxFinder creates the route-corridor minimax finder.
func NewRouteMinimaxFinder(provider ports.MapsProvider, cfg FinderConfig) *RouteMinimaxFinder {
	return &RouteMinimaxFinder{provider: provider, cfg: cfg.withDefaults()}
}

// Algorithm returns the strategy identifier.
func (f *RouteMinimaxFinder) Algorithm() string { return AlgorithmRouteMinimax }

// FindMeetingPoint runs one route-sampled minimax search. If no transit route
// exists between the origins the error is returned before any sampling.
func (f *RouteMinimaxFinder) FindMeetingPoint(ctx context.Context, origin1, origin2 domain.Coordinate, opts domain.SearchOptions) (*domain.MeetingPointResult, error) {
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
	sampleCount := f.cfg.SampleCount
	if opts.SampleCount > 0 {
		sampleCount = opts.SampleCount
	}
	offsets := f.cfg.LateralOffsetsM
	if len(opts.LateralOffsetsM) > 0 {
		offsets = opts.LateralOffsetsM
	}

	start := time.Now()
	cache := domain.NewTravelTimeCache()

	route, err := f.provider.FastestTransitRoute(ctx, origin1, origin2)
	if err != nil {
		if errors.Is(err, domain.ErrNoRoute) {
			metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "no_route").Inc()
		}
		return nil, err
	}
	path := geospatial.NewPath(route.Path)
	if path.TotalMeters() == 0 {
		metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "no_route").Inc()
		return nil, domain.ErrNoRoute
	}

	seed := path.PointAt(0.5)
	seedTimes, err := seedTravelTimes(ctx, f.provider, origin1, origin2, seed, cache)
	if err != nil {
		return nil, err
	}

	result := &domain.MeetingPointResult{
		Algorithm:        f.Algorithm(),
		SeedPoint:        seed,
		SeedTransitTimes: seedTimes,
		Route:            route,
	}

	candidates := f.corridorCandidates(path, 0, 1, sampleCount, offsets, domain.SourceRouteSample)
	scored, err := f.scoreCandidates(ctx, origin1, origin2, candidates, cache)
	if err != nil {
		return nil, err
	}
	evaluated := len(candidates)

	if len(scored) == 0 {
		result.EmptyReason = "no point along the route is reachable by transit from both origins"
		result.Alternatives = []domain.ScoredCandidate{}
		metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "empty").Inc()
		metrics.SearchCandidates.WithLabelValues(f.Algorithm()).Observe(float64(evaluated))
		slog.Info("minimax search found no reachable corridor point",
			"route_meters", route.DistanceMeters, "samples", evaluated)
		return result, nil
	}

	scored, refined, err := f.refine(ctx, origin1, origin2, path, scored, offsets, sampleCount, cache)
	if err != nil {
		return nil, err
	}
	evaluated += refined

	best := scored[0]
	result.Samples = thinSamples(scored, f.cfg.MinSampleSpacingM)

	venueScored, err := f.snapToVenues(ctx, origin1, origin2, best.Location, radius, cache)
	if err != nil {
		return nil, err
	}
	evaluated += len(venueScored)
	result.CategorizedVenues = categorizedVenues(ctx, f.provider, best.Location, radius)

	if len(venueScored) > 0 {
		result.Best = &venueScored[0]
		end := 1 + maxAlternatives
		if end > len(venueScored) {
			end = len(venueScored)
		}
		result.Alternatives = venueScored[1:end]
	} else {
		// No venue near the optimum; the raw corridor point still answers
		// the question of where to meet.
		result.Best = &best
		end := 1 + maxAlternatives
		if end > len(scored) {
			end = len(scored)
		}
		result.Alternatives = scored[1:end]
	}

	metrics.SearchesTotal.WithLabelValues(f.Algorithm(), "found").Inc()
	metrics.SearchDuration.WithLabelValues(f.Algorithm()).Observe(time.Since(start).Seconds())
	metrics.SearchCandidates.WithLabelValues(f.Algorithm()).Observe(float64(evaluated))
	return result, nil
}

// corridorCandidates generates count evenly spaced fractions in [lo, hi] and,
// at each, one candidate per lateral offset placed perpendicular to the local
// route bearing. Near-duplicate points are dropped.
func (f *RouteMinimaxFinder) corridorCandidates(path *geospatial.Path, lo, hi float64, count int, offsets []float64, source domain.CandidateSource) []domain.CandidatePoint {
	if count < 1 {
		count = 1
	}
	var out []domain.CandidatePoint
	seen := make(map[domain.Coordinate]struct{})
	for i := 0; i < count; i++ {
		frac := lo
		if count > 1 {
			frac = lo + (hi-lo)*float64(i)/float64(count-1)
		}
		base := path.PointAt(frac)
		bearing := path.BearingAt(frac)
		for _, off := range offsets {
			p := base
			src := source
			if off != 0 {
				p = geospatial.Offset(base, bearing+math.Pi/2, off)
				if src == domain.SourceRouteSample {
					src = domain.SourceLateralOffset
				}
			}
			key := domain.Coordinate{Lat: math.Round(p.Lat*1e5) / 1e5, Lng: math.Round(p.Lng*1e5) / 1e5}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.CandidatePoint{
				Location:       p,
				Source:         src,
				RouteFraction:  frac,
				LateralOffsetM: off,
			})
		}
	}
	return out
}

// scoreCandidates batch-resolves travel times for the candidate set and
// returns it in minimax order.
func (f *RouteMinimaxFinder) scoreCandidates(ctx context.Context, origin1, origin2 domain.Coordinate, candidates []domain.CandidatePoint, cache *domain.TravelTimeCache) ([]domain.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	coords := make([]domain.Coordinate, len(candidates))
	for i, c := range candidates {
		coords[i] = c.Location
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
		scored[i].Score = f.cfg.compositeScore(&scored[i])
	}
	sortMinimax(scored)
	return scored, nil
}

// refine hill-climbs around the incumbent best: each round resamples a
// fraction window centered on the incumbent, shrinking the window every
// round, and stops early the first time a round fails to improve the
// incumbent's max travel time. The window starts at one inter-sample gap of
// the pass that produced the incumbent. Returns the merged ordering and the
// number of extra candidates evaluated.
func (f *RouteMinimaxFinder) refine(ctx context.Context, origin1, origin2 domain.Coordinate, path *geospatial.Path, scored []domain.ScoredCandidate, offsets []float64, sampleCount int, cache *domain.TravelTimeCache) ([]domain.ScoredCandidate, int, error) {
	window := 1.0 / float64(sampleCount)
	if window <= 0 {
		window = 0.05
	}
	evaluated := 0

	for round := 0; round < f.cfg.RefineRounds; round++ {
		best := scored[0]
		lo := math.Max(0, best.RouteFraction-window)
		hi := math.Min(1, best.RouteFraction+window)

		cands := f.corridorCandidates(path, lo, hi, f.cfg.RefineSamples, offsets, domain.SourceRefinement)
		evaluated += len(cands)
		roundScored, err := f.scoreCandidates(ctx, origin1, origin2, cands, cache)
		if err != nil {
			return nil, evaluated, err
		}

		if len(roundScored) == 0 || roundScored[0].MaxSeconds >= best.MaxSeconds {
			break
		}
		scored = append(scored, roundScored...)
		sortMinimax(scored)
		window *= f.cfg.WindowShrink
	}
	return scored, evaluated, nil
}

// snapToVenues searches for venues around the optimum point and ranks them by
// the minimax criterion, keeping only venues within the snap radius.
func (f *RouteMinimaxFinder) snapToVenues(ctx context.Context, origin1, origin2, optimum domain.Coordinate, radiusM int, cache *domain.TravelTimeCache) ([]domain.ScoredCandidate, error) {
	venues, err := f.provider.NearbyPlaces(ctx, optimum, radiusM, "establishment")
	if err != nil {
		return nil, err
	}

	var near []domain.Venue
	for _, v := range venues {
		if geospatial.Distance(optimum, v.Location) <= float64(f.cfg.VenueSnapRadiusM) {
			near = append(near, v)
		}
	}
	if len(near) == 0 {
		return nil, nil
	}

	candidates := make([]domain.CandidatePoint, len(near))
	byLocation := make(map[domain.Coordinate]*domain.Venue, len(near))
	for i := range near {
		candidates[i] = domain.CandidatePoint{Location: near[i].Location, Source: domain.SourceVenue}
		byLocation[near[i].Location] = &near[i]
	}
	scored, err := f.scoreCandidates(ctx, origin1, origin2, candidates, cache)
	if err != nil {
		return nil, err
	}
	for i := range scored {
		scored[i].Venue = byLocation[scored[i].Location]
	}
	return scored, nil
}
