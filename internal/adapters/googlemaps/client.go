// Package googlemaps implements ports.MapsProvider against the Google Maps
// web services: Geocoding, Directions (transit), Distance Matrix, and Places
// Nearby Search. It is the single choke point for provider traffic and owns
// chunking, bounded parallelism, retries, and per-search response caching.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
	"github.com/midwaymeet/midwaymeet/internal/pkg/metrics"
	"github.com/midwaymeet/midwaymeet/internal/pkg/polyline"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Config holds the provider knobs.
type Config struct {
	APIKey          string
	BaseURL         string        // override for tests
	Timeout         time.Duration // per provider call
	MatrixChunkSize int           // max destinations per distance-matrix request
	MatrixWorkers   int           // max chunk requests in flight
	MaxRetries      int           // extra attempts per chunk after the first
}

// Client talks to the Google Maps APIs. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a provider client, applying defaults for unset knobs.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MatrixChunkSize <= 0 {
		cfg.MatrixChunkSize = 25
	}
	if cfg.MatrixWorkers <= 0 {
		cfg.MatrixWorkers = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Geocode resolves an address to a coordinate and formatted address.
func (c *Client) Geocode(ctx context.Context, address string) (*domain.GeocodedAddress, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.cfg.APIKey)

	var resp geocodingResponse
	if err := c.getJSON(ctx, "geocode", "/geocode/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return nil, &domain.NotFoundError{Address: address}
	}
	if resp.Status != "OK" {
		return nil, &domain.ProviderError{Op: "geocode", Status: resp.Status}
	}

	best := resp.Results[0]
	return &domain.GeocodedAddress{
		Input:     address,
		Formatted: best.FormattedAddress,
		Location:  domain.Coordinate{Lat: best.Geometry.Location.Lat, Lng: best.Geometry.Location.Lng},
	}, nil
}

// FastestTransitRoute returns the quickest transit itinerary between two
// points, with the overview polyline decoded into a path.
func (c *Client) FastestTransitRoute(ctx context.Context, origin, dest domain.Coordinate) (*domain.TransitRoute, error) {
	params := url.Values{}
	params.Set("origin", formatCoordinate(origin))
	params.Set("destination", formatCoordinate(dest))
	params.Set("mode", "transit")
	params.Set("departure_time", "now")
	params.Set("alternatives", "false")
	params.Set("key", c.cfg.APIKey)

	var resp directionsResponse
	if err := c.getJSON(ctx, "directions", "/directions/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Routes) == 0 {
		return nil, domain.ErrNoRoute
	}
	if resp.Status != "OK" {
		return nil, &domain.ProviderError{Op: "directions", Status: resp.Status}
	}

	best := resp.Routes[0]
	tr := &domain.TransitRoute{
		OverviewPolyline: best.OverviewPolyline.Points,
		Path:             polyline.Decode(best.OverviewPolyline.Points),
	}
	for _, l := range best.Legs {
		tr.DistanceMeters += l.Distance.Value
		tr.DurationSeconds += l.Duration.Value
	}
	return tr, nil
}

// TravelTimes returns transit durations from origin to every destination in
// caller order. Destinations are deduplicated, consulted against the
// per-search cache, chunked to the provider's size limit, and fetched with
// bounded parallelism. Chunks that exhaust their retry budget degrade to
// OK=false entries; one chunk's failure never cancels its siblings.
func (c *Client) TravelTimes(ctx context.Context, origin domain.Coordinate, destinations []domain.Coordinate, cache *domain.TravelTimeCache) ([]domain.TravelTime, error) {
	results := make([]domain.TravelTime, len(destinations))
	if len(destinations) == 0 {
		return results, nil
	}

	// Resolve cached pairs and deduplicate the rest: identical coordinates
	// across sampling passes should cost one provider element, not many.
	type pending struct {
		coord   domain.Coordinate
		indices []int
	}
	var misses []pending
	seen := make(map[string]int) // coordinate key -> index into misses

	for i, d := range destinations {
		if tt, ok := cache.Get(origin, d); ok {
			metrics.TravelTimeCacheHits.Inc()
			results[i] = tt
			continue
		}
		metrics.TravelTimeCacheMisses.Inc()
		key := formatCoordinate(d)
		if mi, ok := seen[key]; ok {
			misses[mi].indices = append(misses[mi].indices, i)
			continue
		}
		seen[key] = len(misses)
		misses = append(misses, pending{coord: d, indices: []int{i}})
	}
	if len(misses) == 0 {
		return results, nil
	}

	// Chunk the unique misses and fan out with a bounded worker pool.
	chunkSize := c.cfg.MatrixChunkSize
	numChunks := (len(misses) + chunkSize - 1) / chunkSize
	chunkTimes := make([][]domain.TravelTime, numChunks)

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.cfg.MatrixWorkers)
	for ci := 0; ci < numChunks; ci++ {
		start := ci * chunkSize
		end := start + chunkSize
		if end > len(misses) {
			end = len(misses)
		}
		coords := make([]domain.Coordinate, 0, end-start)
		for _, p := range misses[start:end] {
			coords = append(coords, p.coord)
		}

		wg.Add(1)
		go func(ci int, coords []domain.Coordinate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			chunkTimes[ci] = c.fetchMatrixChunk(ctx, origin, coords)
		}(ci, coords)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge chunk responses back into caller order and feed the cache.
	for ci, times := range chunkTimes {
		start := ci * chunkSize
		for j, tt := range times {
			p := misses[start+j]
			cache.Put(origin, p.coord, tt)
			for _, idx := range p.indices {
				results[idx] = tt
			}
		}
	}
	return results, nil
}

// fetchMatrixChunk queries one distance-matrix chunk with a bounded retry
// budget. It always returns len(dests) entries; exhausted retries yield
// unavailable entries rather than an error.
func (c *Client) fetchMatrixChunk(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) []domain.TravelTime {
	times := make([]domain.TravelTime, len(dests))

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.MatrixChunkRetries.Inc()
			select {
			case <-ctx.Done():
				return times
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		elements, err := c.requestMatrix(ctx, origin, dests)
		if err != nil {
			slog.Warn("distance matrix chunk failed",
				"attempt", attempt+1, "destinations", len(dests), "error", err)
			continue
		}

		for i, el := range elements {
			if i >= len(times) {
				break
			}
			if el.Status == "OK" {
				times[i] = domain.TravelTime{Seconds: el.Duration.Value, OK: true}
			}
		}
		return times
	}
	return times
}

func (c *Client) requestMatrix(ctx context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]distanceMatrixElement, error) {
	destStrs := make([]string, len(dests))
	for i, d := range dests {
		destStrs[i] = formatCoordinate(d)
	}

	params := url.Values{}
	params.Set("origins", formatCoordinate(origin))
	params.Set("destinations", strings.Join(destStrs, "|"))
	params.Set("mode", "transit")
	params.Set("departure_time", "now")
	params.Set("key", c.cfg.APIKey)

	var resp distanceMatrixResponse
	if err := c.getJSON(ctx, "distance-matrix", "/distancematrix/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, &domain.ProviderError{Op: "distance-matrix", Status: resp.Status}
	}
	if len(resp.Rows) == 0 {
		return nil, &domain.ProviderError{Op: "distance-matrix", Status: "EMPTY_ROWS"}
	}
	return resp.Rows[0].Elements, nil
}

// NearbyPlaces searches venues around a center. Fails soft: any provider
// error degrades to an empty list, since a meeting point without amenity
// suggestions is still useful.
func (c *Client) NearbyPlaces(ctx context.Context, center domain.Coordinate, radiusM int, placeType string) ([]domain.Venue, error) {
	params := url.Values{}
	params.Set("location", formatCoordinate(center))
	params.Set("radius", strconv.Itoa(radiusM))
	if placeType != "" {
		params.Set("type", placeType)
	}
	params.Set("key", c.cfg.APIKey)

	var resp placesResponse
	if err := c.getJSON(ctx, "places-nearby", "/place/nearbysearch/json", params, &resp); err != nil {
		slog.Warn("nearby places search failed", "type", placeType, "error", err)
		return nil, nil
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		slog.Warn("nearby places search rejected", "type", placeType, "status", resp.Status)
		return nil, nil
	}

	limit := len(resp.Results)
	if limit > 20 {
		limit = 20
	}
	venues := make([]domain.Venue, 0, limit)
	for _, p := range resp.Results[:limit] {
		v := domain.Venue{
			PlaceID:  p.PlaceID,
			Name:     p.Name,
			Address:  p.Vicinity,
			Location: domain.Coordinate{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
			Tags:     p.Types,
			Category: domain.Categorize(p.Types),
		}
		if p.Rating > 0 {
			r := p.Rating
			v.Rating = &r
		}
		if p.PriceLevel > 0 {
			pl := p.PriceLevel
			v.PriceLevel = &pl
		}
		if p.OpeningHours != nil {
			open := p.OpeningHours.OpenNow
			v.OpenNow = &open
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// getJSON performs one GET against the provider and decodes the body.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, params url.Values, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &domain.ProviderError{Op: op, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(op, "transport_error").Inc()
		return &domain.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	metrics.ProviderRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.ProviderRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return &domain.ProviderError{Op: op, Status: fmt.Sprintf("http %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProviderError{Op: op, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func formatCoordinate(c domain.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
