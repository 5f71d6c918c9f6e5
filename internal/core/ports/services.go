package ports

import (
	"context"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
)

// MapsProvider is the single boundary to the external mapping service.
// Implementations own batching, bounded parallelism, retries, and chunk
// merging; callers see provider-order-preserving results and typed errors.
type MapsProvider interface {
	// Geocode resolves an address. Returns *domain.NotFoundError when the
	// provider has no match, *domain.ProviderError otherwise.
	Geocode(ctx context.Context, address string) (*domain.GeocodedAddress, error)

	// FastestTransitRoute returns the quickest transit itinerary with its
	// decoded polyline. Returns domain.ErrNoRoute when no itinerary exists.
	FastestTransitRoute(ctx context.Context, origin, dest domain.Coordinate) (*domain.TransitRoute, error)

	// TravelTimes returns transit durations from origin to every destination,
	// same length and order as destinations. Pairs that stay unresolvable
	// after the retry budget come back with OK=false; the call itself only
	// errors when nothing could be asked at all. cache may be nil.
	TravelTimes(ctx context.Context, origin domain.Coordinate, destinations []domain.Coordinate, cache *domain.TravelTimeCache) ([]domain.TravelTime, error)

	// NearbyPlaces searches venues around a center. Fails soft: provider
	// errors degrade to an empty list.
	NearbyPlaces(ctx context.Context, center domain.Coordinate, radiusM int, placeType string) ([]domain.Venue, error)
}

// MeetingPointFinder is the one contract both search strategies implement.
type MeetingPointFinder interface {
	// FindMeetingPoint runs a full search between two geocoded origins.
	// A nil error with an Empty() result is the valid "no qualifying
	// meeting point" outcome; domain.ErrNoRoute propagates unchanged.
	FindMeetingPoint(ctx context.Context, origin1, origin2 domain.Coordinate, opts domain.SearchOptions) (*domain.MeetingPointResult, error)

	// Algorithm returns the strategy identifier stamped into results.
	Algorithm() string
}

// CacheService provides read-through caching outside the per-search scope
// (geocoding results, categorized venue lookups).
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes search analytics events to a message broker.
type EventPublisher interface {
	PublishSearchCompleted(ctx context.Context, ev *domain.SearchEvent) error
}
