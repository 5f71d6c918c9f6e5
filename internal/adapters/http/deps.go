package http

import (
	"github.com/midwaymeet/midwaymeet/internal/core/ports"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	// Finders maps algorithm identifiers to search strategies.
	Finders map[string]ports.MeetingPointFinder
	// DefaultAlgorithm selects the finder used when a request names none.
	DefaultAlgorithm string

	Provider ports.MapsProvider
	Cache    ports.CacheService   // nil when Valkey is unavailable
	Events   ports.EventPublisher // nil when NATS is unavailable

	// GeocodeTTLSeconds bounds how long geocoding results stay cached.
	GeocodeTTLSeconds int
}

func (d *Dependencies) finder(algorithm string) ports.MeetingPointFinder {
	if algorithm == "" {
		algorithm = d.DefaultAlgorithm
	}
	return d.Finders[algorithm]
}
