package domain

import "fmt"

// TravelTimeCache memoizes (origin, destination) transit durations within the
// lifetime of one search, so repeated sampling passes do not re-query
// identical pairs. Constructed per search and owned by a single invocation;
// it is not safe for concurrent writers and carries no persistence guarantee.
type TravelTimeCache struct {
	entries map[string]TravelTime
}

// NewTravelTimeCache creates an empty per-search cache.
func NewTravelTimeCache() *TravelTimeCache {
	return &TravelTimeCache{entries: make(map[string]TravelTime)}
}

func pairKey(origin, dest Coordinate) string {
	// 1e-6 degrees is ~0.1 m, well below provider resolution.
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// Get returns the cached travel time for a pair, if present.
func (c *TravelTimeCache) Get(origin, dest Coordinate) (TravelTime, bool) {
	if c == nil {
		return TravelTime{}, false
	}
	tt, ok := c.entries[pairKey(origin, dest)]
	return tt, ok
}

// Put stores the travel time for a pair. Unavailable results are cached too:
// re-asking the provider about a pair it already declared unreachable wastes
// quota within the same search.
func (c *TravelTimeCache) Put(origin, dest Coordinate, tt TravelTime) {
	if c == nil {
		return
	}
	c.entries[pairKey(origin, dest)] = tt
}

// Len returns the number of cached pairs.
func (c *TravelTimeCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
