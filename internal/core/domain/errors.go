package domain

import (
	"errors"
	"fmt"
)

// ErrNoRoute means the provider found no transit itinerary between the two
// origins. Terminal for the route-minimax strategy; callers render it
// differently from both provider failures and empty results.
var ErrNoRoute = errors.New("no transit route between origins")

// NotFoundError means an address could not be geocoded. Never retried.
type NotFoundError struct {
	Address string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("address not found: %s", e.Address)
}

// ProviderError is a transport, auth, or quota failure talking to the maps
// provider. Retried with a bounded budget inside the batched travel-time
// path only.
type ProviderError struct {
	Op     string // provider operation, e.g. "geocode", "distance-matrix"
	Status string // provider status string, if any
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("maps provider %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("maps provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
