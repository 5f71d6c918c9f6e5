package http

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
)

// originInput is one endpoint of a search: either a free-form address to
// geocode or an explicit coordinate pair.
type originInput struct {
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

func (o originInput) empty() bool {
	return o.Address == "" && (o.Lat == nil || o.Lng == nil)
}

var errCoordsOutOfRange = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")

// resolveOrigin turns one endpoint input into a coordinate, geocoding through
// the cache when only an address was given. The second return is the display address.
func resolveOrigin(ctx context.Context, deps *Dependencies, o originInput) (domain.Coordinate, string, error) {
	if o.Lat != nil && o.Lng != nil {
		coord := domain.Coordinate{Lat: *o.Lat, Lng: *o.Lng}
		if !coord.Valid() {
			return domain.Coordinate{}, "", errCoordsOutOfRange
		}
		return coord, "", nil
	}
	geo, err := cachedGeocode(ctx, deps, o.Address)
	if err != nil {
		return domain.Coordinate{}, "", err
	}
	return geo.Location, geo.Formatted, nil
}

// cachedGeocode reads through the shared cache before hitting the provider.
// Cache failures are ignored; geocoding must work without Valkey.
func cachedGeocode(ctx context.Context, deps *Dependencies, address string) (*domain.GeocodedAddress, error) {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(address))

	if deps.Cache != nil {
		if b, err := deps.Cache.Get(ctx, key); err == nil && len(b) > 0 {
			var geo domain.GeocodedAddress
			if json.Unmarshal(b, &geo) == nil {
				return &geo, nil
			}
		}
	}

	geo, err := deps.Provider.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if deps.Cache != nil {
		if b, err := json.Marshal(geo); err == nil {
			_ = deps.Cache.Set(ctx, key, b, deps.GeocodeTTLSeconds)
		}
	}
	return geo, nil
}

// mapDomainError translates the typed domain errors into API responses.
func mapDomainError(c *fiber.Ctx, err error) error {
	var nf *domain.NotFoundError
	var pe *domain.ProviderError
	switch {
	case errors.Is(err, errCoordsOutOfRange):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNoRoute):
		return errNoRoute(c, "no transit route connects the two origins")
	case errors.As(err, &nf):
		return errNotFound(c, nf.Error())
	case errors.As(err, &pe):
		return errBadGateway(c, pe.Error())
	default:
		return errInternal(c, err.Error())
	}
}

// --- POST /v1/geocode ---

type geocodeRequest struct {
	Address string `json:"address"`
}

// GeocodeHandler resolves an address to a coordinate.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req geocodeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if strings.TrimSpace(req.Address) == "" {
			return errBadRequest(c, "address is required")
		}
		if len(req.Address) > 300 {
			return errBadRequest(c, "address too long (max 300 characters)")
		}

		geo, err := cachedGeocode(c.UserContext(), deps, req.Address)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(geo)
	}
}

// --- POST /v1/meeting-point ---

type meetingPointRequest struct {
	Origin1            originInput `json:"origin1"`
	Origin2            originInput `json:"origin2"`
	Algorithm          string      `json:"algorithm,omitempty"`
	SearchRadiusMeters int         `json:"search_radius_meters,omitempty"`
	MaxAlternatives    int         `json:"max_alternatives,omitempty"`
	SampleCount        int         `json:"sample_count,omitempty"`
}

type meetingPointResponse struct {
	Origin1 resolvedOrigin `json:"origin1"`
	Origin2 resolvedOrigin `json:"origin2"`
	*domain.MeetingPointResult
}

type resolvedOrigin struct {
	Location domain.Coordinate `json:"location"`
	Address  string            `json:"formatted_address,omitempty"`
}

// MeetingPointHandler runs one meeting-point search between two origins.
func MeetingPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req meetingPointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Origin1.empty() || req.Origin2.empty() {
			return errBadRequest(c, "origin1 and origin2 each need an address or a lat/lng pair")
		}
		if req.SearchRadiusMeters != 0 && (req.SearchRadiusMeters < 100 || req.SearchRadiusMeters > 10000) {
			return errBadRequest(c, "search_radius_meters must be between 100 and 10000")
		}
		if req.MaxAlternatives < 0 || req.MaxAlternatives > 20 {
			return errBadRequest(c, "max_alternatives must be between 0 and 20")
		}
		if req.SampleCount != 0 && (req.SampleCount < 2 || req.SampleCount > 100) {
			return errBadRequest(c, "sample_count must be between 2 and 100")
		}

		finder := deps.finder(req.Algorithm)
		if finder == nil {
			return errBadRequest(c, "unknown algorithm: "+req.Algorithm)
		}

		ctx := c.UserContext()
		coord1, addr1, err := resolveOrigin(ctx, deps, req.Origin1)
		if err != nil {
			return mapDomainError(c, err)
		}
		coord2, addr2, err := resolveOrigin(ctx, deps, req.Origin2)
		if err != nil {
			return mapDomainError(c, err)
		}

		start := time.Now()
		result, err := finder.FindMeetingPoint(ctx, coord1, coord2, domain.SearchOptions{
			SearchRadiusM:   req.SearchRadiusMeters,
			MaxAlternatives: req.MaxAlternatives,
			SampleCount:     req.SampleCount,
		})
		if err != nil {
			outcome := "error"
			if errors.Is(err, domain.ErrNoRoute) {
				outcome = "no_route"
			}
			publishSearchEvent(deps, finder.Algorithm(), coord1, coord2, outcome, nil, time.Since(start))
			return mapDomainError(c, err)
		}

		outcome := "found"
		if result.Empty() {
			outcome = "empty"
		}
		publishSearchEvent(deps, finder.Algorithm(), coord1, coord2, outcome, result, time.Since(start))

		return c.JSON(meetingPointResponse{
			Origin1:            resolvedOrigin{Location: coord1, Address: addr1},
			Origin2:            resolvedOrigin{Location: coord2, Address: addr2},
			MeetingPointResult: result,
		})
	}
}

// publishSearchEvent emits the analytics event without blocking the response.
func publishSearchEvent(deps *Dependencies, algorithm string, o1, o2 domain.Coordinate, outcome string, result *domain.MeetingPointResult, took time.Duration) {
	if deps.Events == nil {
		return
	}
	ev := &domain.SearchEvent{
		Algorithm:      algorithm,
		Origin1:        o1,
		Origin2:        o2,
		Outcome:        outcome,
		DurationMillis: took.Milliseconds(),
	}
	if result != nil {
		ev.SampleCount = len(result.Samples)
		if result.Best != nil {
			ev.MaxSeconds = result.Best.MaxSeconds
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = deps.Events.PublishSearchCompleted(ctx, ev)
	}()
}

// --- POST /v1/transit-time ---

type transitTimeRequest struct {
	Origin      originInput `json:"origin"`
	Destination originInput `json:"destination"`
}

type transitTimeResponse struct {
	Origin          domain.Coordinate `json:"origin"`
	Destination     domain.Coordinate `json:"destination"`
	DurationSeconds int               `json:"duration_seconds"`
	DistanceMeters  int               `json:"distance_meters"`
	Polyline        string            `json:"polyline,omitempty"`
}

// TransitTimeHandler returns the fastest transit itinerary between two points.
func TransitTimeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transitTimeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Origin.empty() || req.Destination.empty() {
			return errBadRequest(c, "origin and destination each need an address or a lat/lng pair")
		}

		ctx := c.UserContext()
		from, _, err := resolveOrigin(ctx, deps, req.Origin)
		if err != nil {
			return mapDomainError(c, err)
		}
		to, _, err := resolveOrigin(ctx, deps, req.Destination)
		if err != nil {
			return mapDomainError(c, err)
		}

		route, err := deps.Provider.FastestTransitRoute(ctx, from, to)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(transitTimeResponse{
			Origin:          from,
			Destination:     to,
			DurationSeconds: route.DurationSeconds,
			DistanceMeters:  route.DistanceMeters,
			Polyline:        route.OverviewPolyline,
		})
	}
}
