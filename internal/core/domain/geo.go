package domain

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the WGS 84 lat/lng ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// GeocodedAddress is an address resolved by the maps provider. Created once
// per request and passed around read-only.
type GeocodedAddress struct {
	Input     string     `json:"input"`
	Formatted string     `json:"formatted_address"`
	Location  Coordinate `json:"location"`
}

// TransitRoute is the fastest transit itinerary between the two origins.
// Produced once per search and shared read-only; Path is the decoded
// overview polyline.
type TransitRoute struct {
	OverviewPolyline string       `json:"overview_polyline"`
	DistanceMeters   int          `json:"distance_meters"`
	DurationSeconds  int          `json:"duration_seconds"`
	Path             []Coordinate `json:"-"`
}
