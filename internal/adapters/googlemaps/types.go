package googlemaps

// Wire types for the Google Maps web service JSON responses. Only the fields
// the client reads are mapped.

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type valueText struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// --- Geocoding API ---

type geocodingResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Results      []geocodingResult `json:"results"`
}

type geocodingResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
	PlaceID          string   `json:"place_id"`
}

type geometry struct {
	Location latLng `json:"location"`
}

// --- Directions API ---

type directionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []route `json:"routes"`
}

type route struct {
	Legs             []leg        `json:"legs"`
	OverviewPolyline polylineWire `json:"overview_polyline"`
}

type leg struct {
	Distance valueText `json:"distance"`
	Duration valueText `json:"duration"`
}

type polylineWire struct {
	Points string `json:"points"`
}

// --- Distance Matrix API ---

type distanceMatrixResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Rows         []distanceMatrixRow `json:"rows"`
}

type distanceMatrixRow struct {
	Elements []distanceMatrixElement `json:"elements"`
}

type distanceMatrixElement struct {
	Status   string    `json:"status"`
	Duration valueText `json:"duration"`
	Distance valueText `json:"distance"`
}

// --- Places Nearby Search API ---

type placesResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []place `json:"results"`
}

type place struct {
	PlaceID      string        `json:"place_id"`
	Name         string        `json:"name"`
	Vicinity     string        `json:"vicinity"`
	Geometry     geometry      `json:"geometry"`
	Types        []string      `json:"types"`
	Rating       float64       `json:"rating"`
	PriceLevel   int           `json:"price_level"`
	OpeningHours *openingHours `json:"opening_hours,omitempty"`
}

type openingHours struct {
	OpenNow bool `json:"open_now"`
}
