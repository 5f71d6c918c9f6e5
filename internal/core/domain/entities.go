package domain

// TravelTime is a tagged transit duration for one origin/destination pair.
// OK is false when the provider reported no transit connection for the pair;
// a zero-duration success and an unavailable result must never be conflated.
type TravelTime struct {
	Seconds int  `json:"seconds"`
	OK      bool `json:"ok"`
}

// CandidateSource says how a candidate point was generated.
type CandidateSource string

const (
	SourceRouteSample   CandidateSource = "route-sample"
	SourceLateralOffset CandidateSource = "lateral-offset"
	SourceRefinement    CandidateSource = "refinement"
	SourceVenue         CandidateSource = "venue"
)

// CandidatePoint is an ephemeral point considered during one search.
type CandidatePoint struct {
	Location       Coordinate      `json:"location"`
	Source         CandidateSource `json:"source"`
	RouteFraction  float64         `json:"route_fraction,omitempty"`
	LateralOffsetM float64         `json:"lateral_offset_m,omitempty"`
}

// ScoredCandidate is a candidate point with resolved travel times from both
// origins and the metrics derived from them. Score is only meaningful for the
// composite (geo-midpoint) strategy; the minimax strategy orders by
// MaxSeconds then DiffSeconds.
type ScoredCandidate struct {
	CandidatePoint
	TimeFromOrigin1 int     `json:"time_from_origin1_seconds"`
	TimeFromOrigin2 int     `json:"time_from_origin2_seconds"`
	MaxSeconds      int     `json:"max_travel_time_seconds"`
	DiffSeconds     int     `json:"time_difference_seconds"`
	TotalSeconds    int     `json:"total_travel_time_seconds"`
	Score           float64 `json:"score,omitempty"`
	Venue           *Venue  `json:"venue,omitempty"`
}

// Venue is an immutable snapshot of a provider place at query time.
type Venue struct {
	PlaceID    string     `json:"place_id"`
	Name       string     `json:"name"`
	Address    string     `json:"formatted_address,omitempty"`
	Location   Coordinate `json:"location"`
	Rating     *float64   `json:"rating,omitempty"`
	PriceLevel *int       `json:"price_level,omitempty"`
	OpenNow    *bool      `json:"open_now,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Category   Category   `json:"category"`
}

// SeedTransitTimes carries the diagnostic transit times from each origin to
// the search seed point.
type SeedTransitTimes struct {
	FromOrigin1 TravelTime `json:"from_origin1"`
	FromOrigin2 TravelTime `json:"from_origin2"`
}

// MeetingPointResult is the outcome of one meeting-point search. Built once
// and never mutated afterwards. A nil Best together with a non-empty
// EmptyReason is the valid "no qualifying meeting point" outcome, distinct
// from any error.
type MeetingPointResult struct {
	Algorithm         string               `json:"algorithm"`
	SeedPoint         Coordinate           `json:"seed_point"`
	SeedTransitTimes  SeedTransitTimes     `json:"seed_transit_times"`
	Route             *TransitRoute        `json:"route,omitempty"`
	Best              *ScoredCandidate     `json:"optimal_point,omitempty"`
	Alternatives      []ScoredCandidate    `json:"alternatives"`
	CategorizedVenues map[Category][]Venue `json:"categorized_venues"`
	Samples           []ScoredCandidate    `json:"diagnostic_samples,omitempty"`
	EmptyReason       string               `json:"empty_reason,omitempty"`
}

// Empty reports whether the search succeeded without a qualifying candidate.
func (r *MeetingPointResult) Empty() bool {
	return r.Best == nil
}

// SearchOptions are the caller-tunable knobs of one search. Zero values mean
// "use the configured default".
type SearchOptions struct {
	SearchRadiusM   int       `json:"search_radius_meters,omitempty"`
	MaxAlternatives int       `json:"max_alternatives,omitempty"`
	SampleCount     int       `json:"sample_count,omitempty"`
	LateralOffsetsM []float64 `json:"lateral_offsets_m,omitempty"`
}

// SearchEvent is the analytics event published after each completed search.
type SearchEvent struct {
	Algorithm       string     `json:"algorithm"`
	Origin1         Coordinate `json:"origin1"`
	Origin2         Coordinate `json:"origin2"`
	Outcome         string     `json:"outcome"` // found, empty, no_route
	MaxSeconds      int        `json:"max_travel_time_seconds,omitempty"`
	DurationMillis  int64      `json:"search_duration_ms"`
	SampleCount     int        `json:"sample_count,omitempty"`
}
