package models

// Trail is a catalog entry.
type Trail struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Difficulty    string  `json:"difficulty"`
	Length        float64 `json:"length"`
	ElevationGain int     `json:"elevationGain"`
}

// TrailDetail is a trail with its route geometry.
type TrailDetail struct {
	Trail
	Coordinates       []Point `json:"coordinates"`
	Polyline          string  `json:"polyline"`
	RouteLengthMeters float64 `json:"routeLengthMeters"`
	Region            Region  `json:"region"`
}

// TrailList is the response of the trail search endpoint.
type TrailList struct {
	Items []Trail `json:"items"`
	Query string  `json:"query,omitempty"`
}
