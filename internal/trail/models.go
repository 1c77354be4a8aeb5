// Package trail provides the static trail catalog and trail geometry helpers.
package trail

import (
	"encoding/json"

	"github.com/livehike/livehike/internal/geo"
)

// Trail is a named hiking route. Trails are reference data and are never
// created by users.
type Trail struct {
	ID            string
	Name          string
	Location      string
	Difficulty    string
	Length        float64
	ElevationGain int
	Coordinates   []geo.Point
}

// record is the persisted shape of a Trail. Coordinates are stored as two
// parallel arrays.
type record struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Location              string    `json:"location"`
	Difficulty            string    `json:"difficulty"`
	Length                float64   `json:"length"`
	ElevationGain         int       `json:"elevationGain"`
	CoordinatesLatitudes  []float64 `json:"coordinatesLatitudes"`
	CoordinatesLongitudes []float64 `json:"coordinatesLongitudes"`
}

// MarshalJSON implements json.Marshaler.
func (t Trail) MarshalJSON() ([]byte, error) {
	rec := record{
		ID:                    t.ID,
		Name:                  t.Name,
		Location:              t.Location,
		Difficulty:            t.Difficulty,
		Length:                t.Length,
		ElevationGain:         t.ElevationGain,
		CoordinatesLatitudes:  make([]float64, len(t.Coordinates)),
		CoordinatesLongitudes: make([]float64, len(t.Coordinates)),
	}
	for i, p := range t.Coordinates {
		rec.CoordinatesLatitudes[i] = p.Lat
		rec.CoordinatesLongitudes[i] = p.Lon
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler.
// The coordinate arrays are zipped positionally; entries beyond the shorter
// array are dropped.
func (t *Trail) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	n := min(len(rec.CoordinatesLatitudes), len(rec.CoordinatesLongitudes))
	coords := make([]geo.Point, n)
	for i := 0; i < n; i++ {
		coords[i] = geo.Point{Lat: rec.CoordinatesLatitudes[i], Lon: rec.CoordinatesLongitudes[i]}
	}

	*t = Trail{
		ID:            rec.ID,
		Name:          rec.Name,
		Location:      rec.Location,
		Difficulty:    rec.Difficulty,
		Length:        rec.Length,
		ElevationGain: rec.ElevationGain,
		Coordinates:   coords,
	}
	return nil
}

// Clone returns a deep copy of the trail.
func (t Trail) Clone() Trail {
	cpy := t
	if t.Coordinates != nil {
		cpy.Coordinates = make([]geo.Point, len(t.Coordinates))
		copy(cpy.Coordinates, t.Coordinates)
	}
	return cpy
}
