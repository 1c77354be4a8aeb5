// Package pin owns user-reported trail pins (hazards, wrong turns, wildlife
// sightings), their detail records, and the community moderation rules that
// age them out.
package pin

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/livehike/livehike/internal/geo"
)

// PinType is the kind of report a pin represents.
type PinType string

// Pin types. The values are the persisted strings.
const (
	TypeHazard    PinType = "Hazard"
	TypeWrongTurn PinType = "Wrong Turn"
	TypeWildlife  PinType = "Wildlife"
)

// Valid reports whether t is a known pin type.
func (t PinType) Valid() bool {
	switch t {
	case TypeHazard, TypeWrongTurn, TypeWildlife:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects unknown pin types.
func (t *PinType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !PinType(s).Valid() {
		return fmt.Errorf("unknown pin type %q", s)
	}
	*t = PinType(s)
	return nil
}

// AutoExpires reports whether pins of this type are deleted once they collect
// ExpiryDismissals dismissals. Wrong turns describe the trail itself and never
// expire.
func (t PinType) AutoExpires() bool {
	return t == TypeHazard || t == TypeWildlife
}

// ExpiryDismissals is the dismissal count at which an auto-expiring pin is deleted.
const ExpiryDismissals = 2

// Severity levels offered by the hazard report form.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// PinLocation is a single reported point of interest on a trail.
// Only VerifiedCount, DismissedCount and UpdatedAt change after creation.
type PinLocation struct {
	ID             string
	Coordinate     geo.Point
	Type           PinType
	CreatedAt      time.Time
	CreatedBy      string
	UpdatedAt      *time.Time
	VerifiedCount  int
	DismissedCount int
	TrailName      string
}

// pinLocationRecord is the persisted shape of a PinLocation. The coordinate is
// flattened into two fields.
type pinLocationRecord struct {
	ID             string     `json:"id"`
	Type           PinType    `json:"type"`
	CreatedAt      time.Time  `json:"createdAt"`
	CreatedBy      string     `json:"createdBy"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	VerifiedCount  int        `json:"verifiedCount"`
	DismissedCount int        `json:"dismissedCount"`
	TrailName      string     `json:"trailName"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
}

// MarshalJSON implements json.Marshaler.
func (p PinLocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(pinLocationRecord{
		ID:             p.ID,
		Type:           p.Type,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
		UpdatedAt:      p.UpdatedAt,
		VerifiedCount:  p.VerifiedCount,
		DismissedCount: p.DismissedCount,
		TrailName:      p.TrailName,
		Latitude:       p.Coordinate.Lat,
		Longitude:      p.Coordinate.Lon,
	})
}

// pinLocationInput mirrors pinLocationRecord with pointers so absent keys
// can be told apart from zero values.
type pinLocationInput struct {
	ID             *string    `json:"id"`
	Type           *PinType   `json:"type"`
	CreatedAt      *time.Time `json:"createdAt"`
	CreatedBy      *string    `json:"createdBy"`
	UpdatedAt      *time.Time `json:"updatedAt"`
	VerifiedCount  *int       `json:"verifiedCount"`
	DismissedCount *int       `json:"dismissedCount"`
	TrailName      *string    `json:"trailName"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
}

func (in pinLocationInput) missing() string {
	switch {
	case in.ID == nil || *in.ID == "":
		return "id"
	case in.Type == nil:
		return "type"
	case in.CreatedAt == nil:
		return "createdAt"
	case in.CreatedBy == nil:
		return "createdBy"
	case in.VerifiedCount == nil:
		return "verifiedCount"
	case in.DismissedCount == nil:
		return "dismissedCount"
	case in.TrailName == nil:
		return "trailName"
	case in.Latitude == nil:
		return "latitude"
	case in.Longitude == nil:
		return "longitude"
	}
	return ""
}

// UnmarshalJSON implements json.Unmarshaler. Every field except updatedAt
// is required and the type must be known.
func (p *PinLocation) UnmarshalJSON(data []byte) error {
	var in pinLocationInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if field := in.missing(); field != "" {
		return fmt.Errorf("pin location: missing %s", field)
	}
	if *in.VerifiedCount < 0 || *in.DismissedCount < 0 {
		return fmt.Errorf("pin location %s: negative counter", *in.ID)
	}

	*p = PinLocation{
		ID:             *in.ID,
		Coordinate:     geo.Point{Lat: *in.Latitude, Lon: *in.Longitude},
		Type:           *in.Type,
		CreatedAt:      *in.CreatedAt,
		CreatedBy:      *in.CreatedBy,
		UpdatedAt:      in.UpdatedAt,
		VerifiedCount:  *in.VerifiedCount,
		DismissedCount: *in.DismissedCount,
		TrailName:      *in.TrailName,
	}
	return nil
}

// CanDelete reports whether actor created the pin.
func (p PinLocation) CanDelete(actor string) bool {
	return actor != "" && p.CreatedBy == actor
}

func (p PinLocation) clone() PinLocation {
	cpy := p
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		cpy.UpdatedAt = &t
	}
	return cpy
}

// HazardPin is the detail record of a TypeHazard pin.
type HazardPin struct {
	ID            string  `json:"id"`
	PinLocationID string  `json:"pinLocationId"`
	HazardType    string  `json:"hazardType"`
	Severity      string  `json:"severity"`
	Description   string  `json:"description"`
	ImageURL      *string `json:"imageURL,omitempty"`
}

func (h HazardPin) clone() HazardPin {
	cpy := h
	if h.ImageURL != nil {
		u := *h.ImageURL
		cpy.ImageURL = &u
	}
	return cpy
}

// ImageAnnotation marks a point on a report photo. X and Y are normalized to [0,1].
type ImageAnnotation struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// WrongTurnPin is the detail record of a TypeWrongTurn pin.
type WrongTurnPin struct {
	ID                          string            `json:"id"`
	PinLocationID               string            `json:"pinLocationId"`
	Description                 string            `json:"description"`
	CorrectDirectionDescription string            `json:"correctDirectionDescription"`
	ImageURL                    *string           `json:"imageURL,omitempty"`
	Landmarks                   []string          `json:"landmarks"`
	Annotations                 []ImageAnnotation `json:"annotations"`
}

func (w WrongTurnPin) clone() WrongTurnPin {
	cpy := w
	if w.ImageURL != nil {
		u := *w.ImageURL
		cpy.ImageURL = &u
	}
	if w.Landmarks != nil {
		cpy.Landmarks = append([]string{}, w.Landmarks...)
	}
	if w.Annotations != nil {
		cpy.Annotations = append([]ImageAnnotation{}, w.Annotations...)
	}
	return cpy
}
