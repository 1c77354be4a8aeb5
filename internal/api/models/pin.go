package models

import (
	"encoding/json"
	"strings"
)

// PinLocation is a reported point of interest.
type PinLocation struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Coordinate     Point      `json:"coordinate"`
	TrailName      string     `json:"trailName"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      Timestamp  `json:"createdAt"`
	UpdatedAt      *Timestamp `json:"updatedAt,omitempty"`
	VerifiedCount  int        `json:"verifiedCount"`
	DismissedCount int        `json:"dismissedCount"`
	CanDelete      bool       `json:"canDelete"`
}

// HazardDetail holds the hazard-specific fields of a pin.
type HazardDetail struct {
	ID          string  `json:"id"`
	HazardType  string  `json:"hazardType"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageURL,omitempty"`
}

// ImageAnnotation marks a point on a report photo.
type ImageAnnotation struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// WrongTurnDetail holds the wrong-turn-specific fields of a pin.
type WrongTurnDetail struct {
	ID                          string            `json:"id"`
	Description                 string            `json:"description"`
	CorrectDirectionDescription string            `json:"correctDirectionDescription"`
	ImageURL                    *string           `json:"imageURL,omitempty"`
	Landmarks                   []string          `json:"landmarks"`
	Annotations                 []ImageAnnotation `json:"annotations,omitempty"`
}

// PinDetail is a pin with its detail record, if any.
type PinDetail struct {
	PinLocation
	Hazard    *HazardDetail    `json:"hazard,omitempty"`
	WrongTurn *WrongTurnDetail `json:"wrongTurn,omitempty"`
}

// PinList is the response of the trail pins endpoint.
type PinList struct {
	TrailName string        `json:"trailName"`
	Items     []PinLocation `json:"items"`
}

// HazardReportRequest is the body of POST /v1/trails/{trailName}/pins/hazards.
type HazardReportRequest struct {
	Coordinate  *Point  `json:"coordinate"`
	HazardType  string  `json:"hazardType"`
	Severity    string  `json:"severity,omitempty"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageURL,omitempty"`
}

// WrongTurnReportRequest is the body of POST /v1/trails/{trailName}/pins/wrong-turns.
type WrongTurnReportRequest struct {
	Coordinate                  *Point            `json:"coordinate"`
	Description                 string            `json:"description"`
	CorrectDirectionDescription string            `json:"correctDirectionDescription"`
	ImageURL                    *string           `json:"imageURL,omitempty"`
	Landmarks                   LandmarkList      `json:"landmarks,omitempty"`
	Annotations                 []ImageAnnotation `json:"annotations,omitempty"`
}

// WildlifeReportRequest is the body of POST /v1/trails/{trailName}/pins/wildlife.
type WildlifeReportRequest struct {
	Coordinate *Point `json:"coordinate"`
}

// LandmarkList accepts either a JSON array of strings or a single
// comma-separated string.
type LandmarkList []string

// UnmarshalJSON implements json.Unmarshaler for LandmarkList.
func (l *LandmarkList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = strings.Split(single, ",")
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// ModerationResult is returned by the verify and dismiss endpoints.
// Pin is absent once the pin has expired.
type ModerationResult struct {
	Pin     *PinLocation `json:"pin,omitempty"`
	Expired bool         `json:"expired"`
}

// PinEvent is a pin store change pushed to stream clients and relays.
type PinEvent struct {
	Kind      string           `json:"kind"`
	At        Timestamp        `json:"at"`
	TrailName string           `json:"trailName,omitempty"`
	Pin       *PinLocation     `json:"pin,omitempty"`
	Hazard    *HazardDetail    `json:"hazard,omitempty"`
	WrongTurn *WrongTurnDetail `json:"wrongTurn,omitempty"`
}

// PinSnapshot is the first message on a trail's event stream.
type PinSnapshot struct {
	Kind      string        `json:"kind"`
	At        Timestamp     `json:"at"`
	TrailName string        `json:"trailName"`
	Items     []PinLocation `json:"items"`
}
