package pin

import (
	"github.com/livehike/livehike/internal/api/models"
)

// ToAPIPin converts p to its API form. CanDelete is evaluated for actor.
func ToAPIPin(p PinLocation, actor string) models.PinLocation {
	out := models.PinLocation{
		ID:             p.ID,
		Type:           string(p.Type),
		Coordinate:     models.Point{Lat: p.Coordinate.Lat, Lon: p.Coordinate.Lon},
		TrailName:      p.TrailName,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      models.Timestamp(p.CreatedAt),
		VerifiedCount:  p.VerifiedCount,
		DismissedCount: p.DismissedCount,
		CanDelete:      p.CanDelete(actor),
	}
	if p.UpdatedAt != nil {
		ts := models.Timestamp(*p.UpdatedAt)
		out.UpdatedAt = &ts
	}
	return out
}

// ToAPIHazard converts a hazard record to its API form.
func ToAPIHazard(h HazardPin) *models.HazardDetail {
	return &models.HazardDetail{
		ID:          h.ID,
		HazardType:  h.HazardType,
		Severity:    h.Severity,
		Description: h.Description,
		ImageURL:    h.ImageURL,
	}
}

// ToAPIWrongTurn converts a wrong-turn record to its API form.
func ToAPIWrongTurn(w WrongTurnPin) *models.WrongTurnDetail {
	out := &models.WrongTurnDetail{
		ID:                          w.ID,
		Description:                 w.Description,
		CorrectDirectionDescription: w.CorrectDirectionDescription,
		ImageURL:                    w.ImageURL,
		Landmarks:                   w.Landmarks,
	}
	if out.Landmarks == nil {
		out.Landmarks = []string{}
	}
	for _, a := range w.Annotations {
		out.Annotations = append(out.Annotations, models.ImageAnnotation{X: a.X, Y: a.Y, Text: a.Text})
	}
	return out
}

// ToAPIEvent converts a store event to its API form.
func ToAPIEvent(e Event, actor string) models.PinEvent {
	out := models.PinEvent{
		Kind:      string(e.Kind),
		At:        models.Timestamp(e.At),
		TrailName: e.TrailName,
	}
	if e.Pin != nil {
		p := ToAPIPin(*e.Pin, actor)
		out.Pin = &p
	}
	if e.Hazard != nil {
		out.Hazard = ToAPIHazard(*e.Hazard)
	}
	if e.WrongTurn != nil {
		out.WrongTurn = ToAPIWrongTurn(*e.WrongTurn)
	}
	return out
}
