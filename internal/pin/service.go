package pin

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/geo"
)

// Validation constants.
const (
	MaxDescriptionLength = 1000
	MaxFieldLength       = 120
	MaxLandmarks         = 20
)

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// ReportService turns report forms into pins, and runs moderation by pin id.
type ReportService struct {
	store *Store
	newID func() string
	now   func() time.Time
}

// NewReportService creates a new report service over store.
func NewReportService(store *Store) *ReportService {
	return &ReportService{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// ReportHazard creates a hazard pin and its detail record on the named trail.
func (s *ReportService) ReportHazard(ctx context.Context, actor, trailName string, input *models.HazardReportRequest) (PinLocation, HazardPin, error) {
	var errs []models.FieldError
	errs = append(errs, validateCoordinate(input.Coordinate)...)
	errs = append(errs, requireText("hazardType", input.HazardType, MaxFieldLength)...)
	errs = append(errs, requireText("description", input.Description, MaxDescriptionLength)...)

	severity := strings.TrimSpace(input.Severity)
	if severity == "" {
		severity = SeverityMedium
	} else if !validSeverity(severity) {
		errs = append(errs, models.FieldError{Field: "severity", Message: "must be one of Low, Medium, High", Code: models.CodeInvalid})
	}
	if len(errs) > 0 {
		return PinLocation{}, HazardPin{}, &ValidationError{Errors: errs}
	}

	loc, err := s.newLocation(actor, trailName, TypeHazard, *input.Coordinate)
	if err != nil {
		return PinLocation{}, HazardPin{}, err
	}

	hazard := HazardPin{
		ID:            s.newID(),
		PinLocationID: loc.ID,
		HazardType:    strings.TrimSpace(input.HazardType),
		Severity:      severity,
		Description:   strings.TrimSpace(input.Description),
		ImageURL:      trimOptional(input.ImageURL),
	}

	if err := s.store.AddReport(ctx, loc, &hazard, nil); err != nil {
		return PinLocation{}, HazardPin{}, err
	}
	return loc, hazard, nil
}

// ReportWrongTurn creates a wrong-turn pin and its detail record on the named trail.
func (s *ReportService) ReportWrongTurn(ctx context.Context, actor, trailName string, input *models.WrongTurnReportRequest) (PinLocation, WrongTurnPin, error) {
	var errs []models.FieldError
	errs = append(errs, validateCoordinate(input.Coordinate)...)
	errs = append(errs, requireText("description", input.Description, MaxDescriptionLength)...)
	errs = append(errs, requireText("correctDirectionDescription", input.CorrectDirectionDescription, MaxDescriptionLength)...)

	landmarks := CleanLandmarks(input.Landmarks)
	if len(landmarks) > MaxLandmarks {
		errs = append(errs, models.FieldError{Field: "landmarks", Message: "must contain at most 20 entries", Code: models.CodeTooLong})
	}
	for i, a := range input.Annotations {
		if a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1 {
			errs = append(errs, models.FieldError{
				Field:   "annotations[" + strconv.Itoa(i) + "]",
				Message: "x and y must be between 0 and 1",
				Code:    models.CodeOutOfRange,
			})
		}
	}
	if len(errs) > 0 {
		return PinLocation{}, WrongTurnPin{}, &ValidationError{Errors: errs}
	}

	loc, err := s.newLocation(actor, trailName, TypeWrongTurn, *input.Coordinate)
	if err != nil {
		return PinLocation{}, WrongTurnPin{}, err
	}

	wrongTurn := WrongTurnPin{
		ID:                          s.newID(),
		PinLocationID:               loc.ID,
		Description:                 strings.TrimSpace(input.Description),
		CorrectDirectionDescription: strings.TrimSpace(input.CorrectDirectionDescription),
		ImageURL:                    trimOptional(input.ImageURL),
		Landmarks:                   landmarks,
	}
	if len(input.Annotations) > 0 {
		wrongTurn.Annotations = make([]ImageAnnotation, len(input.Annotations))
		for i, a := range input.Annotations {
			wrongTurn.Annotations[i] = ImageAnnotation{X: a.X, Y: a.Y, Text: a.Text}
		}
	}

	if err := s.store.AddReport(ctx, loc, nil, &wrongTurn); err != nil {
		return PinLocation{}, WrongTurnPin{}, err
	}
	return loc, wrongTurn, nil
}

// ReportWildlife creates a wildlife sighting pin on the named trail.
// Wildlife pins carry no detail record.
func (s *ReportService) ReportWildlife(ctx context.Context, actor, trailName string, input *models.WildlifeReportRequest) (PinLocation, error) {
	if errs := validateCoordinate(input.Coordinate); len(errs) > 0 {
		return PinLocation{}, &ValidationError{Errors: errs}
	}

	loc, err := s.newLocation(actor, trailName, TypeWildlife, *input.Coordinate)
	if err != nil {
		return PinLocation{}, err
	}

	if err := s.store.AddReport(ctx, loc, nil, nil); err != nil {
		return PinLocation{}, err
	}
	return loc, nil
}

// Verify records a verification of the pin with the given id.
func (s *ReportService) Verify(ctx context.Context, id string) (PinLocation, error) {
	p, ok := s.store.PinLocation(id)
	if !ok {
		return PinLocation{}, ErrPinNotFound
	}

	s.store.VerifyPin(ctx, p)

	updated, ok := s.store.PinLocation(id)
	if !ok {
		// Deleted concurrently.
		return PinLocation{}, ErrPinNotFound
	}
	return updated, nil
}

// Dismiss records a dismissal of the pin with the given id. When the pin
// expired, the returned pin is the last state before deletion.
func (s *ReportService) Dismiss(ctx context.Context, id string) (PinLocation, bool, error) {
	p, ok := s.store.PinLocation(id)
	if !ok {
		return PinLocation{}, false, ErrPinNotFound
	}

	if s.store.DismissPin(ctx, p) {
		p.DismissedCount++
		return p, true, nil
	}

	updated, ok := s.store.PinLocation(id)
	if !ok {
		return PinLocation{}, false, ErrPinNotFound
	}
	return updated, false, nil
}

// Delete removes the pin with the given id on behalf of actor.
func (s *ReportService) Delete(ctx context.Context, actor, id string) error {
	return s.store.DeletePinLocationAs(ctx, actor, PinLocation{ID: id})
}

func (s *ReportService) newLocation(actor, trailName string, pinType PinType, at models.Point) (PinLocation, error) {
	t, ok := s.store.TrailByName(trailName)
	if !ok {
		return PinLocation{}, ErrTrailNotFound
	}

	return PinLocation{
		ID:         s.newID(),
		Coordinate: geo.Point{Lat: at.Lat, Lon: at.Lon},
		Type:       pinType,
		CreatedAt:  s.now().UTC(),
		CreatedBy:  actor,
		TrailName:  t.Name,
	}, nil
}

// CleanLandmarks trims every landmark and drops empty ones. A single entry
// containing commas is split first.
func CleanLandmarks(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func validateCoordinate(p *models.Point) []models.FieldError {
	if p == nil {
		return []models.FieldError{{Field: "coordinate", Message: "is required", Code: models.CodeRequired}}
	}

	var errs []models.FieldError
	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{Field: "coordinate.lat", Message: "must be between -90 and 90", Code: models.CodeOutOfRange})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{Field: "coordinate.lon", Message: "must be between -180 and 180", Code: models.CodeOutOfRange})
	}
	return errs
}

func requireText(field, value string, maxLen int) []models.FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return []models.FieldError{{Field: field, Message: "is required", Code: models.CodeRequired}}
	}
	if len(value) > maxLen {
		return []models.FieldError{{Field: field, Message: "must be at most " + strconv.Itoa(maxLen) + " characters", Code: models.CodeTooLong}}
	}
	return nil
}

func validSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
