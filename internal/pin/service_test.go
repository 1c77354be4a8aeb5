package pin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/pin"
	"github.com/livehike/livehike/internal/trail"
)

func strPtr(s string) *string { return &s }

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *pin.ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		names = append(names, fe.Field)
	}
	return names
}

func TestReportService_ReportHazard(t *testing.T) {
	store, _ := seededStore(t)
	svc := pin.NewReportService(store)
	ctx := context.Background()

	t.Run("creates pin and detail", func(t *testing.T) {
		loc, hazard, err := svc.ReportHazard(ctx, "current_user", "tilden steam trains trail", &models.HazardReportRequest{
			Coordinate:  &models.Point{Lat: 37.895, Lon: -122.241},
			HazardType:  "  Rockslide ",
			Description: "Loose rocks on the switchback",
			ImageURL:    strPtr("  "),
		})
		require.NoError(t, err)

		assert.Equal(t, pin.TypeHazard, loc.Type)
		assert.Equal(t, trail.TildenSteamTrains, loc.TrailName, "canonical trail name")
		assert.Equal(t, "current_user", loc.CreatedBy)
		assert.Equal(t, pin.SeverityMedium, hazard.Severity)
		assert.Equal(t, "Rockslide", hazard.HazardType)
		assert.Nil(t, hazard.ImageURL)
		assert.Equal(t, loc.ID, hazard.PinLocationID)

		stored, ok := store.HazardPinDetails(loc)
		require.True(t, ok)
		assert.Equal(t, hazard, stored)
	})

	t.Run("validation", func(t *testing.T) {
		_, _, err := svc.ReportHazard(ctx, "current_user", trail.BigC, &models.HazardReportRequest{
			Coordinate: &models.Point{Lat: 91, Lon: 0},
			Severity:   "Extreme",
		})
		assert.ElementsMatch(t, []string{"coordinate.lat", "hazardType", "description", "severity"}, fieldNames(t, err))
	})

	t.Run("missing coordinate", func(t *testing.T) {
		_, _, err := svc.ReportHazard(ctx, "current_user", trail.BigC, &models.HazardReportRequest{
			HazardType:  "Ice",
			Description: "Frozen puddles",
		})
		assert.Equal(t, []string{"coordinate"}, fieldNames(t, err))
	})

	t.Run("unknown trail", func(t *testing.T) {
		_, _, err := svc.ReportHazard(ctx, "current_user", "Half Dome", &models.HazardReportRequest{
			Coordinate:  &models.Point{Lat: 37.7, Lon: -119.5},
			HazardType:  "Cables down",
			Description: "Closed",
		})
		assert.ErrorIs(t, err, pin.ErrTrailNotFound)
	})
}

func TestReportService_ReportWrongTurn(t *testing.T) {
	store, _ := seededStore(t)
	svc := pin.NewReportService(store)

	loc, detail, err := svc.ReportWrongTurn(context.Background(), "current_user", trail.ClaremontCanyon, &models.WrongTurnReportRequest{
		Coordinate:                  &models.Point{Lat: 37.862, Lon: -122.231},
		Description:                 "Unsigned junction",
		CorrectDirectionDescription: "Stay uphill",
		Landmarks:                   models.LandmarkList{"Water tank, ", " Bench", ""},
		Annotations:                 []models.ImageAnnotation{{X: 0.5, Y: 0.5, Text: "sign"}},
	})
	require.NoError(t, err)

	assert.Equal(t, pin.TypeWrongTurn, loc.Type)
	assert.Equal(t, []string{"Water tank", "Bench"}, detail.Landmarks)
	assert.Equal(t, []pin.ImageAnnotation{{X: 0.5, Y: 0.5, Text: "sign"}}, detail.Annotations)

	stored, ok := store.WrongTurnPinDetails(loc)
	require.True(t, ok)
	assert.Equal(t, detail, stored)

	_, _, err = svc.ReportWrongTurn(context.Background(), "current_user", trail.ClaremontCanyon, &models.WrongTurnReportRequest{
		Coordinate:  &models.Point{Lat: 37.862, Lon: -122.231},
		Annotations: []models.ImageAnnotation{{X: 2, Y: 0}},
	})
	assert.ElementsMatch(t, []string{"description", "correctDirectionDescription", "annotations[0]"}, fieldNames(t, err))
}

func TestReportService_ReportWildlife(t *testing.T) {
	store, _ := seededStore(t)
	svc := pin.NewReportService(store)

	loc, err := svc.ReportWildlife(context.Background(), "current_user", trail.BigC, &models.WildlifeReportRequest{
		Coordinate: &models.Point{Lat: 37.874, Lon: -122.247},
	})
	require.NoError(t, err)
	assert.Equal(t, pin.TypeWildlife, loc.Type)
	assert.Len(t, store.PinsForTrail(trail.BigC), 2)

	_, err = svc.ReportWildlife(context.Background(), "current_user", trail.BigC, &models.WildlifeReportRequest{
		Coordinate: &models.Point{Lat: 0, Lon: 181},
	})
	assert.Equal(t, []string{"coordinate.lon"}, fieldNames(t, err))
}

func TestReportService_Moderation(t *testing.T) {
	store, _ := seededStore(t)
	svc := pin.NewReportService(store)
	ctx := context.Background()
	hazard := pinOnTrail(t, store, trail.StrawberryCanyon, pin.TypeHazard)

	verified, err := svc.Verify(ctx, hazard.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, verified.VerifiedCount)

	p, expired, err := svc.Dismiss(ctx, hazard.ID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 1, p.DismissedCount)

	p, expired, err = svc.Dismiss(ctx, hazard.ID)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, 2, p.DismissedCount)

	_, err = svc.Verify(ctx, hazard.ID)
	assert.ErrorIs(t, err, pin.ErrPinNotFound)
	_, _, err = svc.Dismiss(ctx, hazard.ID)
	assert.ErrorIs(t, err, pin.ErrPinNotFound)
}

func TestReportService_Delete(t *testing.T) {
	store, _ := seededStore(t)
	svc := pin.NewReportService(store)
	ctx := context.Background()

	mine, err := svc.ReportWildlife(ctx, "current_user", trail.BigC, &models.WildlifeReportRequest{
		Coordinate: &models.Point{Lat: 37.874, Lon: -122.247},
	})
	require.NoError(t, err)

	theirs := pinOnTrail(t, store, trail.BigC, pin.TypeWrongTurn)
	assert.ErrorIs(t, svc.Delete(ctx, "current_user", theirs.ID), pin.ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, "current_user", "missing"), pin.ErrPinNotFound)
	require.NoError(t, svc.Delete(ctx, "current_user", mine.ID))

	_, ok := store.PinLocation(mine.ID)
	assert.False(t, ok)
}

func TestCleanLandmarks(t *testing.T) {
	assert.Equal(t, []string{}, pin.CleanLandmarks(nil))
	assert.Equal(t, []string{"a", "b", "c"}, pin.CleanLandmarks([]string{" a ,b", "", " c"}))
}

func TestToAPIEvent(t *testing.T) {
	p := newPin("p-1", pin.TypeHazard, trail.BigC)
	e := pin.Event{
		Kind:      pin.EventHazardAdded,
		At:        testNow,
		TrailName: trail.BigC,
		Pin:       &p,
		Hazard:    &pin.HazardPin{ID: "h-1", PinLocationID: p.ID, HazardType: "Ice"},
	}

	out := pin.ToAPIEvent(e, "current_user")
	assert.Equal(t, "hazard.added", out.Kind)
	require.NotNil(t, out.Pin)
	assert.True(t, out.Pin.CanDelete)
	assert.Equal(t, "Hazard", out.Pin.Type)
	require.NotNil(t, out.Hazard)
	assert.Equal(t, "Ice", out.Hazard.HazardType)
	assert.Nil(t, out.WrongTurn)

	assert.False(t, pin.ToAPIEvent(e, "someone_else").Pin.CanDelete)
}
