package pin

import (
	"time"

	"github.com/google/uuid"

	"github.com/livehike/livehike/internal/geo"
	"github.com/livehike/livehike/internal/trail"
)

// Dataset is the full contents of a Store.
type Dataset struct {
	PinLocations  []PinLocation
	HazardPins    []HazardPin
	WrongTurnPins []WrongTurnPin
	Trails        []trail.Trail
}

// DemoDataset returns the demo trails with a handful of reports on them.
// IDs are freshly generated and timestamps set to now.
func DemoDataset(now time.Time) Dataset {
	now = now.UTC()

	locations := []PinLocation{
		{
			ID:         uuid.NewString(),
			Coordinate: geo.Point{Lat: 37.8825, Lon: -122.2405},
			Type:       TypeHazard,
			CreatedAt:  now,
			CreatedBy:  "hiker_jane",
			TrailName:  trail.StrawberryCanyon,
		},
		{
			ID:         uuid.NewString(),
			Coordinate: geo.Point{Lat: 37.8735, Lon: -122.2490},
			Type:       TypeWrongTurn,
			CreatedAt:  now,
			CreatedBy:  "hiker_bob",
			TrailName:  trail.BigC,
		},
		{
			ID:         uuid.NewString(),
			Coordinate: geo.Point{Lat: 37.8630, Lon: -122.2300},
			Type:       TypeHazard,
			CreatedAt:  now,
			CreatedBy:  "hiker_alice",
			TrailName:  trail.ClaremontCanyon,
		},
		{
			ID:         uuid.NewString(),
			Coordinate: geo.Point{Lat: 37.9125, Lon: -122.3000},
			Type:       TypeWildlife,
			CreatedAt:  now,
			CreatedBy:  "local_resident",
			TrailName:  trail.ElCerritoHillside,
		},
	}

	return Dataset{
		PinLocations: locations,
		HazardPins: []HazardPin{
			{
				ID:            uuid.NewString(),
				PinLocationID: locations[0].ID,
				HazardType:    "Fallen Tree",
				Severity:      SeverityHigh,
				Description:   "Large oak blocking the main trail path. Difficult to get around.",
			},
			{
				ID:            uuid.NewString(),
				PinLocationID: locations[2].ID,
				HazardType:    "Muddy Section",
				Severity:      SeverityMedium,
				Description:   "Very slippery section after Stonewall Rd entrance.",
			},
		},
		WrongTurnPins: []WrongTurnPin{
			{
				ID:                          uuid.NewString(),
				PinLocationID:               locations[1].ID,
				Description:                 "Trail fork that's easily missed. Many hikers go straight instead of bearing right.",
				CorrectDirectionDescription: "Bear RIGHT at the fork towards the large 'C' structure.",
				Landmarks:                   []string{"Large oak tree", "Rocky outcrop"},
			},
		},
		Trails: trail.DemoCatalog(),
	}
}
