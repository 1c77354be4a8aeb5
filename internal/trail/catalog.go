package trail

import (
	"github.com/google/uuid"

	"github.com/livehike/livehike/internal/geo"
)

// Difficulty levels used by the demo catalog.
const (
	DifficultyEasy     = "Easy"
	DifficultyModerate = "Moderate"
	DifficultyHard     = "Hard"
)

// Demo trail names referenced by the demo pin seed.
const (
	StrawberryCanyon  = "Strawberry Canyon Fire Trail"
	BigC              = "Big C Trail"
	ClaremontCanyon   = "Claremont Canyon Regional Preserve"
	TildenSteamTrains = "Tilden Steam Trains Trail"
	ElCerritoHillside = "El Cerrito Hillside Natural Area Loop"
)

// DemoCatalog returns the demo trails around Berkeley and El Cerrito.
// Each call assigns fresh IDs.
func DemoCatalog() []Trail {
	return []Trail{
		{
			ID:            uuid.NewString(),
			Name:          StrawberryCanyon,
			Location:      "Berkeley Hills",
			Difficulty:    DifficultyModerate,
			Length:        4.3,
			ElevationGain: 908,
			Coordinates: []geo.Point{
				{Lat: 37.8772, Lon: -122.2378},
				{Lat: 37.8820, Lon: -122.2399},
				{Lat: 37.8850, Lon: -122.2450},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          BigC,
			Location:      "Berkeley",
			Difficulty:    DifficultyEasy,
			Length:        1.5,
			ElevationGain: 320,
			Coordinates: []geo.Point{
				{Lat: 37.8726, Lon: -122.2456},
				{Lat: 37.8757, Lon: -122.2505},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          ClaremontCanyon,
			Location:      "Berkeley/Oakland Hills",
			Difficulty:    DifficultyHard,
			Length:        2.1,
			ElevationGain: 850,
			Coordinates: []geo.Point{
				{Lat: 37.8617, Lon: -122.2339},
				{Lat: 37.8640, Lon: -122.2275},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          TildenSteamTrains,
			Location:      "Tilden Park, Berkeley",
			Difficulty:    DifficultyEasy,
			Length:        1.2,
			ElevationGain: 150,
			Coordinates: []geo.Point{
				{Lat: 37.8935, Lon: -122.2405},
				{Lat: 37.8975, Lon: -122.2430},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          ElCerritoHillside,
			Location:      "El Cerrito",
			Difficulty:    DifficultyEasy,
			Length:        1.8,
			ElevationGain: 300,
			Coordinates: []geo.Point{
				{Lat: 37.9106, Lon: -122.2982},
				{Lat: 37.9145, Lon: -122.3014},
				{Lat: 37.9120, Lon: -122.3030},
			},
		},
	}
}
