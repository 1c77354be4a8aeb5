package pin

import (
	"encoding/json"
	"fmt"

	"github.com/livehike/livehike/internal/trail"
)

// Blob keys under which the store persists its collections.
const (
	KeyPinLocations  = "pinLocations"
	KeyHazardPins    = "hazardPins"
	KeyWrongTurnPins = "wrongTurnPins"
	KeyTrails        = "trails"
)

// Keys lists every persisted key.
var Keys = []string{KeyPinLocations, KeyHazardPins, KeyWrongTurnPins, KeyTrails}

// Encode serializes the dataset into one JSON blob per key. Nil collections
// are written as empty lists.
func (d Dataset) Encode() (map[string][]byte, error) {
	out := make(map[string][]byte, len(Keys))

	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = b
		return nil
	}

	if err := put(KeyPinLocations, nonNil(d.PinLocations)); err != nil {
		return nil, err
	}
	if err := put(KeyHazardPins, nonNil(d.HazardPins)); err != nil {
		return nil, err
	}
	if err := put(KeyWrongTurnPins, nonNil(d.WrongTurnPins)); err != nil {
		return nil, err
	}
	if err := put(KeyTrails, nonNil(d.Trails)); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeDataset parses blobs produced by Encode. A missing key decodes to an
// empty collection. Per-key decode failures are returned in errs and leave
// that collection empty.
func DecodeDataset(blobs map[string][]byte) (d Dataset, errs map[string]error) {
	errs = make(map[string]error)

	decode := func(key string, v any) {
		raw, ok := blobs[key]
		if !ok || len(raw) == 0 {
			return
		}
		if err := json.Unmarshal(raw, v); err != nil {
			errs[key] = err
		}
	}

	var (
		locations  []PinLocation
		hazards    []HazardPin
		wrongTurns []WrongTurnPin
		trails     []trail.Trail
	)
	decode(KeyPinLocations, &locations)
	decode(KeyHazardPins, &hazards)
	decode(KeyWrongTurnPins, &wrongTurns)
	decode(KeyTrails, &trails)

	// A failed decode may leave a partially filled slice behind.
	if errs[KeyPinLocations] != nil {
		locations = nil
	}
	if errs[KeyHazardPins] != nil {
		hazards = nil
	}
	if errs[KeyWrongTurnPins] != nil {
		wrongTurns = nil
	}
	if errs[KeyTrails] != nil {
		trails = nil
	}

	return Dataset{
		PinLocations:  locations,
		HazardPins:    hazards,
		WrongTurnPins: wrongTurns,
		Trails:        trails,
	}, errs
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
