// Package polyline implements Google's encoded polyline algorithm and simple
// route geometry (length and bounding box) over coordinate sequences.
// Algorithm reference: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
)

// precision is the fixed-point scale used by the encoding (5 decimal places).
const precision = 1e5

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Encode encodes coordinates into a polyline string.
// An empty input encodes to the empty string.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	out := make([]byte, 0, len(coords)*6)
	var prevLat, prevLon int

	for _, c := range coords {
		lat := int(math.Round(c.Lat * precision))
		lon := int(math.Round(c.Lon * precision))

		out = appendValue(out, lat-prevLat)
		out = appendValue(out, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(out)
}

// Decode decodes a polyline string into coordinates.
// A trailing half-pair (latitude without longitude) is dropped.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var (
		coords   []Coordinate
		lat, lon int
		pos      int
	)

	for pos < len(encoded) {
		dLat, next, ok := readValue(encoded, pos)
		if !ok {
			break
		}
		dLon, next, ok := readValue(encoded, next)
		if !ok {
			break
		}
		pos = next

		lat += dLat
		lon += dLon
		coords = append(coords, Coordinate{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return coords
}

// readValue reads one zig-zag encoded varint starting at pos.
// ok is false when the input ends before a value starts.
func readValue(encoded string, pos int) (value, next int, ok bool) {
	if pos >= len(encoded) {
		return 0, pos, false
	}

	var result, shift int
	for pos < len(encoded) {
		b := int(encoded[pos]) - 63
		pos++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), pos, true
	}
	return result >> 1, pos, true
}

func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Length returns the haversine length of the path in meters.
func Length(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversine(coords[i-1], coords[i])
	}
	return total
}

// Bounds returns the south-west and north-east corners of the coordinates.
// ok is false for an empty input.
func Bounds(coords []Coordinate) (sw, ne Coordinate, ok bool) {
	if len(coords) == 0 {
		return Coordinate{}, Coordinate{}, false
	}

	sw, ne = coords[0], coords[0]
	for _, c := range coords[1:] {
		sw.Lat = math.Min(sw.Lat, c.Lat)
		sw.Lon = math.Min(sw.Lon, c.Lon)
		ne.Lat = math.Max(ne.Lat, c.Lat)
		ne.Lon = math.Max(ne.Lon, c.Lon)
	}
	return sw, ne, true
}

const earthRadiusMeters = 6371000

func haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
