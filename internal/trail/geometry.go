package trail

import (
	"math"
	"strings"

	"github.com/livehike/livehike/internal/geo"
	"github.com/livehike/livehike/pkg/polyline"
)

// Region tuning.
const (
	// RegionMargin scales the bounding box span on each axis (40% margin).
	RegionMargin = 1.4

	// MinSpanDegrees is the smallest span returned on either axis.
	MinSpanDegrees = 0.01

	// DefaultSpanDegrees is the span of DefaultRegion.
	DefaultSpanDegrees = 0.05
)

// DefaultRegion is returned for trails without any points (Berkeley area).
var DefaultRegion = geo.Region{
	Center: geo.Point{Lat: 37.88, Lon: -122.25},
	Span:   geo.Span{LatDelta: DefaultSpanDegrees, LonDelta: DefaultSpanDegrees},
}

// RegionFor returns the map region framing the trail: its bounding box
// expanded by RegionMargin, never narrower than MinSpanDegrees.
func RegionFor(t Trail) geo.Region {
	sw, ne, ok := polyline.Bounds(toCoordinates(t.Coordinates))
	if !ok {
		return DefaultRegion
	}

	return geo.Region{
		Center: geo.Point{
			Lat: (sw.Lat + ne.Lat) / 2,
			Lon: (sw.Lon + ne.Lon) / 2,
		},
		Span: geo.Span{
			LatDelta: math.Max((ne.Lat-sw.Lat)*RegionMargin, MinSpanDegrees),
			LonDelta: math.Max((ne.Lon-sw.Lon)*RegionMargin, MinSpanDegrees),
		},
	}
}

// EncodedPolyline returns the trail route as a Google encoded polyline.
func EncodedPolyline(t Trail) string {
	return polyline.Encode(toCoordinates(t.Coordinates))
}

// RouteLengthMeters returns the length of the trail polyline in meters.
// This is the geometric length of the recorded points, not the catalog Length.
func RouteLengthMeters(t Trail) float64 {
	return polyline.Length(toCoordinates(t.Coordinates))
}

// MatchesName reports whether the trail's name equals name, ignoring case.
func MatchesName(t Trail, name string) bool {
	return strings.EqualFold(t.Name, name)
}

// Search returns the trails whose name or location contains query, ignoring
// case. An empty or blank query returns every trail.
func Search(trails []Trail, query string) []Trail {
	q := strings.ToLower(strings.TrimSpace(query))

	result := make([]Trail, 0, len(trails))
	for _, t := range trails {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Location), q) {
			result = append(result, t.Clone())
		}
	}
	return result
}

func toCoordinates(points []geo.Point) []polyline.Coordinate {
	coords := make([]polyline.Coordinate, len(points))
	for i, p := range points {
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lon: p.Lon}
	}
	return coords
}
