// Package geo provides the geographic value types shared by trails and pins.
package geo

// Point represents a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within the WGS84 latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Span is the extent of a region in degrees along each axis.
type Span struct {
	LatDelta float64 `json:"latDelta"`
	LonDelta float64 `json:"lonDelta"`
}

// Region is a map viewport: a center point and the span around it.
type Region struct {
	Center Point `json:"center"`
	Span   Span  `json:"span"`
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p Point) bool {
	halfLat := r.Span.LatDelta / 2
	halfLon := r.Span.LonDelta / 2
	return p.Lat >= r.Center.Lat-halfLat && p.Lat <= r.Center.Lat+halfLat &&
		p.Lon >= r.Center.Lon-halfLon && p.Lon <= r.Center.Lon+halfLon
}
