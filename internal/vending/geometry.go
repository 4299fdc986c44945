package vending

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// pointPattern matches the WKT point form used by the data source,
// "POINT (<lon> <lat>)".
var pointPattern = regexp.MustCompile(`POINT \(([^ ]+) ([^ ]+)\)`)

// LatLon is the in-core geometry value. Geometry is numeric everywhere inside
// the core; the string encoding exists only at the boundary.
type LatLon struct {
	Lat float64
	Lon float64
}

// Pair returns the [lat, lon] slice form expected by mapping consumers.
// Note the inversion: boundary encodings carry lon first.
func (ll LatLon) Pair() []float64 {
	return []float64{ll.Lat, ll.Lon}
}

// ParsePoint extracts a LatLon from a "POINT (<lon> <lat>)" string. ok is
// false when the pattern does not match or either component is not a finite
// number. Parse failure is never fatal; the caller treats the record as
// having no plottable location.
func ParsePoint(s string) (LatLon, bool) {
	m := pointPattern.FindStringSubmatch(s)
	if m == nil {
		return LatLon{}, false
	}
	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return LatLon{}, false
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return LatLon{}, false
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return LatLon{}, false
	}
	return LatLon{Lat: lat, Lon: lon}, true
}

// FeatureCoords extracts a LatLon from a GeoJSON coordinates array,
// [lon, lat]. Same output convention as ParsePoint, no string parsing.
func FeatureCoords(coords []float64) (LatLon, bool) {
	if len(coords) < 2 {
		return LatLon{}, false
	}
	lon, lat := coords[0], coords[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return LatLon{}, false
	}
	return LatLon{Lat: lat, Lon: lon}, true
}

// FormatPoint renders the boundary encoding of a LatLon. It is the inverse
// of ParsePoint for finite coordinates.
func FormatPoint(ll LatLon) string {
	return fmt.Sprintf("POINT (%v %v)", ll.Lon, ll.Lat)
}
