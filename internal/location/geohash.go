package location

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// DefaultPrecision is about a 5km cell: coarse enough to log without
// revealing where a user actually is.
const DefaultPrecision uint = 5

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are finite and within range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Geohash encodes the point with the given number of characters.
func (p Point) Geohash(precision uint) string {
	return geohash.EncodeWithPrecision(p.Latitude, p.Longitude, precision)
}
