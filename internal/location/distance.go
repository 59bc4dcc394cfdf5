package location

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometres between two points
// using the Haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLon := toRadians(lon2 - lon1)

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	// Rounding can push a a hair outside [0,1] for antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceBetween is Distance for two points.
func DistanceBetween(from, to Point) float64 {
	return Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// FormatDistance renders kilometres with two decimals, e.g. "12.34 km".
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
