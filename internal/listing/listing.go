package listing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/askwhyharsh/deskfinder/internal/location"
)

// Listing is a coworking space as served by the backend. Read-only.
type Listing struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Latitude         Coordinate `json:"latitude"`
	Longitude        Coordinate `json:"longitude"`
	Price            float64    `json:"price"`
	OpeningTime      string     `json:"opening_time"`
	ClosingTime      string     `json:"closing_time"`
	FoodAvailability bool       `json:"food_availability"`
	Address          string     `json:"address"`
	// Distance is set by the backend on nearest results only.
	Distance *float64 `json:"distance,omitempty"`
}

// Point returns the listing position when both coordinates are usable.
func (l Listing) Point() (location.Point, bool) {
	if !l.Latitude.Valid || !l.Longitude.Valid {
		return location.Point{}, false
	}
	return location.Point{Latitude: l.Latitude.Value, Longitude: l.Longitude.Value}, true
}

// Coordinate is a degree value that may be missing or non-numeric upstream.
// Only finite JSON numbers are valid; anything else decodes without error
// and is marked invalid.
type Coordinate struct {
	Value float64
	Valid bool
}

// Coord builds a valid coordinate.
func Coord(v float64) Coordinate {
	return Coordinate{Value: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	*c = Coordinate{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if first := data[0]; first != '-' && (first < '0' || first > '9') {
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}

	*c = Coord(v)
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}
