// Package filter narrows a listing set by opening hours and price.
package filter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/askwhyharsh/deskfinder/internal/listing"
)

var timeLayouts = []string{"15:04:05", "15:04"}

// Criteria holds the raw form inputs. Empty fields disable their predicate.
type Criteria struct {
	OpeningTime string `form:"opening_time" json:"opening_time"`
	ClosingTime string `form:"closing_time" json:"closing_time"`
	MaxPrice    string `form:"price" json:"price"`
}

// Apply returns the listings matching every active predicate. The input is
// never modified and the result is a new slice.
//
// A listing whose own time cannot be parsed fails an active time predicate.
// A malformed input time matches nothing; callers validate inputs first.
func Apply(listings []listing.Listing, c Criteria) []listing.Listing {
	var predicates []func(listing.Listing) bool

	if in := strings.TrimSpace(c.OpeningTime); in != "" {
		bound, ok := ParseTimeOfDay(in)
		predicates = append(predicates, func(l listing.Listing) bool {
			opens, valid := ParseTimeOfDay(l.OpeningTime)
			return ok && valid && opens <= bound
		})
	}

	if in := strings.TrimSpace(c.ClosingTime); in != "" {
		bound, ok := ParseTimeOfDay(in)
		predicates = append(predicates, func(l listing.Listing) bool {
			closes, valid := ParseTimeOfDay(l.ClosingTime)
			return ok && valid && closes >= bound
		})
	}

	if ceiling, ok := c.priceCeiling(); ok {
		predicates = append(predicates, func(l listing.Listing) bool {
			return l.Price <= ceiling
		})
	}

	result := make([]listing.Listing, 0, len(listings))
	for _, l := range listings {
		if matchesAll(l, predicates) {
			result = append(result, l)
		}
	}
	return result
}

func matchesAll(l listing.Listing, predicates []func(listing.Listing) bool) bool {
	for _, p := range predicates {
		if !p(l) {
			return false
		}
	}
	return true
}

// priceCeiling parses MaxPrice; ok is false when it is not a usable number.
func (c Criteria) priceCeiling() (float64, bool) {
	raw := strings.TrimSpace(c.MaxPrice)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseTimeOfDay converts HH:MM or HH:MM:SS to a duration since midnight.
func ParseTimeOfDay(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
