// Package render turns listing sets into display models. Building a model is
// pure; writing it out as HTML lives in html.go.
package render

import (
	"strconv"

	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
)

const (
	NoResults     = "No results found"
	pricePrefix   = "Rs."
	foodAvailable = "Yes"
	foodMissing   = "No"
)

// View is the whole results container.
type View struct {
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
	Cards       []Card `json:"cards"`
}

// Card is one clickable listing entry.
type Card struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Distance    string `json:"distance,omitempty"`
	Price       string `json:"price"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	Food        string `json:"food"`
	Address     string `json:"address"`
	DetailURL   string `json:"detail_url"`
	// Latitude/Longitude feed the directions button; nil when unusable.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Build computes the display model. user may be nil when the position is
// unknown, in which case no card carries a distance.
func Build(listings []listing.Listing, user *location.Point) View {
	if len(listings) == 0 {
		return View{Empty: true, Placeholder: NoResults, Cards: []Card{}}
	}

	cards := make([]Card, 0, len(listings))
	for _, l := range listings {
		cards = append(cards, buildCard(l, user))
	}
	return View{Cards: cards}
}

func buildCard(l listing.Listing, user *location.Point) Card {
	card := Card{
		ID:          l.ID,
		Name:        l.Name,
		Price:       pricePrefix + strconv.FormatFloat(l.Price, 'f', -1, 64),
		OpeningTime: l.OpeningTime,
		ClosingTime: l.ClosingTime,
		Food:        foodMissing,
		Address:     l.Address,
		DetailURL:   listing.DetailPath(l.ID),
	}
	if l.FoodAvailability {
		card.Food = foodAvailable
	}

	if p, ok := l.Point(); ok {
		lat, lon := p.Latitude, p.Longitude
		card.Latitude, card.Longitude = &lat, &lon
		if user != nil {
			card.Distance = location.FormatDistance(location.DistanceBetween(*user, p))
		}
	}

	return card
}
