package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/askwhyharsh/deskfinder/internal/location"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

const (
	directionsPath = "/maps/api/directions/json"

	StatusOK            = "OK"
	statusRequestDenied = "REQUEST_DENIED"
	statusUnknownError  = "UNKNOWN_ERROR"
)

// Service computes a route between two points.
type Service interface {
	Route(ctx context.Context, origin, destination location.Point) (*Route, error)
}

type Route struct {
	Summary     string         `json:"summary"`
	TravelMode  string         `json:"travel_mode"`
	Origin      location.Point `json:"origin"`
	Destination location.Point `json:"destination"`
	Legs        []Leg          `json:"legs"`
}

type Leg struct {
	StartAddress string  `json:"start_address"`
	EndAddress   string  `json:"end_address"`
	Distance     Measure `json:"distance"`
	Duration     Measure `json:"duration"`
	Steps        []Step  `json:"steps"`
}

type Step struct {
	Instructions string  `json:"instructions"`
	Distance     Measure `json:"distance"`
	Duration     Measure `json:"duration"`
}

// Measure is a Google text/value pair: metres or seconds plus display text.
type Measure struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type googleResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Routes       []googleRoute `json:"routes"`
}

type googleRoute struct {
	Summary string      `json:"summary"`
	Legs    []googleLeg `json:"legs"`
}

type googleLeg struct {
	StartAddress string       `json:"start_address"`
	EndAddress   string       `json:"end_address"`
	Distance     Measure      `json:"distance"`
	Duration     Measure      `json:"duration"`
	Steps        []googleStep `json:"steps"`
}

type googleStep struct {
	HTMLInstructions string  `json:"html_instructions"`
	Distance         Measure `json:"distance"`
	Duration         Measure `json:"duration"`
}

// GoogleClient talks to the Google Directions web service.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	travelMode string
	client     *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

func NewGoogleClient(baseURL, apiKey, travelMode string, requestsPerSecond float64, timeout time.Duration, log logger.Logger) *GoogleClient {
	return &GoogleClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		travelMode: travelMode,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     log,
	}
}

// Route requests directions. Any status other than OK becomes a
// user-facing "Directions request failed due to STATUS" error.
func (g *GoogleClient) Route(ctx context.Context, origin, destination location.Point) (*Route, error) {
	if g.apiKey == "" {
		return nil, failed(statusRequestDenied)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("directions throttled: %w", err)
	}

	params := url.Values{}
	params.Set("origin", formatPoint(origin))
	params.Set("destination", formatPoint(destination))
	params.Set("mode", g.travelMode)
	params.Set("key", g.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, directionsPath, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("Directions request failed", "error", err)
		return nil, failed(statusUnknownError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("Directions upstream error", "status", resp.StatusCode)
		return nil, failed(statusUnknownError)
	}

	var payload googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Error("Failed to decode directions payload", "error", err)
		return nil, failed(statusUnknownError)
	}

	if payload.Status != StatusOK {
		g.logger.Warn("Directions not available", "status", payload.Status, "message", payload.ErrorMessage)
		return nil, failed(payload.Status)
	}

	if len(payload.Routes) == 0 {
		return nil, failed("ZERO_RESULTS")
	}

	return g.buildRoute(payload.Routes[0], origin, destination), nil
}

func (g *GoogleClient) buildRoute(raw googleRoute, origin, destination location.Point) *Route {
	route := &Route{
		Summary:     raw.Summary,
		TravelMode:  g.travelMode,
		Origin:      origin,
		Destination: destination,
		Legs:        make([]Leg, 0, len(raw.Legs)),
	}

	for _, l := range raw.Legs {
		leg := Leg{
			StartAddress: l.StartAddress,
			EndAddress:   l.EndAddress,
			Distance:     l.Distance,
			Duration:     l.Duration,
			Steps:        make([]Step, 0, len(l.Steps)),
		}
		for _, s := range l.Steps {
			leg.Steps = append(leg.Steps, Step{
				Instructions: s.HTMLInstructions,
				Distance:     s.Distance,
				Duration:     s.Duration,
			})
		}
		route.Legs = append(route.Legs, leg)
	}

	return route
}

func failed(status string) error {
	return apperrors.Alert(apperrors.ErrDirectionsFailed, "Directions request failed due to "+status)
}

func formatPoint(p location.Point) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}
