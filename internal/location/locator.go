package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
)

// Status is the outcome of a browser geolocation request.
type Status string

const (
	StatusGranted     Status = "granted"
	StatusDenied      Status = "denied"
	StatusError       Status = "error"
	StatusUnsupported Status = "unsupported"
)

// Report is what the client sends after asking the browser for a position.
type Report struct {
	Status    Status   `json:"status"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Resolve turns a report into a usable point. Every failure wraps one of the
// location sentinel errors so callers can pick a fallback.
func (r Report) Resolve() (Point, error) {
	switch r.Status {
	case StatusGranted:
		if r.Latitude == nil || r.Longitude == nil {
			return Point{}, fmt.Errorf("granted without coordinates: %w", apperrors.ErrLocationUnavailable)
		}
		p := Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
		if !p.Valid() {
			return Point{}, fmt.Errorf("granted with %v: %w", p, apperrors.ErrInvalidCoordinates)
		}
		return p, nil
	case StatusDenied:
		return Point{}, apperrors.ErrLocationDenied
	case StatusUnsupported:
		return Point{}, apperrors.ErrLocationUnsupported
	default:
		return Point{}, apperrors.ErrLocationUnavailable
	}
}

// Locator acquires the user's current position.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (Point, error) {
	return f(ctx)
}

// Fixed returns a locator that always yields p.
func Fixed(p Point) Locator {
	return LocatorFunc(func(context.Context) (Point, error) {
		return p, nil
	})
}

// Unavailable is a locator that never has a position.
var Unavailable Locator = LocatorFunc(func(context.Context) (Point, error) {
	return Point{}, apperrors.ErrLocationUnavailable
})

// IPLocator resolves a position from an IP geolocation endpoint that answers
// with {"latitude": .., "longitude": ..}.
type IPLocator struct {
	url    string
	client *http.Client
}

type ipLocationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
}

func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	return &IPLocator{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (l *IPLocator) Locate(ctx context.Context) (Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Point{}, fmt.Errorf("failed to build location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("failed to fetch user location: %v: %w", err, apperrors.ErrLocationUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("location API returned status %d: %w", resp.StatusCode, apperrors.ErrLocationUnavailable)
	}

	var payload ipLocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Point{}, fmt.Errorf("failed to parse location response: %v: %w", err, apperrors.ErrLocationUnavailable)
	}

	if payload.Latitude == nil || payload.Longitude == nil {
		return Point{}, fmt.Errorf("location response without coordinates: %w", apperrors.ErrLocationUnavailable)
	}

	p := Point{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
	if !p.Valid() {
		return Point{}, fmt.Errorf("location response out of range: %w", apperrors.ErrInvalidCoordinates)
	}

	return p, nil
}
