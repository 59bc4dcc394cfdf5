package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/askwhyharsh/deskfinder/internal/location"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

const (
	allPath     = "/api/coworking_spaces"
	nearestPath = "/api/nearest_spaces"
	searchPath  = "/api/search"
	detailPath  = "/coworking_space/"
)

// Fetcher retrieves listings from the directory backend.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Listing, error)
	FetchNearest(ctx context.Context, p location.Point) ([]Listing, error)
	Search(ctx context.Context, query string) ([]Listing, error)
}

type Client struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// FetchAll returns every listing.
func (c *Client) FetchAll(ctx context.Context) ([]Listing, error) {
	return c.get(ctx, allPath, nil)
}

// FetchNearest returns listings ordered by the backend's proximity to p.
func (c *Client) FetchNearest(ctx context.Context, p location.Point) ([]Listing, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	return c.get(ctx, nearestPath, params)
}

// Search returns listings whose name matches query. Case handling is up to
// the backend.
func (c *Client) Search(ctx context.Context, query string) ([]Listing, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.get(ctx, searchPath, params)
}

// DetailURL is the backend page for a single listing.
func (c *Client) DetailURL(id int64) string {
	return c.baseURL + DetailPath(id)
}

// DetailPath is the navigation target for a listing.
func DetailPath(id int64) string {
	return detailPath + strconv.FormatInt(id, 10)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]Listing, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Listing request failed", "path", path, "error", err)
		return nil, fmt.Errorf("GET %s: %v: %w", path, err, apperrors.ErrUpstreamUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Listing upstream error", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("GET %s returned status %d: %w", path, resp.StatusCode, apperrors.ErrUpstreamStatus)
	}

	var listings []Listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		c.logger.Error("Failed to decode listings", "path", path, "error", err)
		return nil, fmt.Errorf("GET %s: %v: %w", path, err, apperrors.ErrUpstreamPayload)
	}

	if listings == nil {
		listings = []Listing{}
	}

	c.logger.Debug("Fetched listings", "path", path, "count", len(listings), "duration", time.Since(start))

	return listings, nil
}
