// Package directory drives the listing page for one session: the initial
// load, searches, filters and directions. It owns no state of its own; the
// listing set and user position live in the session store.
package directory

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/askwhyharsh/deskfinder/internal/directions"
	"github.com/askwhyharsh/deskfinder/internal/filter"
	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/render"
	"github.com/askwhyharsh/deskfinder/internal/session"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
	"github.com/askwhyharsh/deskfinder/pkg/validator"
)

// Source says which request produced a Result.
type Source string

const (
	SourceAll     Source = "all"
	SourceNearest Source = "nearest"
	SourceSearch  Source = "search"
	SourceFilter  Source = "filter"
	SourceCurrent Source = "current"
)

// Result is what the client should display next. Alert, when set, is shown
// in addition to the view.
type Result struct {
	Source Source      `json:"source"`
	View   render.View `json:"view"`
	Alert  string      `json:"alert,omitempty"`
}

// RouteViewer resolves directions for a destination.
type RouteViewer interface {
	Show(ctx context.Context, destination location.Point, origin *location.Point) (*directions.Route, error)
}

type Controller struct {
	sessions       session.SessionService
	fetcher        listing.Fetcher
	router         RouteViewer
	validator      validator.Validator
	logger         logger.Logger
	minQueryLength int
}

func NewController(
	sessions session.SessionService,
	fetcher listing.Fetcher,
	router RouteViewer,
	val validator.Validator,
	log logger.Logger,
	minQueryLength int,
) *Controller {
	return &Controller{
		sessions:       sessions,
		fetcher:        fetcher,
		router:         router,
		validator:      val,
		logger:         log,
		minQueryLength: minQueryLength,
	}
}

// Start runs the page-load flow. A usable position loads the nearest
// listings; anything else falls back to the full set.
func (c *Controller) Start(ctx context.Context, sessionID string, report location.Report) (*Result, error) {
	if _, err := c.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	point, err := report.Resolve()
	if err == nil {
		if err := c.sessions.SetUserLocation(ctx, sessionID, point); err != nil {
			return nil, err
		}
		return c.refresh(ctx, sessionID, SourceNearest, func(ctx context.Context) ([]listing.Listing, error) {
			return c.fetcher.FetchNearest(ctx, point)
		})
	}

	if err := c.sessions.ClearUserLocation(ctx, sessionID); err != nil {
		return nil, err
	}

	alert := ""
	if errors.Is(err, apperrors.ErrLocationUnsupported) {
		alert = apperrors.AlertGeolocationUnsupported
	} else {
		c.logger.Warn("Error getting user location", "session_id", sessionID, "status", report.Status, "error", err)
	}

	result, err := c.refresh(ctx, sessionID, SourceAll, c.fetcher.FetchAll)
	if err != nil {
		var appErr *apperrors.AppError
		if alert != "" && errors.As(err, &appErr) {
			return nil, apperrors.Alert(appErr.Err, alert+" "+appErr.Error())
		}
		return nil, err
	}
	result.Alert = alert
	return result, nil
}

// refresh replaces the session's listing set with the output of fetch,
// unless a newer refresh started meanwhile. The committed set is only
// displayed if nothing else was requested after it.
func (c *Controller) refresh(
	ctx context.Context,
	sessionID string,
	source Source,
	fetch func(context.Context) ([]listing.Listing, error),
) (*Result, error) {
	viewGen, err := c.sessions.BeginFetch(ctx, sessionID, session.StreamView)
	if err != nil {
		return nil, err
	}
	generation, err := c.sessions.BeginFetch(ctx, sessionID, session.StreamListings)
	if err != nil {
		return nil, err
	}

	listings, err := fetch(ctx)
	if err != nil {
		c.logger.Error("Failed to fetch coworking spaces", "session_id", sessionID, "source", source, "error", err)
		return nil, apperrors.Alert(err, apperrors.AlertFetchFailed)
	}

	if err := c.sessions.CommitListings(ctx, sessionID, generation, listings); err != nil {
		if errors.Is(err, apperrors.ErrSuperseded) {
			c.logger.Debug("Discarding superseded fetch", "session_id", sessionID, "source", source)
		}
		return nil, err
	}

	return c.view(ctx, sessionID, viewGen, source, listings)
}

// Search shows backend matches for query. Queries shorter than the minimum
// show the stored set again. Matches are displayed but never stored.
func (c *Controller) Search(ctx context.Context, sessionID, query string) (*Result, error) {
	if err := c.validator.ValidateQuery(query); err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(query) < c.minQueryLength {
		return c.Current(ctx, sessionID)
	}

	generation, err := c.sessions.BeginFetch(ctx, sessionID, session.StreamView)
	if err != nil {
		return nil, err
	}

	matches, err := c.fetcher.Search(ctx, query)
	if err != nil {
		c.logger.Error("Search failed", "session_id", sessionID, "error", err)
		return nil, apperrors.Alert(err, apperrors.AlertFetchFailed)
	}

	return c.view(ctx, sessionID, generation, SourceSearch, matches)
}

// Filter narrows the stored listing set. It never contacts the backend.
func (c *Controller) Filter(ctx context.Context, sessionID string, criteria filter.Criteria) (*Result, error) {
	if err := c.validator.ValidateTimeOfDay(criteria.OpeningTime); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateTimeOfDay(criteria.ClosingTime); err != nil {
		return nil, err
	}

	generation, err := c.sessions.BeginFetch(ctx, sessionID, session.StreamView)
	if err != nil {
		return nil, err
	}

	listings, err := c.sessions.Listings(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return c.view(ctx, sessionID, generation, SourceFilter, filter.Apply(listings, criteria))
}

// Current renders the stored listing set as is.
func (c *Controller) Current(ctx context.Context, sessionID string) (*Result, error) {
	generation, err := c.sessions.BeginFetch(ctx, sessionID, session.StreamView)
	if err != nil {
		return nil, err
	}

	listings, err := c.sessions.Listings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.view(ctx, sessionID, generation, SourceCurrent, listings)
}

// Directions routes from the user to destination. origin is the client's
// fresh fix, if it has one. The user position stored on the session is not
// touched.
func (c *Controller) Directions(ctx context.Context, sessionID string, destination location.Point, origin *location.Point) (*directions.Route, error) {
	if _, err := c.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return c.router.Show(ctx, destination, origin)
}

// view builds the result for listings, or returns ErrSuperseded when another
// view was requested after generation.
func (c *Controller) view(ctx context.Context, sessionID string, generation uint64, source Source, listings []listing.Listing) (*Result, error) {
	current, err := c.sessions.IsCurrent(ctx, sessionID, session.StreamView, generation)
	if err != nil {
		return nil, err
	}
	if !current {
		c.logger.Debug("Discarding superseded view", "session_id", sessionID, "source", source)
		return nil, apperrors.ErrSuperseded
	}

	sess, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Source: source,
		View:   render.Build(listings, sess.UserLocation),
	}, nil
}
