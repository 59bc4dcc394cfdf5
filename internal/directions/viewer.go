package directions

import (
	"context"

	"github.com/askwhyharsh/deskfinder/internal/location"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
	"github.com/askwhyharsh/deskfinder/pkg/validator"
)

// Viewer validates both ends of a trip and asks the directions service for a
// route. Every failure is an AppError whose message is the alert to show.
type Viewer struct {
	service   Service
	locator   location.Locator
	validator validator.Validator
	logger    logger.Logger
}

func NewViewer(service Service, locator location.Locator, val validator.Validator, log logger.Logger) *Viewer {
	if locator == nil {
		locator = location.Unavailable
	}
	return &Viewer{
		service:   service,
		locator:   locator,
		validator: val,
		logger:    log,
	}
}

// Show routes from the user to destination. origin is a fresh fix from the
// client; when nil the configured locator is asked instead.
func (v *Viewer) Show(ctx context.Context, destination location.Point, origin *location.Point) (*Route, error) {
	if err := v.validator.ValidateCoordinates(destination.Latitude, destination.Longitude); err != nil {
		return nil, apperrors.Alert(err, apperrors.AlertInvalidDestination)
	}

	locator := v.locator
	if origin != nil {
		locator = location.Fixed(*origin)
	}

	from, err := locator.Locate(ctx)
	if err != nil {
		v.logger.Warn("Could not re-acquire user location", "error", err)
		return nil, apperrors.Alert(apperrors.ErrLocationUnavailable, apperrors.AlertLocationFailed)
	}

	if err := v.validator.ValidateCoordinates(from.Latitude, from.Longitude); err != nil {
		return nil, apperrors.Alert(err, apperrors.AlertInvalidOrigin)
	}

	return v.service.Route(ctx, from, destination)
}
