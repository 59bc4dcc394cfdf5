package errors

import (
	"errors"
	"net/http"
)

var (
	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
	ErrSuperseded       = errors.New("response superseded by a newer request")

	// Validation errors
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidLatitude    = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude   = errors.New("longitude must be between -180 and 180")
	ErrInvalidTimeOfDay   = errors.New("time must be in HH:MM or HH:MM:SS format")
	ErrInvalidQuery       = errors.New("search query is too long")

	// Location errors
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationUnsupported = errors.New("geolocation is not supported")
	ErrLocationUnavailable = errors.New("location unavailable")

	// Upstream errors
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamStatus      = errors.New("upstream returned an error status")
	ErrUpstreamPayload     = errors.New("upstream returned an invalid payload")
	ErrDirectionsFailed    = errors.New("directions request failed")

	// Rate limit errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// WebSocket errors
	ErrInvalidMessageType = errors.New("invalid message type")
)

// User-facing alert texts.
const (
	AlertGeolocationUnsupported = "Geolocation is not supported by this browser."
	AlertInvalidDestination     = "Invalid coordinates for the destination"
	AlertInvalidOrigin          = "Invalid coordinates for the user location"
	AlertLocationFailed         = "Error obtaining your location. Please try again."
	AlertFetchFailed            = "Could not load coworking spaces. Please try again."
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Alert builds an AppError whose message is meant to be shown to the user as-is.
func Alert(err error, message string) *AppError {
	return NewAppError(err, message, StatusFor(err))
}

// StatusFor maps a sentinel error to an HTTP status code.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidSessionID),
		errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrInvalidLatitude),
		errors.Is(err, ErrInvalidLongitude),
		errors.Is(err, ErrInvalidTimeOfDay),
		errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrLocationDenied),
		errors.Is(err, ErrLocationUnsupported),
		errors.Is(err, ErrLocationUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, ErrUpstreamStatus),
		errors.Is(err, ErrUpstreamPayload),
		errors.Is(err, ErrDirectionsFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable code for an error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "INVALID_SESSION"
	case errors.Is(err, ErrSuperseded):
		return "SUPERSEDED"
	case errors.Is(err, ErrRateLimitExceeded):
		return "RATE_LIMIT"
	case errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrInvalidLatitude),
		errors.Is(err, ErrInvalidLongitude):
		return "INVALID_COORDINATES"
	case errors.Is(err, ErrInvalidTimeOfDay), errors.Is(err, ErrInvalidQuery):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrLocationDenied),
		errors.Is(err, ErrLocationUnsupported),
		errors.Is(err, ErrLocationUnavailable):
		return "LOCATION_UNAVAILABLE"
	case errors.Is(err, ErrDirectionsFailed):
		return "DIRECTIONS_FAILED"
	case errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, ErrUpstreamStatus),
		errors.Is(err, ErrUpstreamPayload):
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
