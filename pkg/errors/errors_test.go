package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"session", ErrSessionNotFound, http.StatusUnauthorized},
		{"wrapped coordinates", fmt.Errorf("origin: %w", ErrInvalidLatitude), http.StatusBadRequest},
		{"superseded", ErrSuperseded, http.StatusConflict},
		{"upstream", fmt.Errorf("fetch: %w", ErrUpstreamStatus), http.StatusBadGateway},
		{"directions", ErrDirectionsFailed, http.StatusBadGateway},
		{"location", ErrLocationUnavailable, http.StatusUnprocessableEntity},
		{"explicit status", NewAppError(ErrUpstreamStatus, "gone", http.StatusGone), http.StatusGone},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAlertKeepsUserMessage(t *testing.T) {
	err := Alert(ErrInvalidCoordinates, AlertInvalidDestination)

	assert.Equal(t, AlertInvalidDestination, err.Error())
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_COORDINATES", Code(err))
}

func TestAppErrorFallsBackToWrappedMessage(t *testing.T) {
	err := NewAppError(ErrUpstreamStatus, "", http.StatusBadGateway)
	assert.Equal(t, "upstream returned an error status", err.Error())
}
