package validator

import (
	"math"
	"strings"

	playground "github.com/go-playground/validator/v10"

	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
)

const maxQueryLength = 100

type Validator interface {
	ValidateCoordinates(lat, lon float64) error
	ValidateTimeOfDay(value string) error
	ValidateQuery(query string) error
}

type validator struct {
	v *playground.Validate
}

func NewValidator() Validator {
	return &validator{
		v: playground.New(),
	}
}

func (v *validator) ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return apperrors.ErrInvalidCoordinates
	}

	if err := v.v.Var(lat, "gte=-90,lte=90"); err != nil {
		return apperrors.ErrInvalidLatitude
	}

	if err := v.v.Var(lon, "gte=-180,lte=180"); err != nil {
		return apperrors.ErrInvalidLongitude
	}

	return nil
}

// ValidateTimeOfDay accepts a blank value (no filter) or HH:MM / HH:MM:SS,
// ignoring surrounding whitespace.
func (v *validator) ValidateTimeOfDay(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if err := v.v.Var(value, "datetime=15:04|datetime=15:04:05"); err != nil {
		return apperrors.ErrInvalidTimeOfDay
	}

	return nil
}

func (v *validator) ValidateQuery(query string) error {
	if len(strings.TrimSpace(query)) > maxQueryLength {
		return apperrors.ErrInvalidQuery
	}
	return nil
}
