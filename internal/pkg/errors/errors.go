package errors

import (
	"fmt"
)

type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

var (
	// ErrEmptyRoute is returned when the input route has no points.
	// Fatal: nothing to sample, no network call is made.
	ErrEmptyRoute = New(
		"EMPTY_ROUTE",
		"Route contains no points",
	)

	// ErrInvalidMaxPoints is returned for a non-positive sampling limit.
	ErrInvalidMaxPoints = New(
		"INVALID_MAX_POINTS",
		"Max points must be positive",
	)

	// ErrInvalidGPX is returned when a GPX document holds no track points.
	ErrInvalidGPX = New(
		"INVALID_GPX",
		"GPX file contains no track points",
	)

	// ErrInvalidCoordinates is returned for out-of-range latitude or longitude.
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
	)
)
