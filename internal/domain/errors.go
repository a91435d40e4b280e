package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRenderUnavailable is returned when the render circuit is open
	// after repeated engine failures.
	ErrRenderUnavailable = errors.New("document rendering temporarily unavailable")

	// ErrRenderTimeout is returned when an engine did not produce a
	// document within the configured deadline.
	ErrRenderTimeout = errors.New("document rendering timed out")

	// ErrUnknownFormat is returned for output formats no engine handles.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrDriverNotFound is returned when a driver has no record for the
	// requested period.
	ErrDriverNotFound = errors.New("driver not found for period")
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed check for a request so the
// caller sees the full list at once instead of one failure per round
// trip.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return "invalid report request: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err carries request validation failures.
func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
