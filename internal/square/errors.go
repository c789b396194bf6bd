package square

import (
	"errors"
	"fmt"
	"strings"
)

// Codes Square returns inside the errors envelope. VERSION_MISMATCH is
// the optimistic-concurrency rejection every order write can hit.
const (
	CodeVersionMismatch = "VERSION_MISMATCH"
)

// APIError is one entry of the upstream `{"errors": [...]}` envelope.
// The relay synthesizes the same shape when Square returns a body it
// cannot parse, so callers see a single error surface either way.
type APIError struct {
	Category string `json:"category,omitempty"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("square api error: %s", e.Code)
	}
	return "square api error"
}

// ErrorEnvelope is the body shape carrying one or more APIErrors.
type ErrorEnvelope struct {
	Errors []APIError `json:"errors,omitempty"`
}

// First returns the leading error of the envelope, or nil.
func (env ErrorEnvelope) First() *APIError {
	if len(env.Errors) == 0 {
		return nil
	}
	e := env.Errors[0]
	return &e
}

// IsVersionConflict reports whether err carries Square's stale-version
// rejection code.
func IsVersionConflict(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeVersionMismatch ||
			strings.Contains(apiErr.Detail, CodeVersionMismatch)
	}
	return false
}
