package joplin

import (
	"errors"
	"fmt"
)

// APIError reports a non-2xx response or an unreadable body from the
// Joplin API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("joplin API %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf(
		"joplin API error (%d) on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Message,
	)
}

// IsAPIError reports whether err (or any error in its chain) is an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// errorResponse is Joplin's error body: {"error": "..."}.
type errorResponse struct {
	Error string `json:"error"`
}
