package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is a failed API call: a non-2xx response, a transport
// failure (Status 0) or an undecodable body.
type RequestError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: request failed: %s", e.Method, e.Path, msg)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d: %s (request %s)", e.Method, e.Path, e.Status, msg, e.RequestID)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status of a RequestError in err's chain, or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsConflict reports whether the server answered 409 Conflict.
func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }
