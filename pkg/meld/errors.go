package meld

import (
	"fmt"
	"time"
)

// NotFoundError indicates the requested resource does not exist server-side:
// an HTTP 404 on a direct fetch, or a name lookup with zero matches.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("meld: resource not found: %s", e.URL)
}

// AmbiguousError indicates a name lookup matched more than one resource.
type AmbiguousError struct {
	URL     string
	Matches int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("meld: name lookup matched %d resources: %s", e.Matches, e.URL)
}

// HTTPError is any non-2xx response that is not handled as NotFound.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("meld: unexpected status %d from %s: %s", e.StatusCode, e.URL, string(e.Body))
}

// TimeoutError indicates Wait exhausted its configured deadline before the
// operation reached a terminal state.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("meld: waiting for operation took longer than %s", e.Timeout)
}

// MissingFieldError indicates a server payload lacked a required field.
type MissingFieldError struct {
	Resource string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("meld: %s response missing required field %q", e.Resource, e.Field)
}
