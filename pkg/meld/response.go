package meld

import (
	"encoding/json"
	"fmt"
)

// Response is the transport-level result of a single request: the final
// request URL, the status code, and the raw body.
type Response struct {
	StatusCode int
	URL        string
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("meld: decode response from %s: %w", r.URL, err)
	}
	return nil
}

// Successful returns r unchanged when the status code is 2xx, and an
// *HTTPError otherwise.
func Successful(r *Response) (*Response, error) {
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: r.StatusCode, URL: r.URL, Body: r.Body}
	}
	return r, nil
}
