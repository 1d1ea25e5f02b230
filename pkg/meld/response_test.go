package meld

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessful(t *testing.T) {
	resp := &Response{StatusCode: 200, URL: "http://example.com/api/versioned/datasets/1"}

	got, err := Successful(resp)
	require.NoError(t, err)
	assert.Same(t, resp, got)
}

func TestSuccessful_NoContent(t *testing.T) {
	// 204 is a success; classification is purely by status class.
	_, err := Successful(&Response{StatusCode: 204})
	assert.NoError(t, err)
}

func TestSuccessful_HTTPError(t *testing.T) {
	resp := &Response{
		StatusCode: 500,
		URL:        "http://example.com/api/versioned/datasets/1",
		Body:       []byte(`{"message":"boom"}`),
	}

	_, err := Successful(resp)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, resp.URL, httpErr.URL)
	assert.Contains(t, string(httpErr.Body), "boom")
}

func TestResponseJSON_Invalid(t *testing.T) {
	resp := &Response{StatusCode: 200, URL: "http://example.com", Body: []byte("not json")}

	var data map[string]any
	err := resp.JSON(&data)
	assert.Error(t, err)
}
