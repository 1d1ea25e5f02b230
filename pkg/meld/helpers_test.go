package meld

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testInstance builds an Instance pointing at an httptest server.
func testInstance(t *testing.T, serverURL string) Instance {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return Instance{
		Protocol: u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
	}
}

func newTestSession(t *testing.T, instance Instance) *HTTPSession {
	t.Helper()

	sess, err := NewHTTPSession(Config{
		Instance:  instance,
		AuthToken: "test-token",
		Timeout:   10 * time.Second,
	})
	require.NoError(t, err)
	return sess
}

// failingSession fails the test on any request. Used to prove an operation
// performs no network I/O.
type failingSession struct {
	t *testing.T
}

func (s failingSession) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	s.t.Fatalf("unexpected GET %s", rawURL)
	return nil, nil
}

func (s failingSession) Post(ctx context.Context, rawURL string) (*Response, error) {
	s.t.Fatalf("unexpected POST %s", rawURL)
	return nil, nil
}

func (s failingSession) Delete(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	s.t.Fatalf("unexpected DELETE %s", rawURL)
	return nil, nil
}
