package meld

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Session issues authenticated requests against a Meld instance. It is the
// transport boundary of this package: implementations own connection
// pooling, TLS, and auth headers. Sessions never interpret status codes;
// classification is left to Successful and the resource operations.
type Session interface {
	Get(ctx context.Context, rawURL string, params url.Values) (*Response, error)
	Post(ctx context.Context, rawURL string) (*Response, error)
	Delete(ctx context.Context, rawURL string, params url.Values) (*Response, error)
}

// Config configures an HTTPSession.
type Config struct {
	// Instance is the Meld deployment to talk to.
	Instance Instance

	// AuthToken is sent as a Bearer token on every request. Obtaining the
	// token is the caller's concern.
	AuthToken string

	// Timeout for individual requests.
	// Default: 30 seconds
	Timeout time.Duration

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development with self-signed certs.
	TLSVerify *bool

	// Logger (optional).
	Logger hclog.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Instance,
		validation.Field(&c.Instance.Protocol, validation.Required, validation.In("http", "https")),
		validation.Field(&c.Instance.Host, validation.Required),
		validation.Field(&c.Instance.Port, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout)
	}
	return nil
}

// HTTPSession is the default Session implementation backed by net/http.
type HTTPSession struct {
	client *http.Client
	token  string
	logger hclog.Logger
}

var _ Session = (*HTTPSession)(nil)

// NewHTTPSession creates a session for the configured instance.
func NewHTTPSession(cfg Config) (*HTTPSession, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.TLSVerify != nil && !*cfg.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &HTTPSession{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		token:  cfg.AuthToken,
		logger: cfg.Logger.Named("meld-session"),
	}, nil
}

// Get issues a GET request.
func (s *HTTPSession) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return s.do(ctx, http.MethodGet, rawURL, params)
}

// Post issues a POST request with no body.
func (s *HTTPSession) Post(ctx context.Context, rawURL string) (*Response, error) {
	return s.do(ctx, http.MethodPost, rawURL, nil)
}

// Delete issues a DELETE request.
func (s *HTTPSession) Delete(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return s.do(ctx, http.MethodDelete, rawURL, params)
}

func (s *HTTPSession) do(ctx context.Context, method, rawURL string, params url.Values) (*Response, error) {
	endpoint := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse request URL: %w", err)
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	s.logger.Debug("sending request",
		"method", method,
		"url", endpoint,
		"request_id", requestID,
	)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("request returned non-2xx status",
			"method", method,
			"url", endpoint,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        endpoint,
		Body:       body,
	}, nil
}
