package meld

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/mapstructure"
)

// Operation states reported by the server in status.state.
const (
	StatePending   = "PENDING"
	StateRunning   = "RUNNING"
	StateSucceeded = "SUCCEEDED"
	StateFailed    = "FAILED"
	StateCanceled  = "CANCELED"
)

const defaultPollInterval = 3 * time.Second

// OperationStatus is a point-in-time snapshot of a server-side job's state.
// Fields beyond the well-known ones are preserved in Extra.
type OperationStatus struct {
	State     string         `mapstructure:"state"`
	StartTime string         `mapstructure:"startTime"`
	EndTime   string         `mapstructure:"endTime"`
	Message   string         `mapstructure:"message"`
	Extra     map[string]any `mapstructure:",remain"`
}

// Operation is a handle to a server-side asynchronous job. It is an
// immutable snapshot: polling produces a new Operation rather than mutating
// an existing one.
//
// Status is nil only for operation representations that are inherently
// synchronous; such operations are terminal by convention.
type Operation struct {
	URL         URL
	Type        string
	Status      *OperationStatus
	Description string
}

// Succeeded reports whether the operation reached the SUCCEEDED state.
func (o Operation) Succeeded() bool {
	return o.Status != nil && o.Status.State == StateSucceeded
}

// OperationByResourceID fetches an operation by its resource ID.
func OperationByResourceID(ctx context.Context, sess Session, instance Instance, id string) (Operation, error) {
	return operationByURL(ctx, sess, URL{Instance: instance, Path: "operations/" + id})
}

// Poll fetches a fresh snapshot of the operation from the server. It issues
// exactly one request and does not interpret the resulting state.
func Poll(ctx context.Context, sess Session, op Operation) (Operation, error) {
	return operationByURL(ctx, sess, op.URL)
}

type waitConfig struct {
	cadence    backoff.BackOff
	timeout    time.Duration
	hasTimeout bool
}

// WaitOption customizes Wait's polling behavior.
type WaitOption func(*waitConfig)

// WithPollInterval sets a fixed interval between polls. Default: 3 seconds.
func WithPollInterval(d time.Duration) WaitOption {
	return func(c *waitConfig) { c.cadence = backoff.NewConstantBackOff(d) }
}

// WithBackOff sets an arbitrary cadence source for the sleeps between polls,
// e.g. an exponential backoff. If the source stops producing intervals, Wait
// fails with a TimeoutError.
func WithBackOff(b backoff.BackOff) WaitOption {
	return func(c *waitConfig) { c.cadence = b }
}

// WithTimeout bounds the total time Wait may spend. Without this option Wait
// polls until the operation resolves or the context is canceled.
func WithTimeout(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// Wait polls the operation until it reaches a terminal state (SUCCEEDED,
// FAILED, or CANCELED) and returns the terminal snapshot. Operations without
// a status are returned immediately.
//
// The deadline is re-checked before each poll, so the maximum overshoot past
// a configured timeout is one poll interval. States this client does not
// recognize are treated as in-flight: Wait sleeps before re-polling rather
// than hammering the server. A transport error during any poll aborts the
// wait; individual polls are never retried.
func Wait(ctx context.Context, sess Session, op Operation, opts ...WaitOption) (Operation, error) {
	cfg := waitConfig{cadence: backoff.NewConstantBackOff(defaultPollInterval)}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.cadence.Reset()

	started := time.Now()
	for !cfg.hasTimeout || time.Since(started) < cfg.timeout {
		if op.Status == nil {
			return op, nil
		}
		switch op.Status.State {
		case StateSucceeded, StateFailed, StateCanceled:
			return op, nil
		default:
			// PENDING, RUNNING, or a state introduced after this client
			// was written.
			interval := cfg.cadence.NextBackOff()
			if interval == backoff.Stop {
				return Operation{}, &TimeoutError{Timeout: cfg.timeout}
			}
			if err := sleep(ctx, interval); err != nil {
				return Operation{}, err
			}
		}

		var err error
		op, err = Poll(ctx, sess, op)
		if err != nil {
			return Operation{}, err
		}
	}
	return Operation{}, &TimeoutError{Timeout: cfg.timeout}
}

// sleep blocks for d or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func operationByURL(ctx context.Context, sess Session, u URL) (Operation, error) {
	resp, err := sess.Get(ctx, u.String(), nil)
	if err != nil {
		return Operation{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return Operation{}, &NotFoundError{URL: u.String()}
	}
	if _, err := Successful(resp); err != nil {
		return Operation{}, err
	}

	var data map[string]any
	if err := resp.JSON(&data); err != nil {
		return Operation{}, err
	}
	return operationFromJSON(u, data)
}

// operationFromResponse builds an Operation from the response to a request
// that starts a server-side job.
//
// When all results a job would produce are already up-to-date, the server
// answers HTTP 204 instead of starting anything. So that callers can treat
// both outcomes uniformly through Wait and Succeeded, a 204 is synthesized
// into an already-succeeded NOOP operation.
func operationFromResponse(instance Instance, resp *Response) (Operation, error) {
	var data map[string]any
	if resp.StatusCode == http.StatusNoContent {
		const never = "0000-00-00T00:00:00.000Z"
		data = map[string]any{
			"id":          "-1",
			"type":        "NOOP",
			"description": "the server returned HTTP 204: all results this operation would produce are already up-to-date",
			"status": map[string]any{
				"state":     StateSucceeded,
				"startTime": never,
				"endTime":   never,
				"message":   "",
			},
		}
	} else {
		if err := resp.JSON(&data); err != nil {
			return Operation{}, err
		}
	}

	id, ok := data["id"].(string)
	if !ok {
		return Operation{}, &MissingFieldError{Resource: "operation", Field: "id"}
	}
	return operationFromJSON(URL{Instance: instance, Path: "operations/" + id}, data)
}

// operationFromJSON deserializes an operation. The returned value holds no
// references into data.
func operationFromJSON(u URL, data map[string]any) (Operation, error) {
	opType, ok := data["type"].(string)
	if !ok {
		return Operation{}, &MissingFieldError{Resource: "operation", Field: "type"}
	}

	op := Operation{URL: u, Type: opType}
	if desc, ok := data["description"].(string); ok {
		op.Description = desc
	}

	if rawStatus, present := data["status"]; present && rawStatus != nil {
		statusMap, ok := rawStatus.(map[string]any)
		if !ok {
			return Operation{}, &MissingFieldError{Resource: "operation", Field: "status.state"}
		}
		var status OperationStatus
		if err := mapstructure.Decode(statusMap, &status); err != nil {
			return Operation{}, fmt.Errorf("meld: decode operation status: %w", err)
		}
		if status.State == "" {
			return Operation{}, &MissingFieldError{Resource: "operation", Field: "status.state"}
		}
		op.Status = &status
	}
	return op, nil
}
