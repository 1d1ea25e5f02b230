// Package meld is a typed client for the Meld data-unification HTTP API.
//
// Remote resources (datasets, attributes, operations) are modeled as
// immutable values deserialized from server responses. Callers supply a
// Session (transport + auth) explicitly to every call; the package holds no
// shared state. Asynchronous server-side jobs are surfaced as Operations and
// driven to completion with Wait.
package meld

import (
	"context"
	"fmt"
)

// Instance identifies a deployed Meld installation.
type Instance struct {
	Protocol string
	Host     string
	Port     int // 0 when the deployment uses the protocol default port
}

// Origin returns the HTTP origin, i.e. <protocol>://<host>[:<port>].
func (i Instance) Origin() string {
	if i.Port == 0 {
		return fmt.Sprintf("%s://%s", i.Protocol, i.Host)
	}
	return fmt.Sprintf("%s://%s:%d", i.Protocol, i.Host, i.Port)
}

// Version returns the Meld server version for an instance.
func Version(ctx context.Context, sess Session, instance Instance) (string, error) {
	resp, err := sess.Get(ctx, instance.Origin()+"/"+apiBasePath+"/service/version", nil)
	if err != nil {
		return "", err
	}
	if _, err := Successful(resp); err != nil {
		return "", err
	}

	var data map[string]any
	if err := resp.JSON(&data); err != nil {
		return "", err
	}
	version, ok := data["version"].(string)
	if !ok {
		return "", &MissingFieldError{Resource: "version", Field: "version"}
	}
	return version, nil
}
