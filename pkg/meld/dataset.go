package meld

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// Dataset is an immutable view of a server-side dataset. Server-side changes
// produce new values; a Dataset is never mutated in place and never
// constructed ad hoc by callers (the server is authoritative).
type Dataset struct {
	URL URL

	Name string

	// KeyAttributeNames form the dataset's composite key; order matters.
	KeyAttributeNames []string

	Description string
}

// DatasetByResourceID fetches a dataset by its resource ID.
func DatasetByResourceID(ctx context.Context, sess Session, instance Instance, id string) (Dataset, error) {
	return datasetByURL(ctx, sess, URL{Instance: instance, Path: "datasets/" + id})
}

// DatasetByName fetches the single dataset with the given name. Exactly one
// match is required: zero matches fail with *NotFoundError, more than one
// with *AmbiguousError.
//
// The returned dataset's URL is built from the match's self-reported
// relativeId, not the collection URL the lookup was issued against.
func DatasetByName(ctx context.Context, sess Session, instance Instance, name string) (Dataset, error) {
	collection := URL{Instance: instance, Path: "datasets"}
	params := url.Values{}
	params.Set("filter", "name=="+name)

	resp, err := sess.Get(ctx, collection.String(), params)
	if err != nil {
		return Dataset{}, err
	}
	if _, err := Successful(resp); err != nil {
		return Dataset{}, err
	}

	var matches []map[string]any
	if err := resp.JSON(&matches); err != nil {
		return Dataset{}, err
	}
	if len(matches) == 0 {
		return Dataset{}, &NotFoundError{URL: resp.URL}
	}
	if len(matches) > 1 {
		return Dataset{}, &AmbiguousError{URL: resp.URL, Matches: len(matches)}
	}

	relativeID, ok := matches[0]["relativeId"].(string)
	if !ok {
		return Dataset{}, &MissingFieldError{Resource: "dataset", Field: "relativeId"}
	}
	return datasetFromJSON(URL{Instance: instance, Path: relativeID}, matches[0])
}

func datasetByURL(ctx context.Context, sess Session, u URL) (Dataset, error) {
	resp, err := sess.Get(ctx, u.String(), nil)
	if err != nil {
		return Dataset{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return Dataset{}, &NotFoundError{URL: u.String()}
	}
	if _, err := Successful(resp); err != nil {
		return Dataset{}, err
	}

	var data map[string]any
	if err := resp.JSON(&data); err != nil {
		return Dataset{}, err
	}
	return datasetFromJSON(u, data)
}

// datasetFromJSON deserializes a dataset. The returned value holds no
// references into data, so later mutation of the input cannot corrupt it.
// Missing required fields are reported together.
func datasetFromJSON(u URL, data map[string]any) (Dataset, error) {
	var merr *multierror.Error

	name, ok := data["name"].(string)
	if !ok {
		merr = multierror.Append(merr, &MissingFieldError{Resource: "dataset", Field: "name"})
	}
	rawKeys, ok := data["keyAttributeNames"].([]any)
	if !ok {
		merr = multierror.Append(merr, &MissingFieldError{Resource: "dataset", Field: "keyAttributeNames"})
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Dataset{}, err
	}

	keys := make([]string, 0, len(rawKeys))
	for _, raw := range rawKeys {
		key, ok := raw.(string)
		if !ok {
			return Dataset{}, &MissingFieldError{Resource: "dataset", Field: "keyAttributeNames"}
		}
		keys = append(keys, key)
	}

	ds := Dataset{URL: u, Name: name, KeyAttributeNames: keys}
	if desc, ok := data["description"].(string); ok {
		ds.Description = desc
	}
	return ds, nil
}

// Attributes fetches the dataset's attributes in server response order.
func Attributes(ctx context.Context, sess Session, dataset Dataset) ([]Attribute, error) {
	attrsURL := dataset.URL.Join("attributes")

	resp, err := sess.Get(ctx, attrsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	if _, err := Successful(resp); err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := resp.JSON(&items); err != nil {
		return nil, err
	}

	attrs := make([]Attribute, 0, len(items))
	for _, item := range items {
		name, ok := item["name"].(string)
		if !ok {
			return nil, &MissingFieldError{Resource: "attribute", Field: "name"}
		}
		attr, err := attributeFromJSON(attrsURL.Join(name), item)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// Materialize commits the dataset's upstream changes into persistent storage
// and waits for the resulting operation to resolve with default polling
// parameters. The terminal operation is returned; a failed job is not an
// error, so callers must check Succeeded. Transport errors abort.
func Materialize(ctx context.Context, sess Session, dataset Dataset) (Operation, error) {
	op, err := materializeAsync(ctx, sess, dataset)
	if err != nil {
		return Operation{}, err
	}
	return Wait(ctx, sess, op)
}

func materializeAsync(ctx context.Context, sess Session, dataset Dataset) (Operation, error) {
	resp, err := sess.Post(ctx, dataset.URL.String()+":refresh")
	if err != nil {
		return Operation{}, err
	}
	if _, err := Successful(resp); err != nil {
		return Operation{}, err
	}
	return operationFromResponse(dataset.URL.Instance, resp)
}

// DeleteDataset deletes an existing dataset. With cascade, all downstream
// datasets derived from it are deleted as well.
func DeleteDataset(ctx context.Context, sess Session, dataset Dataset, cascade bool) error {
	params := url.Values{}
	params.Set("cascade", strconv.FormatBool(cascade))

	resp, err := sess.Delete(ctx, dataset.URL.String(), params)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{URL: dataset.URL.String()}
	}
	_, err = Successful(resp)
	return err
}
