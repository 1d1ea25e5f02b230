package meld

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Attribute is a child entity of a Dataset. Attributes are fetched from the
// server, never created locally. Wire fields this client does not model are
// preserved in Extra.
type Attribute struct {
	URL         URL
	Name        string
	Description string
	Extra       map[string]any
}

type attributeWire struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Extra       map[string]any `mapstructure:",remain"`
}

// attributeFromJSON deserializes an attribute. The returned value holds no
// references into data.
func attributeFromJSON(u URL, data map[string]any) (Attribute, error) {
	var wire attributeWire
	if err := mapstructure.Decode(data, &wire); err != nil {
		return Attribute{}, fmt.Errorf("meld: decode attribute: %w", err)
	}
	if wire.Name == "" {
		return Attribute{}, &MissingFieldError{Resource: "attribute", Field: "name"}
	}
	return Attribute{
		URL:         u,
		Name:        wire.Name,
		Description: wire.Description,
		Extra:       wire.Extra,
	}, nil
}
