package schema

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// fieldConfig mirrors the recognised keys of a field config object.
// Unknown keys are ignored so newer documents still load.
type fieldConfig struct {
	Type     *string  `mapstructure:"type"`
	Required *bool    `mapstructure:"required"`
	Min      *float64 `mapstructure:"min"`
	Max      *float64 `mapstructure:"max"`
	Default  any      `mapstructure:"default"`
}

// Parse decodes a schema document into a Definition.
// The document may be JSON or YAML; field order is taken from the document.
// A YAML stream holding more than one document is rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Reason: "empty document"}
		}
		return nil, &ParseError{Reason: err.Error()}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, &ParseError{Reason: err.Error()}
		}
		return nil, &ParseError{Reason: "expected a single document, found several"}
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Reason: "empty document"}
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Reason: "top level must be a mapping of field name to field config"}
	}

	specs := make([]FieldSpec, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := resolveAlias(root.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			return nil, &ParseError{Reason: "field names must be strings"}
		}
		name := keyNode.Value
		if valNode.Kind != yaml.MappingNode {
			return nil, &ParseError{Field: name, Reason: "field config must be a mapping"}
		}

		var raw map[string]any
		if err := valNode.Decode(&raw); err != nil {
			return nil, &ParseError{Field: name, Reason: err.Error()}
		}

		spec, err := decodeFieldConfig(name, raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return NewDefinition(specs...)
}

func decodeFieldConfig(name string, raw map[string]any) (FieldSpec, error) {
	var cfg fieldConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return FieldSpec{}, &ParseError{Field: name, Reason: flattenDecodeError(err)}
	}

	spec := FieldSpec{
		Name: name,
		Min:  cfg.Min,
		Max:  cfg.Max,
	}
	if cfg.Type != nil {
		spec.Type = *cfg.Type
	}
	if cfg.Required != nil {
		spec.Required = *cfg.Required
	}
	// A null default is the same as no default.
	if cfg.Default != nil {
		spec.Default = cfg.Default
		spec.HasDefault = true
	}
	return spec, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func flattenDecodeError(err error) string {
	if merr, ok := err.(*mapstructure.Error); ok {
		return strings.Join(merr.Errors, "; ")
	}
	return err.Error()
}
