// Package schema loads descriptor sets from YAML or JSON documents of the form
//
//	parameters:
//	  - name: rate
//	    type: double
//	    default: 10.0
//	    min: 0
//	    max: 100
//
// Type accepts element names and the vector<T> and map<K,V> spellings.
package schema

import (
	"fmt"
	"os"
	"strings"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/internal/hydrate"
	"gopkg.in/yaml.v3"
)

// Entry is one declared parameter as written in a descriptor file.
type Entry struct {
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Default     any      `mapstructure:"default"`
	Min         *float64 `mapstructure:"min"`
	Max         *float64 `mapstructure:"max"`
	Constant    bool     `mapstructure:"constant"`
	GlobalScope bool     `mapstructure:"global_scope"`
	Description string   `mapstructure:"description"`
	Rule        string   `mapstructure:"rule"`
}

// Descriptor converts e, parsing its type.
func (e Entry) Descriptor() (params.Descriptor, error) {
	spec, err := params.ParseType(e.Type)
	if err != nil {
		return params.Descriptor{}, fmt.Errorf("schema: parameter %s: %w", e.Name, err)
	}
	return params.Descriptor{
		Name:        e.Name,
		Kind:        spec.Kind,
		Type:        spec.Type,
		KeyType:     spec.KeyType,
		Default:     e.Default,
		Min:         e.Min,
		Max:         e.Max,
		Constant:    e.Constant,
		GlobalScope: e.GlobalScope,
		Description: e.Description,
		Rule:        e.Rule,
	}, nil
}

type document struct {
	Parameters []map[string]any `yaml:"parameters"`
}

var entryDecoder = hydrate.NewDecoder[Entry](
	hydrate.WithPreHook[Entry](normalizeKeys),
	hydrate.WithDisallowUnknownFields[Entry](),
	hydrate.WithPostHook[Entry](requireNameAndType),
)

// Parse reads a descriptor document. JSON is accepted as a YAML subset.
func Parse(data []byte) (*params.DescriptorSet, error) {
	return parse("", data)
}

// LoadFile reads and parses the descriptor document at path.
func LoadFile(path string) (*params.DescriptorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(source string, data []byte) (*params.DescriptorSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", sourceName(source), err)
	}
	entries, err := entryDecoder.DecodeAll(source, doc.Parameters)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	descriptors := make([]params.Descriptor, 0, len(entries))
	for _, entry := range entries {
		d, err := entry.Descriptor()
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return params.NewDescriptorSet(descriptors...)
}

// normalizeKeys lowercases keys and accepts hyphenated spellings.
func normalizeKeys(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")] = value
	}
	return out, nil
}

func requireNameAndType(ctx hydrate.Context, e *Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%s has no name", ctx)
	}
	if strings.TrimSpace(e.Type) == "" {
		return fmt.Errorf("parameter %s has no type", e.Name)
	}
	return nil
}

func sourceName(source string) string {
	if source == "" {
		return "document"
	}
	return source
}
