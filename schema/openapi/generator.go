// Package openapi renders a descriptor set as an OpenAPI 3 document whose
// request body is the snapshot accepted by Engine.ApplySnapshot.
package openapi

import (
	"fmt"
	"sort"
	"strconv"

	params "github.com/goliatone/go-params"
)

// Generate builds the document for set.
func Generate(set *params.DescriptorSet, opts ...Option) (map[string]any, error) {
	if set == nil {
		return nil, fmt.Errorf("openapi: descriptor set cannot be nil")
	}
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	component, err := componentSchema(set, s.namespace)
	if err != nil {
		return nil, err
	}
	return assemble(s, component)
}

func componentSchema(set *params.DescriptorSet, namespace string) (map[string]any, error) {
	properties := make(map[string]any, set.Len())
	var required []string
	for _, d := range set.Descriptors() {
		schema, err := descriptorSchema(d, namespace)
		if err != nil {
			return nil, err
		}
		properties[d.Name] = schema
		if d.Required() {
			required = append(required, d.Name)
		}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		sort.Strings(required)
		out["required"] = required
	}
	return out, nil
}

func descriptorSchema(d params.Descriptor, namespace string) (map[string]any, error) {
	element := elementSchema(d)
	var schema map[string]any
	switch d.Kind {
	case params.KindVector:
		schema = map[string]any{"type": "array", "items": element}
	case params.KindMap:
		schema = map[string]any{"type": "object", "additionalProperties": element}
		if d.KeyType == params.TypeInt {
			schema["x-key-type"] = "integer"
		}
	default:
		schema = element
	}
	if d.Description != "" {
		schema["description"] = d.Description
	}
	if d.Default != nil {
		def, err := jsonDefault(d.Default)
		if err != nil {
			return nil, fmt.Errorf("openapi: default of %s: %w", d.Name, err)
		}
		schema["default"] = def
	}
	if d.Constant {
		schema["readOnly"] = true
	}
	if d.Rule != "" {
		schema["x-rule"] = d.Rule
	}
	schema["x-param-type"] = d.TypeString()
	if !d.Constant {
		schema["x-param-key"] = params.KeyFor(namespace, d)
	}
	return schema, nil
}

// elementSchema carries the bounds, which apply per element for containers.
func elementSchema(d params.Descriptor) map[string]any {
	out := map[string]any{"type": openAPIType(d.Type)}
	if d.Type == params.TypeFloat {
		out["format"] = "double"
	}
	if d.Min != nil {
		out["minimum"] = boundValue(d.Type, *d.Min)
	}
	if d.Max != nil {
		out["maximum"] = boundValue(d.Type, *d.Max)
	}
	return out
}

func openAPIType(t params.ElementType) string {
	switch t {
	case params.TypeInt:
		return "integer"
	case params.TypeBool:
		return "boolean"
	case params.TypeFloat:
		return "number"
	default:
		return "string"
	}
}

func boundValue(t params.ElementType, v float64) any {
	if t == params.TypeInt {
		return int(v)
	}
	return v
}

// jsonDefault rewrites int-keyed maps, which JSON objects cannot carry.
func jsonDefault(value any) (any, error) {
	switch typed := value.(type) {
	case map[int]string:
		return stringKeys(typed), nil
	case map[int]int:
		return stringKeys(typed), nil
	case map[int]bool:
		return stringKeys(typed), nil
	case map[int]float64:
		return stringKeys(typed), nil
	default:
		return value, nil
	}
}

func stringKeys[V any](in map[int]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[strconv.Itoa(k)] = v
	}
	return out
}
