// Package layering combines parameter snapshots from several sources so a
// stronger layer (a command line file, an operator override) wins over a
// weaker one (a checked-in baseline).
package layering

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Layer is one named snapshot.
type Layer struct {
	Source string
	Values map[string]any
}

// Provenance maps each merged parameter to the source that supplied it.
type Provenance map[string]string

// Merge composes layers ordered from strongest to weakest. Parameter values
// are atomic: a stronger layer replaces a weaker value whole, containers
// included. The result shares no containers with the inputs.
func Merge(layers ...Layer) (map[string]any, Provenance) {
	merged := map[string]any{}
	provenance := Provenance{}
	for i := len(layers) - 1; i >= 0; i-- {
		for name, value := range layers[i].Values {
			merged[name] = cloneTree(value)
			provenance[name] = layers[i].Source
		}
	}
	return merged, provenance
}

// Names returns the merged parameter names in sorted order.
func (p Provenance) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// ReadFile decodes a YAML or JSON snapshot file into a layer named after
// the file.
func ReadFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("layering: read %s: %w", path, err)
	}
	values, err := Decode(data)
	if err != nil {
		return Layer{}, fmt.Errorf("layering: %s: %w", path, err)
	}
	return Layer{Source: filepath.Base(path), Values: values}, nil
}

// ReadFiles reads paths in order, strongest first.
func ReadFiles(paths ...string) ([]Layer, error) {
	layers := make([]Layer, 0, len(paths))
	for _, path := range paths {
		layer, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// Decode parses a snapshot document. An empty document is an empty snapshot.
func Decode(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func cloneTree(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = cloneTree(v)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(typed))
		for k, v := range typed {
			out[k] = cloneTree(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneTree(v)
		}
		return out
	default:
		return value
	}
}
