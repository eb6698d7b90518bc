package params

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// DescriptorSet is an ordered, validated and immutable collection of
// descriptors with unique names.
type DescriptorSet struct {
	items []Descriptor
	index map[string]int
}

// NewDescriptorSet validates descriptors and freezes them in declaration
// order. Defaults are stored in their canonical coerced form.
func NewDescriptorSet(descriptors ...Descriptor) (*DescriptorSet, error) {
	set := &DescriptorSet{
		items: make([]Descriptor, 0, len(descriptors)),
		index: make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		normalized, err := normalizeDescriptor(d)
		if err != nil {
			return nil, err
		}
		if _, exists := set.index[normalized.Name]; exists {
			return nil, &DescriptorError{Name: normalized.Name, Err: ErrDuplicateParameter}
		}
		set.index[normalized.Name] = len(set.items)
		set.items = append(set.items, normalized)
	}
	return set, nil
}

// MustDescriptorSet is NewDescriptorSet for statically declared sets.
func MustDescriptorSet(descriptors ...Descriptor) *DescriptorSet {
	set, err := NewDescriptorSet(descriptors...)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of descriptors.
func (s *DescriptorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Descriptors returns a copy of the descriptors in declaration order.
func (s *DescriptorSet) Descriptors() []Descriptor {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := make([]Descriptor, len(s.items))
	for i, d := range s.items {
		out[i] = cloneDescriptor(d)
	}
	return out
}

// Names returns descriptor names in declaration order.
func (s *DescriptorSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.items))
	for i, d := range s.items {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the descriptor registered under name.
func (s *DescriptorSet) Lookup(name string) (Descriptor, bool) {
	if s == nil {
		return Descriptor{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(s.items[i]), true
}

func normalizeDescriptor(d Descriptor) (Descriptor, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return d, &DescriptorError{Err: ErrDescriptorName}
	}
	if !d.Type.valid() {
		return d, &DescriptorError{Name: d.Name, Reason: d.Type.String(), Err: ErrInvalidType}
	}
	switch d.Kind {
	case KindScalar, KindVector:
	case KindMap:
		if d.KeyType != TypeString && d.KeyType != TypeInt {
			return d, &DescriptorError{Name: d.Name, Reason: "map keys must be string or int", Err: ErrInvalidType}
		}
	default:
		return d, &DescriptorError{Name: d.Name, Reason: d.Kind.String(), Err: ErrInvalidType}
	}
	if d.Constant && d.Default == nil {
		return d, &DescriptorError{Name: d.Name, Err: ErrConstantWithoutDefault}
	}
	if err := validateBounds(d); err != nil {
		return d, err
	}
	if d.Default != nil {
		resolved, err := Coerce(d.Default, d)
		if err != nil {
			var mismatch *TypeMismatchError
			reason := err.Error()
			if errors.As(err, &mismatch) {
				reason = fmt.Sprintf("expected %s, got %T", mismatch.Expected, d.Default)
			}
			return d, &DescriptorError{Name: d.Name, Reason: reason, Err: ErrInvalidDefault}
		}
		d.Default = resolved.Value
	}
	return cloneDescriptor(d), nil
}

func validateBounds(d Descriptor) error {
	if d.Min == nil && d.Max == nil {
		return nil
	}
	if !d.Type.Numeric() {
		return &DescriptorError{Name: d.Name, Reason: "bounds require a numeric type", Err: ErrInvalidBounds}
	}
	for _, bound := range []*float64{d.Min, d.Max} {
		if bound == nil {
			continue
		}
		if math.IsNaN(*bound) {
			return &DescriptorError{Name: d.Name, Reason: "bound is NaN", Err: ErrInvalidBounds}
		}
		if d.Type == TypeInt && *bound != math.Trunc(*bound) {
			return &DescriptorError{Name: d.Name, Reason: fmt.Sprintf("int bound %v is not integral", *bound), Err: ErrInvalidBounds}
		}
	}
	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		return &DescriptorError{Name: d.Name, Reason: fmt.Sprintf("min %v exceeds max %v", *d.Min, *d.Max), Err: ErrInvalidBounds}
	}
	return nil
}

func cloneDescriptor(d Descriptor) Descriptor {
	out := d
	if d.Min != nil {
		out.Min = Float(*d.Min)
	}
	if d.Max != nil {
		out.Max = Float(*d.Max)
	}
	out.Default = cloneValue(d.Default)
	return out
}

// cloneValue copies the container shapes produced by Coerce so callers cannot
// mutate a shared default.
func cloneValue(value any) any {
	switch typed := value.(type) {
	case []string:
		return slices.Clone(typed)
	case []int:
		return slices.Clone(typed)
	case []bool:
		return slices.Clone(typed)
	case []float64:
		return slices.Clone(typed)
	case map[string]string:
		return cloneMap(typed)
	case map[string]int:
		return cloneMap(typed)
	case map[string]bool:
		return cloneMap(typed)
	case map[string]float64:
		return cloneMap(typed)
	case map[int]string:
		return cloneMap(typed)
	case map[int]int:
		return cloneMap(typed)
	case map[int]bool:
		return cloneMap(typed)
	case map[int]float64:
		return cloneMap(typed)
	default:
		return value
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	if src == nil {
		return nil
	}
	out := make(map[K]V, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
