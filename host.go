package params

import (
	"fmt"
	"sort"
	"sync"
)

// Host is the object whose named fields mirror descriptor names. The engine
// reads and writes fields by name and never restructures the host.
type Host interface {
	Has(name string) bool
	Get(name string) (any, bool)
	Set(name string, value any) error
}

// Field is a typed accessor pair for one host field.
type Field interface {
	Name() string
	Get() any
	Set(value any) error
}

type boundField[T any] struct {
	name   string
	target *T
}

// Bind pairs name with a typed field. Set rejects values whose dynamic type
// is not T.
func Bind[T any](name string, target *T) Field {
	return &boundField[T]{name: name, target: target}
}

func (f *boundField[T]) Name() string { return f.name }

func (f *boundField[T]) Get() any {
	return *f.target
}

func (f *boundField[T]) Set(value any) error {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return &FieldTypeError{Name: f.name, Expected: fmt.Sprintf("%T", zero), Value: value}
	}
	*f.target = typed
	return nil
}

// Record is a Host backed by a statically known list of bound fields.
type Record struct {
	fields map[string]Field
	order  []string
}

var _ Host = (*Record)(nil)

// NewRecord builds a Record from explicit field bindings.
func NewRecord(fields ...Field) (*Record, error) {
	r := &Record{fields: make(map[string]Field, len(fields))}
	for _, field := range fields {
		if field == nil {
			continue
		}
		name := field.Name()
		if name == "" {
			return nil, fmt.Errorf("params: record field name must be provided")
		}
		if _, exists := r.fields[name]; exists {
			return nil, fmt.Errorf("params: record field %q bound twice", name)
		}
		r.fields[name] = field
		r.order = append(r.order, name)
	}
	return r, nil
}

// Names returns field names in binding order.
func (r *Record) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

func (r *Record) Get(name string) (any, bool) {
	field, ok := r.fields[name]
	if !ok {
		return nil, false
	}
	return field.Get(), true
}

func (r *Record) Set(name string, value any) error {
	field, ok := r.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return field.Set(value)
}

// MapRecord is a dynamically keyed Host. Only declared names are accepted.
type MapRecord struct {
	mu     sync.RWMutex
	values map[string]any
}

var _ Host = (*MapRecord)(nil)

// NewMapRecord declares one field per descriptor, seeded with its default so
// constants hold their compiled-in value before resolution.
func NewMapRecord(set *DescriptorSet) *MapRecord {
	r := &MapRecord{values: make(map[string]any, set.Len())}
	for _, d := range set.Descriptors() {
		r.values[d.Name] = d.Default
	}
	return r
}

func (r *MapRecord) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[name]
	return ok
}

func (r *MapRecord) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

func (r *MapRecord) Set(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	r.values[name] = value
	return nil
}

// Snapshot returns a copy of all field values.
func (r *MapRecord) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = cloneValue(v)
	}
	return out
}

// Names returns the declared field names sorted alphabetically.
func (r *MapRecord) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
