package params

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// ErrUnknownFunction is returned by Call for a name nobody registered.
var ErrUnknownFunction = errors.New("params: function not registered")

// FunctionRegistry holds rule helpers. Lookups fold case, so "Between" and
// "between" name the same helper. The zero value is ready to use.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{}
}

func functionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds fn under name and refuses to replace an existing helper.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := functionKey(name)
	if key == "" {
		return fmt.Errorf("params: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("params: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.funcs[key]; taken {
		return fmt.Errorf("params: function %q already registered", name)
	}
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	r.funcs[key] = fn
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *FunctionRegistry) lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[functionKey(name)]
	return fn, ok
}

// Call invokes the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return fn(args...)
}

// Clone copies the registry so later registrations do not leak into
// evaluators already built from it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{funcs: make(map[string]Function, len(r.funcs))}
	for key, fn := range r.funcs {
		out.funcs[key] = fn
	}
	return out
}

// Names lists registered names, lowercased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for key := range r.funcs {
		names = append(names, key)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// WithFunctionRegistry makes registry available to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers a single helper on the engine's registry.
// Registration errors are dropped; use WithFunctionRegistry to observe them.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *engineConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
