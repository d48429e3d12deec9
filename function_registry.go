package locals

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper a watch expression can call by name, for example
// `len(items)` or `hex(addr)`. Arguments arrive already converted from the
// evaluating engine.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers exposed to watch expressions. Names are
// case-insensitive, and every evaluator receives its own clone.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry returns a registry with no helpers.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register exposes fn to watch expressions as name. A name may be registered
// once; helpers cannot shadow one another.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("locals: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("locals: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("locals: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone copies the name table so an evaluator is not affected by later
// registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call runs the helper named by a watch expression.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("locals: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("locals: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the helpers in lower case, sorted, in the order evaluators
// install them.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry makes the helpers in registry callable from Watch.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *inspectorConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction adds a single watch helper. Duplicate names are ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *inspectorConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
