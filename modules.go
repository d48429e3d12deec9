package locals

import (
	"reflect"
	"sort"
)

// Module is a named set of public members, the way a loaded package or
// imported module exposes them to wildcard imports. Modules serialize to
// absent.
type Module struct {
	name    string
	members map[string]any
}

// NewModule builds a module. The member map is copied so later mutation by
// the caller does not leak into registries built from it.
func NewModule(name string, members map[string]any) *Module {
	copied := make(map[string]any, len(members))
	for key, value := range members {
		copied[key] = value
	}
	return &Module{name: name, members: copied}
}

// Name returns the module name.
func (m *Module) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Member returns the member bound to name.
func (m *Module) Member(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m.members[name]
	return value, ok
}

// Members returns a copy of the module's member set.
func (m *Module) Members() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.members))
	for key, value := range m.members {
		out[key] = value
	}
	return out
}

// Exposes reports whether the module has a member called name whose value
// equals value.
func (m *Module) Exposes(name string, value any) bool {
	member, ok := m.Member(name)
	return ok && ValuesEqual(member, value)
}

// Internal reports whether the module's name is wrapped in the reserved
// double-underscore convention. Internal modules (an entry point or builtins
// namespace) are never searched for artifacts.
func (m *Module) Internal() bool {
	return IsMagicName(m.Name())
}

// Registry is a read-only snapshot of the modules known at one instant.
type Registry struct {
	modules []*Module
	byName  map[string]*Module
}

// NewRegistry builds a registry ordered by module name. Nil modules are
// dropped and a later module replaces an earlier one with the same name.
func NewRegistry(modules ...*Module) *Registry {
	byName := make(map[string]*Module, len(modules))
	for _, module := range modules {
		if module == nil {
			continue
		}
		byName[module.name] = module
	}
	ordered := make([]*Module, 0, len(byName))
	for _, module := range byName {
		ordered = append(ordered, module)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].name < ordered[j].name
	})
	return &Registry{modules: ordered, byName: byName}
}

// Modules returns the registered modules ordered by name.
func (r *Registry) Modules() []*Module {
	if r == nil {
		return nil
	}
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (*Module, bool) {
	if r == nil {
		return nil, false
	}
	module, ok := r.byName[name]
	return module, ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.modules)
}

// Owners returns the names of the non-internal modules exposing the exact
// (name, value) pair.
func (r *Registry) Owners(name string, value any) []string {
	if r == nil {
		return nil
	}
	var owners []string
	for _, module := range r.modules {
		if module.Internal() {
			continue
		}
		if module.Exposes(name, value) {
			owners = append(owners, module.name)
		}
	}
	return owners
}

// IsArtifact reports whether the binding (name, value) is a wildcard-import
// artifact: some non-internal module exposes the same pair and the binding is
// mirrored with an equal value in globals.
//
// A genuine global whose name and value coincide with a module member is
// indistinguishable from an artifact and is reported as one.
func IsArtifact(name string, value any, globals Scope, modules *Registry) bool {
	_, artifact := artifactOwners(name, value, globals, modules)
	return artifact
}

func artifactOwners(name string, value any, globals Scope, modules *Registry) ([]string, bool) {
	owners := modules.Owners(name, value)
	if len(owners) == 0 {
		return nil, false
	}
	return owners, mirrored(name, value, globals)
}

func mirrored(name string, value any, globals Scope) bool {
	global, ok := globals[name]
	return ok && ValuesEqual(global, value)
}

// IsArtifact reports whether the binding is a wildcard-import artifact with
// respect to the inspector's modules.
func (i *Inspector) IsArtifact(name string, value any, globals Scope) bool {
	return IsArtifact(name, value, globals, i.cfg.modules)
}

// ValuesEqual compares two binding values by value. Funcs have no value
// equality in Go, so they compare equal when they share a code pointer.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}
