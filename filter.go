package locals

import "sort"

// FilterScope returns the bindings of local that are not wildcard-import
// artifacts. Neither input is modified.
func FilterScope(local, global Scope, modules *Registry) Scope {
	filtered := make(Scope, len(local))
	for name, value := range local {
		if IsArtifact(name, value, global, modules) {
			continue
		}
		filtered[name] = value
	}
	return filtered
}

// FilterScope applies the inspector's modules to local.
func (i *Inspector) FilterScope(local, global Scope) Scope {
	return FilterScope(local, global, i.cfg.modules)
}

// FilterWithTrace filters local like FilterScope and records the decision
// taken for every binding, ordered by name.
func (i *Inspector) FilterWithTrace(local, global Scope) (Scope, Trace) {
	names := make([]string, 0, len(local))
	for name := range local {
		names = append(names, name)
	}
	sort.Strings(names)

	filtered := make(Scope, len(local))
	trace := Trace{Bindings: make([]BindingDecision, 0, len(names))}
	for _, name := range names {
		value := local[name]
		owners, artifact := artifactOwners(name, value, global, i.cfg.modules)
		trace.Bindings = append(trace.Bindings, BindingDecision{
			Name:     name,
			Kind:     KindOf(value).String(),
			Modules:  owners,
			Mirrored: mirrored(name, value, global),
			Dropped:  artifact,
		})
		if !artifact {
			filtered[name] = value
		}
	}
	return filtered, trace
}
