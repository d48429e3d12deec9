package locals

import (
	"github.com/goliatone/go-locals/layering"
)

// Snapshot filters local against modules and serializes the result. The
// output is always rooted at the mapping form of Scope:
//
//	tlocals.Scope{string("x"):int(3)}
func Snapshot(local, global Scope, modules *Registry) string {
	return snapshot(NewEncoder(), FilterScope(local, global, modules))
}

func snapshot(encoder *Encoder, filtered Scope) string {
	out, _ := encoder.Serialize(filtered)
	return out
}

// Difference returns the entries of a whose keys do not appear in b. Values
// are never compared, so a rebound name is not reported.
func Difference[M ~map[K]V, K comparable, V any](a, b M) M {
	return layering.Difference(a, b)
}

// Snapshot returns the canonical representation of the genuine local state.
func (i *Inspector) Snapshot(local, global Scope) string {
	return snapshot(i.newEncoder(nil), i.FilterScope(local, global))
}

// GlobalsSnapshot returns the canonical representation of the module-level
// bindings that are not shadowed by local, filtered like Snapshot.
func (i *Inspector) GlobalsSnapshot(local, global Scope) string {
	return i.Snapshot(Difference(global, local), global)
}

// Variables returns both views a debugger pane shows: the locals snapshot and
// the unshadowed globals snapshot.
func (i *Inspector) Variables(local, global Scope) (locals string, globals string) {
	return i.Snapshot(local, global), i.GlobalsSnapshot(local, global)
}

// Serialize renders a single value with the inspector's placeholder.
func (i *Inspector) Serialize(value any) (string, bool) {
	return i.newEncoder(nil).Serialize(value)
}
