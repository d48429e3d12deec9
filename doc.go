// Package locals produces canonical textual snapshots of a paused frame's
// variables for a debugger's "Variables" pane.
//
// A snapshot is taken in two steps. FilterScope removes wildcard-import
// artifacts: bindings whose (name, value) pair is exposed by a non-internal
// module in the Registry and mirrored with an equal value in the globals.
// Serialize then renders the remaining bindings:
//
//	sequences   TypeName[e1,e2]        slices, arrays, sets
//	mappings    tTypeName{k:v,k:v}     maps, pairs sorted by serialized key
//	composites  fName<k:v,k:v>         structs, same body as a mapping
//	suppressed  (absent)               funcs, reflect.Type, modules
//	scalars     TypeName(repr)         everything else
//
// Unexported struct fields render exactly like exported ones. Magic keys
// (__name__) are skipped inside mappings and composites. Values
// whose representation panics are replaced by a placeholder and reported
// through UnrepresentableError.
//
// Known limitation: a genuine global that happens to equal a module member of
// the same name is indistinguishable from an import artifact and is dropped.
//
// Serialization recurses without cycle detection. A self-referencing map or
// slice exhausts the stack, so callers should only snapshot acyclic state.
//
// Watch expressions run against the visible bindings (locals over globals over
// builtins) with expr by default; CEL, Lua and goja (build tag js_eval) are
// available through NewEvaluator.
package locals
