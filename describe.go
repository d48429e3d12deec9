package locals

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// FieldDescriptor describes one node of a value's structure.
type FieldDescriptor struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Type string `json:"type"`
}

// Describe flattens value into descriptors in depth-first order, the root
// first with an empty path. Map entries with string keys extend the path with
// ".key", other keys with "[key]" using the key's canonical form; sequence
// elements use "[index]" and struct fields ".Field". Suppressed values and
// magic keys are omitted, and siblings follow the same order Serialize uses.
func Describe(value any) []FieldDescriptor {
	var out []FieldDescriptor
	describe(NewEncoder(), reflect.ValueOf(value), "", &out)
	return out
}

// Describe flattens the genuine local bindings, omitting the root scope.
func (i *Inspector) Describe(local, global Scope) []FieldDescriptor {
	var out []FieldDescriptor
	describe(i.newEncoder(nil), reflect.ValueOf(i.FilterScope(local, global)), "", &out)
	if len(out) > 0 {
		out = out[1:]
	}
	return out
}

type describedChild struct {
	order   string
	segment string
	value   reflect.Value
}

func describe(encoder *Encoder, v reflect.Value, path string, out *[]FieldDescriptor) {
	v, kind := classify(v)
	if kind == KindSuppressed {
		return
	}
	descriptor := FieldDescriptor{Path: path, Kind: kind.String(), Type: "nil"}
	if v.IsValid() {
		descriptor.Type = typeName(v.Type())
	}
	*out = append(*out, descriptor)

	var children []describedChild
	switch kind {
	case KindSequence:
		children = sequenceChildren(encoder, v)
	case KindMapping:
		children = mappingChildren(encoder, v)
	case KindComposite:
		v = addressable(v)
		t := v.Type()
		for idx := 0; idx < t.NumField(); idx++ {
			name := t.Field(idx).Name
			if IsMagicName(name) {
				continue
			}
			children = append(children, describedChild{
				order:   fmt.Sprintf("string(%q)", name),
				segment: "." + name,
				value:   structField(v, idx),
			})
		}
		slices.SortStableFunc(children, func(a, b describedChild) int {
			return strings.Compare(a.order, b.order)
		})
	}

	for _, child := range children {
		describe(encoder, child.value, joinPath(path, child.segment), out)
	}
}

func sequenceChildren(encoder *Encoder, v reflect.Value) []describedChild {
	if v.Kind() != reflect.Map {
		children := make([]describedChild, 0, v.Len())
		for idx := 0; idx < v.Len(); idx++ {
			children = append(children, describedChild{
				segment: fmt.Sprintf("[%d]", idx),
				value:   v.Index(idx),
			})
		}
		return children
	}
	// Set members have no index; they are ordered like Serialize orders them.
	var children []describedChild
	iter := v.MapRange()
	for iter.Next() {
		key, ok := encoder.encode(iter.Key())
		if !ok {
			continue
		}
		children = append(children, describedChild{order: key, value: iter.Key()})
	}
	slices.SortStableFunc(children, func(a, b describedChild) int {
		return strings.Compare(a.order, b.order)
	})
	for idx := range children {
		children[idx].segment = fmt.Sprintf("[%d]", idx)
	}
	return children
}

func mappingChildren(encoder *Encoder, v reflect.Value) []describedChild {
	var children []describedChild
	iter := v.MapRange()
	for iter.Next() {
		key := iter.Key()
		if isMagicKey(key) {
			continue
		}
		repr, ok := encoder.encode(key)
		if !ok {
			continue
		}
		segment := "[" + repr + "]"
		if k := indirect(key); k.IsValid() && k.Kind() == reflect.String {
			segment = "." + k.String()
		}
		children = append(children, describedChild{order: repr, segment: segment, value: iter.Value()})
	}
	slices.SortStableFunc(children, func(a, b describedChild) int {
		return strings.Compare(a.order, b.order)
	})
	return children
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return strings.TrimPrefix(segment, ".")
	}
	return prefix + segment
}
