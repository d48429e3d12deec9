package locals

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Kind is the closed set of value classifications used by the serializer.
type Kind int

const (
	// KindScalar covers numbers, text, booleans and opaque values.
	KindScalar Kind = iota
	// KindSequence covers slices, arrays and sets (map[K]struct{}).
	KindSequence
	// KindMapping covers key/value maps.
	KindMapping
	// KindComposite covers structs exposing named fields.
	KindComposite
	// KindSuppressed covers funcs, types and modules. They serialize to absent.
	KindSuppressed
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindComposite:
		return "composite"
	case KindSuppressed:
		return "suppressed"
	default:
		return "scalar"
	}
}

var (
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	goStringerType  = reflect.TypeOf((*fmt.GoStringer)(nil)).Elem()
	stringerType    = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	moduleType      = reflect.TypeOf(Module{})
)

// KindOf reports how value would be classified by Serialize.
func KindOf(value any) Kind {
	_, kind := classify(reflect.ValueOf(value))
	return kind
}

// classify looks through interfaces and non-nil pointers and returns the value
// to format together with its kind. Rules are checked in a fixed priority
// order: sequence, mapping, composite, suppressed, scalar.
func classify(v reflect.Value) (reflect.Value, Kind) {
	v = indirect(v)
	if !v.IsValid() {
		return v, KindScalar
	}

	switch {
	case isSequence(v):
		return v, KindSequence
	case v.Kind() == reflect.Map:
		return v, KindMapping
	case isComposite(v):
		return v, KindComposite
	case isSuppressed(v):
		return v, KindSuppressed
	default:
		return v, KindScalar
	}
}

// indirect unwraps interfaces and pointers until it reaches a concrete value.
// Pointers that are nil, that are themselves suppressed, or whose method set
// makes the pointee opaque are returned as-is.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Pointer:
			if v.IsNil() || isSuppressed(v) || isOpaque(v) {
				return v
			}
			v = v.Elem()
		default:
			return v
		}
	}
	return v
}

func isSequence(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	case reflect.Map:
		return isSetType(v.Type())
	default:
		return false
	}
}

func isSetType(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

func isComposite(v reflect.Value) bool {
	if v.Kind() != reflect.Struct || v.NumField() == 0 {
		return false
	}
	return !isSuppressed(v) && !isOpaque(v)
}

func isSuppressed(v reflect.Value) bool {
	t := v.Type()
	switch {
	case t.Kind() == reflect.Func:
		return true
	case t == moduleType || (t.Kind() == reflect.Pointer && t.Elem() == moduleType):
		return true
	case t.Kind() != reflect.Interface && t.Implements(reflectTypeType):
		return true
	default:
		return false
	}
}

// isOpaque reports whether a struct (or pointer to struct) supplies its own
// textual form and therefore exposes no field dictionary.
func isOpaque(v reflect.Value) bool {
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		if t.Elem().Kind() != reflect.Struct {
			return false
		}
	} else if t.Kind() != reflect.Struct {
		return false
	}
	return t.Implements(goStringerType) || t.Implements(stringerType) || t.Implements(errorType)
}

// addressable returns v when it can be addressed and an addressable copy
// otherwise, so its unexported fields can later be re-rooted by exported.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() || !v.CanInterface() {
		return v
	}
	copied := reflect.New(v.Type()).Elem()
	copied.Set(v)
	return copied
}

// exported returns a view of v whose methods and value can be read. Values
// reached through unexported struct fields are re-rooted at their address;
// ok is false when v is read-only and has no address.
func exported(v reflect.Value) (reflect.Value, bool) {
	if !v.IsValid() || v.CanInterface() {
		return v, true
	}
	if !v.CanAddr() {
		return v, false
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem(), true
}

// structField returns field idx of the addressable struct v, re-rooted so
// unexported fields render like exported ones.
func structField(v reflect.Value, idx int) reflect.Value {
	field, _ := exported(v.Field(idx))
	return field
}
