package locals

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// DefaultPlaceholder marks a value whose representation could not be produced.
const DefaultPlaceholder = "<unrepresentable>"

// Serialize converts value into its canonical representation using the
// default encoder. The boolean is false when the value is absent (funcs,
// types and modules), meaning it contributes nothing to an enclosing
// container.
func Serialize(value any) (string, bool) {
	return NewEncoder().Serialize(value)
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncoderPlaceholder replaces the token emitted for unrepresentable values.
func WithEncoderPlaceholder(placeholder string) EncoderOption {
	return func(e *Encoder) {
		if placeholder != "" {
			e.placeholder = placeholder
		}
	}
}

// WithFailureHandler registers fn to observe every unrepresentable value the
// encoder substitutes with its placeholder.
func WithFailureHandler(fn func(*UnrepresentableError)) EncoderOption {
	return func(e *Encoder) {
		e.onFailure = fn
	}
}

// Encoder renders values into the canonical textual format. The zero value is
// not usable; construct one with NewEncoder. An Encoder holds no per-call
// state and is safe for concurrent use when its failure handler is.
type Encoder struct {
	placeholder string
	onFailure   func(*UnrepresentableError)
}

// NewEncoder constructs an Encoder.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{placeholder: DefaultPlaceholder}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Serialize converts value into its canonical representation.
func (e *Encoder) Serialize(value any) (string, bool) {
	return e.encode(reflect.ValueOf(value))
}

func (e *Encoder) encode(v reflect.Value) (string, bool) {
	v, kind := classify(v)
	switch kind {
	case KindSequence:
		return e.sequence(v), true
	case KindMapping:
		return "t" + typeName(v.Type()) + "{" + e.mappingBody(v) + "}", true
	case KindComposite:
		return "f" + compositeName(v.Type()) + "<" + e.fieldsBody(v) + ">", true
	case KindSuppressed:
		return "", false
	default:
		return e.scalar(v), true
	}
}

func (e *Encoder) sequence(v reflect.Value) string {
	var parts []string
	if v.Kind() == reflect.Map {
		iter := v.MapRange()
		for iter.Next() {
			if s, ok := e.encode(iter.Key()); ok {
				parts = append(parts, s)
			}
		}
		slices.Sort(parts)
	} else {
		for i := 0; i < v.Len(); i++ {
			if s, ok := e.encode(v.Index(i)); ok {
				parts = append(parts, s)
			}
		}
	}
	return typeName(v.Type()) + "[" + strings.Join(parts, ",") + "]"
}

type entry struct {
	key   reflect.Value
	value reflect.Value
}

type pair struct {
	key   string
	value string
}

func (e *Encoder) mappingBody(v reflect.Value) string {
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: iter.Key(), value: iter.Value()})
	}
	return e.body(entries)
}

// fieldsBody renders a struct's field dictionary with the same body function
// the mapping formatter uses, so both always agree on filtering and order.
func (e *Encoder) fieldsBody(v reflect.Value) string {
	v = addressable(v)
	t := v.Type()
	entries := make([]entry, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		entries = append(entries, entry{
			key:   reflect.ValueOf(t.Field(i).Name),
			value: structField(v, i),
		})
	}
	return e.body(entries)
}

// body renders k:v pairs sorted by serialized key. Magic keys are skipped and
// pairs where either side is absent are dropped.
func (e *Encoder) body(entries []entry) string {
	pairs := make([]pair, 0, len(entries))
	for _, en := range entries {
		if isMagicKey(en.key) {
			continue
		}
		key, ok := e.encode(en.key)
		if !ok {
			continue
		}
		value, ok := e.encode(en.value)
		if !ok {
			continue
		}
		pairs = append(pairs, pair{key: key, value: value})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int {
		return strings.Compare(a.key, b.key)
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.key)
		b.WriteByte(':')
		b.WriteString(p.value)
	}
	return b.String()
}

// IsMagicName reports whether name follows the reserved double-underscore
// convention on both ends.
func IsMagicName(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

func isMagicKey(key reflect.Value) bool {
	key = indirect(key)
	if !key.IsValid() || key.Kind() != reflect.String {
		return false
	}
	return IsMagicName(key.String())
}

func (e *Encoder) scalar(v reflect.Value) string {
	if !v.IsValid() {
		return "nil(nil)"
	}
	name := typeName(v.Type())
	repr, err := representation(v)
	if err != nil {
		failure := &UnrepresentableError{Type: name, Err: err}
		if e.onFailure != nil {
			e.onFailure(failure)
		}
		repr = e.placeholder
	}
	return name + "(" + repr + ")"
}

// representation returns the debug text for a scalar. Panics raised by user
// methods surface as errors.
func representation(v reflect.Value) (repr string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("representation panicked: %v", r)
		}
	}()

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return "nil", nil
		}
	case reflect.Chan:
		return v.Type().String(), nil
	case reflect.UnsafePointer:
		if v.IsNil() {
			return "nil", nil
		}
		return "opaque", nil
	}

	v, ok := exported(v)
	if !ok {
		return "", fmt.Errorf("value of type %s is not accessible", v.Type())
	}
	if text, ok := methodText(v); ok {
		repr = text
	} else {
		repr = fmt.Sprintf("%#v", v.Interface())
	}

	if strings.Contains(repr, "%!") && strings.Contains(repr, "(PANIC=") {
		return "", fmt.Errorf("representation failed: %s", repr)
	}
	return repr, nil
}

// methodText prefers GoString for every scalar and falls back to Error or
// String for opaque structs.
func methodText(v reflect.Value) (string, bool) {
	switch typed := v.Interface().(type) {
	case fmt.GoStringer:
		return typed.GoString(), true
	case error:
		if isOpaque(v) {
			return typed.Error(), true
		}
	case fmt.Stringer:
		if isOpaque(v) {
			return typed.String(), true
		}
	}
	return "", false
}

// compositeName is the bare declared name of a struct, without its package.
func compositeName(t reflect.Type) string {
	if t.Name() == "" {
		return "struct"
	}
	return t.Name()
}

// typeName returns the runtime type name used in representations. Named
// types keep their package-qualified name; unnamed types use their kind.
func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.String()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + typeName(t.Elem())
	case reflect.Slice:
		return "slice"
	case reflect.Array:
		return "array"
	case reflect.Map:
		return "map"
	case reflect.Struct:
		return "struct"
	case reflect.Chan:
		return "chan"
	case reflect.Func:
		return "func"
	case reflect.Interface:
		return "interface"
	default:
		return t.Kind().String()
	}
}
