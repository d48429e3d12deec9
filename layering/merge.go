package layering

import "reflect"

// Overlay composes binding maps ordered from strongest to weakest, returning a
// new map where a name bound in a stronger layer shadows the same name in any
// weaker one. Values are not merged; shadowing is all-or-nothing per name.
func Overlay[M ~map[K]V, K comparable, V any](layers ...M) M {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(M, size)
	for i := len(layers) - 1; i >= 0; i-- {
		for key, value := range layers[i] {
			merged[key] = value
		}
	}
	return merged
}

// Difference returns the entries of a whose keys are not present in b. Only
// key presence is considered; values are never compared.
func Difference[M ~map[K]V, K comparable, V any](a, b M) M {
	out := make(M, len(a))
	for key, value := range a {
		if _, ok := b[key]; ok {
			continue
		}
		out[key] = value
	}
	return out
}

var reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// structs are copied; funcs, channels, reflect.Type values and other opaque
// values are shared. Reference cycles are not detected.
func Clone[T any](value T) T {
	rv := reflect.ValueOf(&value).Elem()
	cloned := cloneValue(rv)
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	out := reflect.New(rv.Type()).Elem()
	out.Set(cloned)
	return out.Interface().(T)
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		if v.Type().Implements(reflectTypeType) {
			return v
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		// Copy first so unexported fields survive, then deep copy what we can.
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
