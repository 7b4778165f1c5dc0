package logpipe

import (
	"reflect"
)

// Clone returns a deep copy of c. Maps, slices, arrays, pointers and the
// exported fields of structs are copied; functions and channels are shared.
// Cyclic references through maps, pointers and slices are preserved in the
// copy; nothing mutable is shared with c at any depth.
func Clone(c Context) Context {
	if c == nil {
		return nil
	}
	out, _ := cloneAny(c).(Context)
	return out
}

func cloneAny(v any) any {
	if v == nil {
		return nil
	}
	// Fast paths for the shapes contexts are normally built from.
	switch t := v.(type) {
	case string, bool, int, int64, float64, Level:
		return t
	}
	cl := cloner{visited: make(map[visitKey]reflect.Value)}
	return cl.clone(reflect.ValueOf(v)).Interface()
}

// visitKey identifies a reference already copied. The type and length keep
// a slice apart from a pointer to its first element.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type cloner struct {
	visited map[visitKey]reflect.Value
}

func (c *cloner) clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(c.clone(v.Elem()))
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if seen, ok := c.visited[key]; ok {
			return seen
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.visited[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.clone(iter.Value()))
		}
		return out

	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if seen, ok := c.visited[key]; ok {
			return seen
		}
		out := reflect.New(v.Type().Elem())
		c.visited[key] = out
		out.Elem().Set(c.clone(v.Elem()))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if seen, ok := c.visited[key]; ok {
			return seen
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.visited[key] = out
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.clone(v.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.clone(v.Index(i)))
		}
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		// unexported fields keep a shallow copy
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			f := out.Field(i)
			if !f.CanSet() {
				continue
			}
			f.Set(c.clone(v.Field(i)))
		}
		return out

	default:
		return v
	}
}
