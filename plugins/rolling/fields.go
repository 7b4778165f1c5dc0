package rolling

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Maximum nesting written for maps and structs.
const maxFieldDepth = 10

// maxSliceElements caps slices of mixed values; longer ones are truncated.
const maxSliceElements = 50

// appendField writes v under key using the most specific zerolog field type.
// Maps and structs become nested dictionaries.
func appendField(e *zerolog.Event, key string, v any, depth int) *zerolog.Event {
	if depth > maxFieldDepth {
		return e.Str(key, "<max depth reached>")
	}

	switch val := v.(type) {
	case nil:
		return e.Interface(key, nil)
	case string:
		return e.Str(key, val)
	case []string:
		return e.Strs(key, val)
	case bool:
		return e.Bool(key, val)
	case []bool:
		return e.Bools(key, val)
	case int:
		return e.Int(key, val)
	case int8:
		return e.Int8(key, val)
	case int16:
		return e.Int16(key, val)
	case int32:
		return e.Int32(key, val)
	case int64:
		return e.Int64(key, val)
	case []int:
		return e.Ints(key, val)
	case uint:
		return e.Uint(key, val)
	case uint8:
		return e.Uint8(key, val)
	case uint16:
		return e.Uint16(key, val)
	case uint32:
		return e.Uint32(key, val)
	case uint64:
		return e.Uint64(key, val)
	case float32:
		return e.Float32(key, val)
	case float64:
		return e.Float64(key, val)
	case []byte:
		return e.Bytes(key, val)
	case time.Time:
		return e.Time(key, val)
	case time.Duration:
		return e.Dur(key, val)
	case error:
		return e.AnErr(key, val)
	case fmt.Stringer:
		return e.Stringer(key, val)
	case map[string]any:
		return e.Dict(key, dict(val, depth))
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return e.Interface(key, nil)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return e.Interface(key, v)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return e.Dict(key, dict(m, depth))
	case reflect.Struct:
		typ := rv.Type()
		m := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := typ.Field(i)
			// Skip unexported fields
			if !field.IsExported() {
				continue
			}
			m[field.Name] = rv.Field(i).Interface()
		}
		return e.Dict(key, dict(m, depth))
	case reflect.Slice, reflect.Array:
		if rv.Len() > maxSliceElements {
			items := make([]any, maxSliceElements)
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			return e.Interface(key, items).Int(key+"_truncated", rv.Len()-maxSliceElements)
		}
	}
	return e.Interface(key, v)
}

// dict builds a nested dictionary with keys in sorted order.
func dict(m map[string]any, depth int) *zerolog.Event {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := zerolog.Dict()
	for _, k := range keys {
		d = appendField(d, k, m[k], depth+1)
	}
	return d
}
