// FILE: lixenwraith/spice/value.go
package spice

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a single configuration value. The zero Value is invalid and is never
// returned by a successful lookup.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	b    bool
	list []Value
	m    map[string]Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Int(i int64) Value { return Value{kind: KindInt, num: i} }

func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List builds a list value. The slice is copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map builds a map value. The map is copied.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// ValueOf converts data produced by decoders, flag libraries or reflection into a Value.
// Integers of any width, floats, bools, strings, json.Number, time.Duration, time.Time,
// slices, arrays and string-keyed maps are accepted. nil and structs are rejected.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{}, fmt.Errorf("%w: nil has no configuration representation", ErrTypeMismatch)
	case Value:
		if err := checkValid(x); err != nil {
			return Value{}, err
		}
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int64:
		return Int(x), nil
	case int:
		return Int(int64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q: %w", ErrTypeMismatch, x.String(), err)
		}
		return Float(f), nil
	case time.Duration:
		return String(x.String()), nil
	case time.Time:
		return String(x.Format(time.RFC3339)), nil
	case fmt.Stringer:
		// net.IP, *url.URL and similar scalar-like types; named numbers, bools and
		// strings keep their underlying value
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Ptr:
			if rv.IsNil() {
				return Value{}, fmt.Errorf("%w: nil %T", ErrTypeMismatch, v)
			}
		case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return valueOfReflect(rv)
		}
		return String(x.String()), nil
	}

	return valueOfReflect(reflect.ValueOf(v))
}

// checkValid rejects invalid values at any depth of a composite.
func checkValid(v Value) error {
	switch v.kind {
	case KindInvalid:
		return fmt.Errorf("%w: invalid value", ErrTypeMismatch)
	case KindList:
		for i, item := range v.list {
			if err := checkValid(item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	case KindMap:
		for k, item := range v.m {
			if err := checkValid(item); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	}
	return nil
}

func valueOfReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Value{}, fmt.Errorf("%w: nil %s", ErrTypeMismatch, rv.Type())
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrTypeMismatch, u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, item)
		}
		return Value{kind: KindList, list: items}, nil
	case reflect.Map:
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			// yaml.v3 may yield map[any]any for non-string keys
			key := fmt.Sprint(iter.Key().Interface())
			item, err := ValueOf(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m[key] = item
		}
		return Value{kind: KindMap, m: m}, nil
	}
	return Value{}, fmt.Errorf("%w: unsupported type %s", ErrTypeMismatch, rv.Type())
}

// MustValueOf is like ValueOf but panics on error. Intended for literals in tests and setup code.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(fmt.Sprintf("spice: %v", err))
	}
	return val
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString returns the canonical string form of a scalar. Lists and maps fail.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindInt:
		return strconv.FormatInt(v.num, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'f', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	}
	return "", mismatchError(v, "string")
}

// AsInt64 converts to int64. Strings must be base-10 integers and floats must be
// integral and within range.
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.num, nil
	case KindString:
		i, err := strconv.ParseInt(v.str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", mismatchError(v, "int"), err)
		}
		return i, nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) || v.flt != math.Trunc(v.flt) {
			return 0, mismatchError(v, "int")
		}
		if v.flt < math.MinInt64 || v.flt >= math.MaxInt64 {
			return 0, mismatchError(v, "int")
		}
		return int64(v.flt), nil
	}
	return 0, mismatchError(v, "int")
}

func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.flt, nil
	case KindInt:
		return float64(v.num), nil
	case KindString:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", mismatchError(v, "float"), err)
		}
		return f, nil
	}
	return 0, mismatchError(v, "float")
}

// AsBool accepts booleans and the strings "true"/"false" in any case.
// Numbers are never booleans.
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindString:
		switch {
		case strings.EqualFold(v.str, "true"):
			return true, nil
		case strings.EqualFold(v.str, "false"):
			return false, nil
		}
	}
	return false, mismatchError(v, "bool")
}

func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, mismatchError(v, "list")
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, nil
}

func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, mismatchError(v, "map")
	}
	cp := make(map[string]Value, len(v.m))
	for k, item := range v.m {
		cp[k] = item
	}
	return cp, nil
}

// Interface returns the native Go form: string, int64, float64, bool, []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// Equal reports whether both values hold the same variant with equal contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindInvalid:
		return "<invalid>"
	}
	s, _ := v.AsString()
	return s
}

func (v Value) clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, item := range v.m {
			m[k] = item.clone()
		}
		return Value{kind: KindMap, m: m}
	}
	return v
}

// describe renders the value for error messages, quoting strings.
func (v Value) describe() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.String()
}

// child returns the element addressed by one key segment: a map key or a list index.
func (v Value) child(segment string) (Value, bool) {
	switch v.kind {
	case KindMap:
		item, ok := v.m[segment]
		return item, ok
	case KindList:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(v.list) {
			return Value{}, false
		}
		return v.list[idx], true
	}
	return Value{}, false
}
