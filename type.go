// File: lixenwraith/spice/type.go
package spice

import (
	"fmt"
	"math"
	"strings"
)

// getAs resolves key and coerces it. Absence returns ok == false with a nil error;
// a failed coercion is always an error wrapping ErrTypeMismatch.
func getAs[T any](s *Spice, key string, convert func(Value) (T, error)) (T, bool, error) {
	var zero T
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := convert(v)
	if err != nil {
		return zero, true, fmt.Errorf("key %q: %w", normalizeKey(key), err)
	}
	return out, true, nil
}

func (s *Spice) GetString(key string) (string, bool, error) {
	return getAs(s, key, Value.AsString)
}

func (s *Spice) GetInt64(key string) (int64, bool, error) {
	return getAs(s, key, Value.AsInt64)
}

// GetInt is an alias for GetInt64.
func (s *Spice) GetInt(key string) (int64, bool, error) {
	return s.GetInt64(key)
}

// GetInt32 fails with ErrTypeMismatch when the value does not fit in 32 bits.
func (s *Spice) GetInt32(key string) (int32, bool, error) {
	return getAs(s, key, func(v Value) (int32, error) {
		i, err := v.AsInt64()
		if err != nil {
			return 0, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d overflows int32", ErrTypeMismatch, i)
		}
		return int32(i), nil
	})
}

func (s *Spice) GetFloat64(key string) (float64, bool, error) {
	return getAs(s, key, Value.AsFloat64)
}

// GetFloat32 fails with ErrTypeMismatch for finite values outside the float32 range.
func (s *Spice) GetFloat32(key string) (float32, bool, error) {
	return getAs(s, key, func(v Value) (float32, error) {
		f, err := v.AsFloat64()
		if err != nil {
			return 0, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return 0, fmt.Errorf("%w: %g overflows float32", ErrTypeMismatch, f)
		}
		return float32(f), nil
	})
}

func (s *Spice) GetBool(key string) (bool, bool, error) {
	return getAs(s, key, Value.AsBool)
}

func (s *Spice) GetList(key string) ([]Value, bool, error) {
	return getAs(s, key, Value.AsList)
}

func (s *Spice) GetMap(key string) (map[string]Value, bool, error) {
	return getAs(s, key, Value.AsMap)
}

// GetStringSlice returns a list as strings. A scalar string is split on commas.
func (s *Spice) GetStringSlice(key string) ([]string, bool, error) {
	return getAs(s, key, func(v Value) ([]string, error) {
		if v.kind == KindString {
			return splitList(v.str), nil
		}
		items, err := v.AsList()
		if err != nil {
			return nil, err
		}
		out := make([]string, len(items))
		for i, item := range items {
			str, err := item.AsString()
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = str
		}
		return out, nil
	})
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
