// FILE: lixenwraith/spice/register.go
package spice

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// SetDefaultsFromStruct installs every exported leaf field of a struct (or struct
// pointer) as a default. Keys come from the configured tag (default "toml"), falling
// back to the field name; nested structs extend the path and a tag of "-" skips the
// field. prefix, if set, is prepended to every key. Like SetDefaults, either every
// field is installed or none.
func (s *Spice) SetDefaultsFromStruct(prefix string, structWithDefaults any) error {
	v := reflect.ValueOf(structWithDefaults)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("struct defaults require a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("struct defaults require a struct or struct pointer, got %T", structWithDefaults)
	}

	values := make(map[string]any)
	var errors []string
	s.collectFields(v, trimDelimiter(prefix), "", values, &errors)
	if len(errors) > 0 {
		return fmt.Errorf("failed to collect %d field(s): %s", len(errors), strings.Join(errors, "; "))
	}
	return s.SetDefaults(values)
}

// collectFields walks struct fields recursively, recording leaf values by key.
func (s *Spice) collectFields(v reflect.Value, pathPrefix, fieldPath string, values map[string]any, errors *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(s.tagName)
		if tag == "-" {
			continue
		}

		key := field.Name
		if tag != "" {
			if name, _, _ := strings.Cut(tag, ","); name != "" {
				key = name
			}
		}
		currentPath := joinKey(pathPrefix, key)

		isStruct := fieldValue.Kind() == reflect.Struct && !isScalarStruct(fieldValue.Type())
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct &&
			!isScalarStruct(fieldValue.Type().Elem())

		if isStruct || isPtrToStruct {
			nested := fieldValue
			if isPtrToStruct {
				if fieldValue.IsNil() {
					continue // no well-defined defaults under a nil pointer
				}
				nested = fieldValue.Elem()
			}
			s.collectFields(nested, currentPath, fieldPath+field.Name+".", values, errors)
			continue
		}

		if (fieldValue.Kind() == reflect.Ptr || fieldValue.Kind() == reflect.Interface ||
			fieldValue.Kind() == reflect.Map || fieldValue.Kind() == reflect.Slice) && fieldValue.IsNil() {
			continue
		}

		if str, ok := scalarStructString(fieldValue); ok {
			values[currentPath] = str
			continue
		}

		if _, err := ValueOf(fieldValue.Interface()); err != nil {
			*errors = append(*errors, fmt.Sprintf("field %s%s (path %s): %v", fieldPath, field.Name, currentPath, err))
			continue
		}
		values[currentPath] = fieldValue.Interface()
	}
}

var scalarStructTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}): true,
	reflect.TypeOf(url.URL{}):   true,
	reflect.TypeOf(net.IPNet{}): true,
}

// isScalarStruct reports struct types stored as a single string value.
func isScalarStruct(t reflect.Type) bool {
	return scalarStructTypes[t]
}

// scalarStructString renders url.URL and net.IPNet values, whose String methods
// have pointer receivers.
func scalarStructString(v reflect.Value) (string, bool) {
	if v.Kind() != reflect.Struct || !isScalarStruct(v.Type()) || v.Type() == reflect.TypeOf(time.Time{}) {
		return "", false
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Interface().(fmt.Stringer).String(), true
}
