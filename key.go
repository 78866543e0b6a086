// FILE: lixenwraith/spice/key.go
package spice

import (
	"fmt"
	"sort"
	"strings"
)

// KeyDelimiter separates the segments of a key path.
const KeyDelimiter = "."

// normalizeKey lower-cases a key path. Keys are case-insensitive everywhere.
func normalizeKey(key string) string {
	return strings.ToLower(key)
}

// validateKey checks a normalized key path for writing.
func validateKey(key string) error {
	if key == "" {
		return invalidKeyError(key, "key cannot be empty")
	}
	for _, segment := range strings.Split(key, KeyDelimiter) {
		if !isValidKeySegment(segment) {
			return invalidKeyError(key, fmt.Sprintf("invalid path segment %q", segment))
		}
	}
	return nil
}

// isValidKeySegment accepts TOML bare-key characters (A-Za-z0-9_-). Empty segments
// come from leading, trailing or doubled separators and are rejected.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// joinKey appends a segment to a prefix.
func joinKey(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + KeyDelimiter + segment
}

// flattenValues converts nested maps into dot-notation leaf keys. Lists and scalars
// are leaves; map keys are lower-cased at every depth, including inside lists.
func flattenValues(nested map[string]Value, prefix string, flat map[string]Value) {
	for key, value := range nested {
		path := joinKey(prefix, normalizeKey(key))
		if value.kind == KindMap {
			if len(value.m) == 0 {
				flat[path] = value
				continue
			}
			flattenValues(value.m, path, flat)
			continue
		}
		flat[path] = normalizeValue(value)
	}
}

// flattenMap converts parsed document data into dot-notation leaf keys, dropping
// nulls. Empty tables are kept as empty map leaves.
func flattenMap(nested map[string]any, prefix string) (map[string]Value, error) {
	flat := make(map[string]Value)
	if err := flattenInto(nested, prefix, flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenInto(nested map[string]any, prefix string, flat map[string]Value) error {
	for key, raw := range nested {
		path := joinKey(prefix, normalizeKey(key))
		switch typed := raw.(type) {
		case nil:
			continue
		case map[string]any:
			if len(typed) == 0 {
				flat[path] = Value{kind: KindMap, m: map[string]Value{}}
				continue
			}
			if err := flattenInto(typed, path, flat); err != nil {
				return err
			}
			continue
		}
		value, err := ValueOf(raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", path, err)
		}
		if value.kind == KindMap {
			flattenValues(value.m, path, flat)
			continue
		}
		flat[path] = normalizeValue(value)
	}
	return nil
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// Intermediate maps are created, and non-map intermediates are overwritten.
func setNestedValue(nested map[string]Value, path string, value Value) {
	segments := strings.Split(path, KeyDelimiter)
	last := segments[len(segments)-1]
	if len(segments) == 1 {
		nested[last] = value
		return
	}
	next, exists := nested[segments[0]]
	if !exists || next.kind != KindMap {
		next = Value{kind: KindMap, m: make(map[string]Value)}
		nested[segments[0]] = next
	}
	setNestedValue(next.m, strings.Join(segments[1:], KeyDelimiter), value)
}

// expandKeys builds a nested map from flat keys. Shorter keys are applied first so
// that deeper keys overwrite a scalar parent.
func expandKeys(flat map[string]Value) map[string]Value {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	nested := make(map[string]Value)
	for _, k := range keys {
		// deep copy so later writes beneath this key never reach a layer's map
		setNestedValue(nested, k, flat[k].clone())
	}
	return nested
}

// navigateToPath traverses a nested value along a dot-notation path.
func navigateToPath(root Value, segments []string) (Value, bool) {
	current := root
	for _, segment := range segments {
		next, ok := current.child(segment)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// normalizeValue lower-cases map keys at every depth so nested lookups match
// normalized key paths.
func normalizeValue(v Value) Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = normalizeValue(item)
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, item := range v.m {
			m[normalizeKey(k)] = normalizeValue(item)
		}
		return Value{kind: KindMap, m: m}
	}
	return v
}
