// FILE: lixenwraith/spice/memory.go
package spice

import (
	"sort"
	"sync"
)

// MapLayer is a mutable in-memory layer. Spice uses one for explicit values and one
// for defaults; it also serves Sub and ad-hoc layers supplied by callers.
type MapLayer struct {
	name     string
	priority Priority
	values   map[string]Value
	mutex    sync.RWMutex
}

// NewMapLayer creates an empty layer.
func NewMapLayer(name string, priority Priority) *MapLayer {
	return &MapLayer{
		name:     name,
		priority: priority,
		values:   make(map[string]Value),
	}
}

// NewMapLayerFrom creates a layer pre-populated from nested data, flattened to
// dot-notation keys.
func NewMapLayerFrom(name string, priority Priority, data map[string]any) (*MapLayer, error) {
	flat, err := flattenMap(data, "")
	if err != nil {
		return nil, err
	}
	l := NewMapLayer(name, priority)
	l.values = flat
	return l, nil
}

func (l *MapLayer) Name() string { return l.name }

func (l *MapLayer) Priority() Priority { return l.priority }

func (l *MapLayer) Get(key string) (Value, bool, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	v, ok := l.values[key]
	return v, ok, nil
}

func (l *MapLayer) Keys() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a value, replacing any previous value at the exact key.
func (l *MapLayer) Set(key string, value Value) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.values[key] = value
}

// SetAll stores every entry under a single lock acquisition.
func (l *MapLayer) SetAll(values map[string]Value) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for k, v := range values {
		l.values[k] = v
	}
}

// Delete removes a key. It reports whether the key was present.
func (l *MapLayer) Delete(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	_, ok := l.values[key]
	delete(l.values, key)
	return ok
}

func (l *MapLayer) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.values = make(map[string]Value)
}

func (l *MapLayer) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return len(l.values)
}
