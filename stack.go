// FILE: lixenwraith/spice/stack.go
package spice

import (
	"sort"
	"sync"
)

// LayerInfo describes one layer of a stack for diagnostics.
type LayerInfo struct {
	Name     string
	Priority Priority
}

type stackEntry struct {
	layer    Layer
	priority Priority
}

// LayerStack holds layers ordered by priority, highest first. Among equal
// priorities the most recently added layer comes first.
type LayerStack struct {
	entries []stackEntry
	mutex   sync.RWMutex
}

func NewLayerStack() *LayerStack {
	return &LayerStack{}
}

// Add inserts a layer at the position its priority dictates. The priority is read once.
func (s *LayerStack) Add(layer Layer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry := stackEntry{layer: layer, priority: layer.Priority()}

	// first index whose priority is not higher than the new one: the new entry goes
	// ahead of existing equal-priority entries
	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].priority <= entry.priority
	})
	s.entries = append(s.entries, stackEntry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = entry
}

// Remove drops the first layer with the given name. It reports whether one was found.
func (s *LayerStack) Remove(name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, e := range s.entries {
		if e.layer.Name() == name {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// removeWhere drops every entry matching remove and returns the number removed.
func (s *LayerStack) removeWhere(remove func(stackEntry) bool) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if remove(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = stackEntry{}
	}
	s.entries = kept
	return removed
}

// RemoveByPriority drops every layer declared at priority p.
func (s *LayerStack) RemoveByPriority(p Priority) int {
	return s.removeWhere(func(e stackEntry) bool {
		return e.priority == p
	})
}

func (s *LayerStack) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// Layers returns the layers in resolution order.
func (s *LayerStack) Layers() []Layer {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	layers := make([]Layer, len(s.entries))
	for i, e := range s.entries {
		layers[i] = e.layer
	}
	return layers
}

// Resolve returns the value from the highest-priority layer holding key and the
// name of that layer. A failing layer stops the scan with a *LayerError.
func (s *LayerStack) Resolve(key string) (Value, string, bool, error) {
	for _, layer := range s.Layers() {
		v, ok, err := layer.Get(key)
		if err != nil {
			return Value{}, "", false, &LayerError{Layer: layer.Name(), Key: key, Err: err}
		}
		if ok {
			return v, layer.Name(), true, nil
		}
	}
	return Value{}, "", false, nil
}

// AllKeys returns the sorted union of every layer's keys.
func (s *LayerStack) AllKeys() []string {
	seen := make(map[string]bool)
	for _, layer := range s.Layers() {
		for _, k := range layer.Keys() {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LayerInfo lists name and priority in resolution order.
func (s *LayerStack) LayerInfo() []LayerInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	info := make([]LayerInfo, len(s.entries))
	for i, e := range s.entries {
		info[i] = LayerInfo{Name: e.layer.Name(), Priority: e.priority}
	}
	return info
}
