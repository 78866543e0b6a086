// FILE: lixenwraith/spice/spice.go
package spice

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	explicitLayerName = "explicit"
	defaultsLayerName = "defaults"
)

// Option configures a Spice instance.
type Option func(*Spice)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Spice) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTagName sets the struct tag used by Unmarshal and struct defaults. Default "toml".
func WithTagName(tag string) Option {
	return func(s *Spice) {
		if tag != "" {
			s.tagName = tag
		}
	}
}

// Spice resolves configuration keys across a stack of layers. It owns a
// privileged explicit layer (highest priority, written by Set) and a defaults
// layer (lowest priority, written by SetDefault). All methods are safe for
// concurrent use.
type Spice struct {
	stack    *LayerStack
	explicit *MapLayer
	defaults *MapLayer
	logger   *zap.Logger
	tagName  string

	mutex       sync.RWMutex // guards the fields below
	configName  string
	configPaths []string
	configFile  string
	env         *EnvLayer
	envPrefix   string
}

// New creates a Spice holding exactly two layers: explicit and defaults.
func New(opts ...Option) *Spice {
	s := &Spice{
		stack:    NewLayerStack(),
		explicit: NewMapLayer(explicitLayerName, PriorityExplicit),
		defaults: NewMapLayer(defaultsLayerName, PriorityDefaults),
		logger:   zap.NewNop(),
		tagName:  "toml",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stack.Add(s.defaults)
	s.stack.Add(s.explicit)
	return s
}

// AddLayer inserts a layer at its declared priority. A layer at or above
// PriorityExplicit added later outranks values already set with Set.
func (s *Spice) AddLayer(layer Layer) {
	if layer == nil {
		return
	}
	p := layer.Priority()
	if p >= PriorityExplicit {
		s.logger.Warn("layer priority shadows explicit values",
			zap.String("layer", layer.Name()),
			zap.Stringer("priority", p))
	}
	s.stack.Add(layer)
	s.logger.Debug("layer added",
		zap.String("layer", layer.Name()),
		zap.Stringer("priority", p),
		zap.Int("layers", s.stack.Len()))
}

func (s *Spice) privileged(l Layer) bool {
	return l == Layer(s.explicit) || l == Layer(s.defaults)
}

// RemoveLayer removes every added layer named name. The explicit and defaults
// layers cannot be removed.
func (s *Spice) RemoveLayer(name string) bool {
	n := s.stack.removeWhere(func(e stackEntry) bool {
		return !s.privileged(e.layer) && e.layer.Name() == name
	})
	if n > 0 {
		s.forgetEnv()
		s.logger.Debug("layer removed", zap.String("layer", name), zap.Int("count", n))
	}
	return n > 0
}

// RemoveLayersByPriority removes every added layer declared at p and returns the count.
func (s *Spice) RemoveLayersByPriority(p Priority) int {
	n := s.stack.removeWhere(func(e stackEntry) bool {
		return !s.privileged(e.layer) && e.priority == p
	})
	if n > 0 {
		s.forgetEnv()
		s.logger.Debug("layers removed", zap.Stringer("priority", p), zap.Int("count", n))
	}
	return n
}

// ClearLayers removes every added layer, keeping explicit and defaults with their values.
func (s *Spice) ClearLayers() {
	n := s.stack.removeWhere(func(e stackEntry) bool {
		return !s.privileged(e.layer)
	})
	s.forgetEnv()
	s.logger.Debug("layers cleared", zap.Int("count", n))
}

// forgetEnv drops the cached env layer reference if the stack no longer holds it.
func (s *Spice) forgetEnv() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.env == nil {
		return
	}
	for _, l := range s.stack.Layers() {
		if l == Layer(s.env) {
			return
		}
	}
	s.env = nil
}

func (s *Spice) LayerCount() int { return s.stack.Len() }

// LayerInfo lists layers in resolution order: explicit first, defaults last.
func (s *Spice) LayerInfo() []LayerInfo { return s.stack.LayerInfo() }

// Set writes value to the explicit layer. value may be a Value or any type ValueOf accepts.
func (s *Spice) Set(key string, value any) error {
	key, v, err := prepareEntry(key, value)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	s.explicit.Set(key, v)
	return nil
}

// SetDefault writes value to the defaults layer.
func (s *Spice) SetDefault(key string, value any) error {
	key, v, err := prepareEntry(key, value)
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	s.defaults.Set(key, v)
	return nil
}

// SetDefaults installs every entry or none: all keys and values are checked
// before the defaults layer is touched.
func (s *Spice) SetDefaults(values map[string]any) error {
	prepared := make(map[string]Value, len(values))
	for key, value := range values {
		k, v, err := prepareEntry(key, value)
		if err != nil {
			return fmt.Errorf("set defaults: %w", err)
		}
		prepared[k] = v
	}
	s.defaults.SetAll(prepared)
	return nil
}

// Unset removes key from the explicit layer.
func (s *Spice) Unset(key string) bool {
	return s.explicit.Delete(normalizeKey(key))
}

func prepareEntry(key string, value any) (string, Value, error) {
	key = normalizeKey(key)
	if err := validateKey(key); err != nil {
		return "", Value{}, err
	}
	v, err := ValueOf(value)
	if err != nil {
		return "", Value{}, fmt.Errorf("key %q: %w", key, err)
	}
	return key, normalizeValue(v), nil
}

// Get resolves key. Absence is reported with ok == false and a nil error.
//
// When no layer holds key exactly, Get descends into the composite value of the
// longest ancestor that resolves (map keys or list indices, e.g. "servers.0.host"),
// and failing that assembles a Map from the keys stored beneath key.
func (s *Spice) Get(key string) (Value, bool, error) {
	v, _, ok, err := s.lookup(key)
	return v, ok, err
}

// Origin reports the name of the layer that answers key. Values assembled from
// several descendant keys report an empty name.
func (s *Spice) Origin(key string) (string, bool, error) {
	_, layer, ok, err := s.lookup(key)
	return layer, ok, err
}

func (s *Spice) lookup(key string) (Value, string, bool, error) {
	key = normalizeKey(key)
	if key == "" {
		return Value{}, "", false, nil
	}

	v, layer, ok, err := s.stack.Resolve(key)
	if err != nil || ok {
		return v, layer, ok, err
	}

	segments := strings.Split(key, KeyDelimiter)
	for i := len(segments) - 1; i >= 1; i-- {
		root, layer, ok, err := s.stack.Resolve(strings.Join(segments[:i], KeyDelimiter))
		if err != nil {
			return Value{}, "", false, err
		}
		if !ok {
			continue
		}
		if nested, found := navigateToPath(root, segments[i:]); found {
			return nested, layer, true, nil
		}
		break
	}

	sub, ok, err := s.subtree(key)
	return sub, "", ok, err
}

// subtree assembles a Map from every resolvable key beneath prefix.
func (s *Spice) subtree(key string) (Value, bool, error) {
	prefix := key + KeyDelimiter
	flat := make(map[string]Value)
	for _, k := range s.stack.AllKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v, _, ok, err := s.stack.Resolve(k)
		if err != nil {
			return Value{}, false, err
		}
		if ok {
			flat[strings.TrimPrefix(k, prefix)] = v
		}
	}
	if len(flat) == 0 {
		return Value{}, false, nil
	}
	return Value{kind: KindMap, m: expandKeys(flat)}, true, nil
}

// IsSet reports whether key resolves to a value. Lookup errors count as unset.
func (s *Spice) IsSet(key string) bool {
	_, ok, err := s.Get(key)
	return ok && err == nil
}

// AllKeys returns the sorted union of keys across all layers.
func (s *Spice) AllKeys() []string {
	return s.stack.AllKeys()
}

// AllSettings resolves every key and expands the result into nested maps.
func (s *Spice) AllSettings() (map[string]Value, error) {
	flat := make(map[string]Value)
	for _, k := range s.stack.AllKeys() {
		v, _, ok, err := s.stack.Resolve(k)
		if err != nil {
			return nil, err
		}
		if ok {
			flat[k] = v
		}
	}
	return expandKeys(flat), nil
}

// Sub returns a new Spice rooted at key. ok is false when key is absent or does not
// hold a map.
func (s *Spice) Sub(key string) (*Spice, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if v.kind != KindMap {
		return nil, false, nil
	}

	child := New(WithLogger(s.logger), WithTagName(s.tagName))
	layer := NewMapLayer("sub:"+normalizeKey(key), PriorityFile)
	flat := make(map[string]Value)
	flattenValues(v.m, "", flat)
	layer.SetAll(flat)
	child.AddLayer(layer)
	return child, true, nil
}

// SetEnvPrefix sets the prefix for the environment layer. An installed env layer is
// replaced, keeping its bindings.
func (s *Spice) SetEnvPrefix(prefix string) {
	s.mutex.Lock()
	s.envPrefix = prefix
	old := s.env
	if old != nil {
		s.env = old.withPrefix(prefix)
	}
	replacement := s.env
	s.mutex.Unlock()

	if old != nil {
		s.stack.removeWhere(func(e stackEntry) bool { return e.layer == Layer(old) })
		s.AddLayer(replacement)
	}
}

// AutomaticEnv installs the environment layer if it is not installed yet. With no
// prefix every environment variable becomes a key, visible to AllKeys, AllSettings
// and the writers.
func (s *Spice) AutomaticEnv() *EnvLayer {
	s.mutex.Lock()
	if s.env != nil {
		env := s.env
		s.mutex.Unlock()
		return env
	}
	env := NewEnvLayer(s.envPrefix)
	s.env = env
	s.mutex.Unlock()

	s.AddLayer(env)
	return env
}

// BindEnv maps key to an exact environment variable name, installing the env layer
// if needed.
func (s *Spice) BindEnv(key, varName string) error {
	key = normalizeKey(key)
	if err := validateKey(key); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if varName == "" {
		return fmt.Errorf("bind env: key %q: empty variable name", key)
	}
	s.AutomaticEnv().Bind(key, varName)
	return nil
}
