// File: lixenwraith/spice/env.go
package spice

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// EnvTransformFunc converts a configuration key to an environment variable name.
type EnvTransformFunc func(key string) string

// EnvOption configures an EnvLayer.
type EnvOption func(*EnvLayer)

// WithEnvTransform replaces the default naming rule. Keys then only enumerates bound keys.
func WithEnvTransform(fn EnvTransformFunc) EnvOption {
	return func(l *EnvLayer) {
		l.transform = fn
	}
}

// WithEnvBinding maps a key to an exact variable name, bypassing prefix and transform.
func WithEnvBinding(key, varName string) EnvOption {
	return func(l *EnvLayer) {
		l.bindings[normalizeKey(key)] = varName
	}
}

// EnvLayer answers keys from the process environment. Variable names are
// [PREFIX_]SEG1_SEG2, upper-cased. Every lookup reads the environment again.
type EnvLayer struct {
	prefix    string
	transform EnvTransformFunc
	bindings  map[string]string
	mutex     sync.RWMutex
}

// NewEnvLayer creates an environment layer. A trailing underscore on prefix is optional.
func NewEnvLayer(prefix string, opts ...EnvOption) *EnvLayer {
	l := &EnvLayer{
		prefix:   normalizeEnvPrefix(prefix),
		bindings: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// normalizeEnvPrefix returns "" or an upper-case prefix ending in exactly one underscore.
func normalizeEnvPrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "_")
	if prefix == "" {
		return ""
	}
	return strings.ToUpper(prefix) + "_"
}

// defaultEnvTransform creates the default environment variable transformer.
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(key string) string {
		env := strings.ReplaceAll(key, KeyDelimiter, "_")
		env = strings.ToUpper(env)
		return prefix + env
	}
}

func (l *EnvLayer) Name() string {
	if l.prefix == "" {
		return "env"
	}
	return "env:" + strings.TrimSuffix(l.prefix, "_")
}

func (l *EnvLayer) Priority() Priority { return PriorityEnv }

// Prefix returns the normalized prefix including its trailing underscore.
func (l *EnvLayer) Prefix() string { return l.prefix }

// Bind maps a key to an exact variable name.
func (l *EnvLayer) Bind(key, varName string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.bindings[normalizeKey(key)] = varName
}

// VarName returns the environment variable consulted for key.
func (l *EnvLayer) VarName(key string) string {
	l.mutex.RLock()
	bound, ok := l.bindings[key]
	l.mutex.RUnlock()
	if ok {
		return bound
	}
	if l.transform != nil {
		return l.transform(key)
	}
	return defaultEnvTransform(l.prefix)(key)
}

func (l *EnvLayer) Get(key string) (Value, bool, error) {
	if key == "" {
		return Value{}, false, nil
	}
	value, ok := os.LookupEnv(l.VarName(key))
	if !ok {
		return Value{}, false, nil
	}
	return String(value), true, nil
}

// Keys lists keys whose variable is present: bound keys, plus, under the default
// naming rule, every prefixed variable that maps back onto itself.
func (l *EnvLayer) Keys() []string {
	seen := make(map[string]bool)

	l.mutex.RLock()
	for key, varName := range l.bindings {
		if _, ok := os.LookupEnv(varName); ok {
			seen[key] = true
		}
	}
	l.mutex.RUnlock()

	if l.transform == nil {
		for _, entry := range os.Environ() {
			name, _, _ := strings.Cut(entry, "=")
			key, ok := l.keyForVar(name)
			if ok {
				seen[key] = true
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyForVar reverses the default naming rule and checks the round trip.
func (l *EnvLayer) keyForVar(name string) (string, bool) {
	if !strings.HasPrefix(name, l.prefix) {
		return "", false
	}
	key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, l.prefix), "_", KeyDelimiter))
	if validateKey(key) != nil {
		return "", false
	}
	if l.VarName(key) != name {
		return "", false
	}
	return key, true
}

// withPrefix returns a copy of the layer using a different prefix.
func (l *EnvLayer) withPrefix(prefix string) *EnvLayer {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	n := &EnvLayer{
		prefix:    normalizeEnvPrefix(prefix),
		transform: l.transform,
		bindings:  make(map[string]string, len(l.bindings)),
	}
	for k, v := range l.bindings {
		n.bindings[k] = v
	}
	return n
}
