// FILE: lixenwraith/spice/errors.go
package spice

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when a key path is empty or malformed on write.
	ErrInvalidKey = errors.New("invalid key")
	// ErrTypeMismatch is returned when a stored value cannot be represented as the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrLayer matches any *LayerError via errors.Is.
	ErrLayer = errors.New("layer error")
	// ErrConfigNotFound is returned when no configuration file could be located.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrConfigExists is returned by SafeWriteConfigAs when the target file already exists.
	ErrConfigExists = errors.New("configuration file already exists")
	// ErrUnsupportedFormat is returned for file formats other than toml, json and yaml.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	// ErrParse wraps decoder failures for configuration files.
	ErrParse = errors.New("configuration parse error")
)

// LayerError reports a layer that failed to answer a lookup.
type LayerError struct {
	Layer string
	Key   string
	Err   error
}

func (e *LayerError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("layer %q: %v", e.Layer, e.Err)
	}
	return fmt.Sprintf("layer %q: key %q: %v", e.Layer, e.Key, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// Is reports ErrLayer as a match so callers need not type-assert.
func (e *LayerError) Is(target error) bool {
	return target == ErrLayer
}

func invalidKeyError(key, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidKey, key, reason)
}

func mismatchError(v Value, target string) error {
	return fmt.Errorf("%w: cannot convert %s %s to %s", ErrTypeMismatch, v.kind, v.describe(), target)
}
