// File: lixenwraith/spice/convenience.go
package spice

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Quick creates a Spice from struct or map defaults, an environment prefix and an
// optional configuration file, reading os.Args[1:] as overrides.
// Precedence: args > env > file > defaults.
func Quick(defaults any, envPrefix, configFile string) (*Spice, error) {
	return NewBuilder().
		WithDefaults(defaults).
		WithEnvPrefix(envPrefix).
		WithFile(configFile).
		Build()
}

// MustQuick is like Quick but panics on any error other than a missing config file.
func MustQuick(defaults any, envPrefix, configFile string) *Spice {
	s, err := Quick(defaults, envPrefix, configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("spice initialization failed: %v", err))
	}
	return s
}

// Validate checks that every required key is answered by a layer other than defaults.
func (s *Spice) Validate(required ...string) error {
	var missing []string
	for _, key := range required {
		origin, ok, err := s.Origin(key)
		if err != nil {
			return fmt.Errorf("validate %q: %w", key, err)
		}
		if !ok || origin == defaultsLayerName {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Debug returns a report of the layers and of every key with its value and origin.
func (s *Spice) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	b.WriteString("Layers (highest first):\n")
	for _, info := range s.LayerInfo() {
		fmt.Fprintf(&b, "  %s (%s)\n", info.Name, info.Priority)
	}
	b.WriteString("Current values:\n")
	for _, key := range s.AllKeys() {
		v, origin, ok, err := s.stack.Resolve(key)
		switch {
		case err != nil:
			fmt.Fprintf(&b, "  %s: error: %v\n", key, err)
		case ok:
			fmt.Fprintf(&b, "  %s = %s [%s]\n", key, v.describe(), origin)
		}
	}
	return b.String()
}

// Dump writes the merged configuration to w in TOML format. A nil writer means stdout.
func (s *Spice) Dump(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	return s.Encode(w, FormatTOML)
}
