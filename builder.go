// File: lixenwraith/spice/builder.go
package spice

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ValidatorFunc validates a fully built Spice.
type ValidatorFunc func(s *Spice) error

// Builder provides a fluent interface for assembling a Spice from defaults, files,
// environment variables and command-line arguments.
type Builder struct {
	opts        []Option
	defaults    any
	prefix      string
	envPrefix   string
	useEnv      bool
	files       []string
	configName  string
	configPaths []string
	args        []string
	validators  []ValidatorFunc
}

// NewBuilder creates a builder that reads os.Args[1:] unless WithArgs overrides it.
func NewBuilder() *Builder {
	return &Builder{
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithDefaults sets defaults from a struct (via its tags) or a map[string]any.
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithPrefix sets the key prefix for struct defaults and for BuildAndUnmarshal.
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithEnvPrefix enables the environment layer with the given prefix.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	b.useEnv = true
	return b
}

// WithEnv enables the environment layer without a prefix.
func (b *Builder) WithEnv() *Builder {
	b.useEnv = true
	return b
}

// WithFile adds a configuration file. Later files take precedence over earlier ones.
func (b *Builder) WithFile(path string) *Builder {
	if path != "" {
		b.files = append(b.files, path)
	}
	return b
}

// WithConfigName enables discovery of a configuration file named name.
func (b *Builder) WithConfigName(name string) *Builder {
	b.configName = name
	return b
}

// WithConfigPaths adds directories searched during discovery.
func (b *Builder) WithConfigPaths(paths ...string) *Builder {
	b.configPaths = append(b.configPaths, paths...)
	return b
}

// WithArgs sets the command-line arguments. nil disables the args layer.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

func (b *Builder) WithTagName(tag string) *Builder {
	b.opts = append(b.opts, WithTagName(tag))
	return b
}

// WithValidator adds a validation function run after everything is loaded, in the
// order added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Spice. A missing configuration file is not fatal: the instance
// is returned together with an error wrapping ErrConfigNotFound.
func (b *Builder) Build() (*Spice, error) {
	s := New(b.opts...)

	switch d := b.defaults.(type) {
	case nil:
	case map[string]any:
		if err := s.SetDefaults(prefixKeys(b.prefix, d)); err != nil {
			return nil, fmt.Errorf("failed to register defaults: %w", err)
		}
	default:
		if err := s.SetDefaultsFromStruct(b.prefix, d); err != nil {
			return nil, fmt.Errorf("failed to register defaults: %w", err)
		}
	}

	var loadErrs []error

	if b.configName != "" {
		s.SetConfigName(b.configName)
		for _, p := range b.configPaths {
			s.AddConfigPath(p)
		}
		if err := s.ReadInConfig(); err != nil {
			if !errors.Is(err, ErrConfigNotFound) {
				return nil, err
			}
			loadErrs = append(loadErrs, err)
		}
	}

	for _, path := range b.files {
		if _, err := s.AddConfigFile(path); err != nil {
			if !errors.Is(err, ErrConfigNotFound) {
				return nil, err
			}
			loadErrs = append(loadErrs, err)
			continue
		}
		s.mutex.Lock()
		s.configFile = path
		s.mutex.Unlock()
	}

	if b.useEnv {
		s.SetEnvPrefix(b.envPrefix)
		s.AutomaticEnv()
	}

	if len(b.args) > 0 {
		if _, err := s.BindArgs(b.args); err != nil {
			return nil, err
		}
	}

	for _, validator := range b.validators {
		if err := validator(s); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return s, errors.Join(loadErrs...)
}

// MustBuild is like Build but panics on any error other than a missing config file.
func (b *Builder) MustBuild() *Spice {
	s, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("spice build failed: %v", err))
	}
	return s
}

// BuildAndUnmarshal builds and decodes the configuration under the builder prefix
// into target.
func (b *Builder) BuildAndUnmarshal(target any) (*Spice, error) {
	s, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	var decodeErr error
	if prefix := trimDelimiter(b.prefix); prefix == "" {
		decodeErr = s.Unmarshal(target)
	} else {
		decodeErr = s.UnmarshalKey(prefix, target)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode final config into target: %w", decodeErr)
	}

	return s, err
}

func prefixKeys(prefix string, values map[string]any) map[string]any {
	if prefix == "" {
		return values
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[joinKey(trimDelimiter(prefix), k)] = v
	}
	return out
}

func trimDelimiter(prefix string) string {
	return strings.TrimRight(prefix, KeyDelimiter)
}
