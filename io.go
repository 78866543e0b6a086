// File: lixenwraith/spice/io.go
package spice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// WriteConfig writes the merged configuration to the file set by SetConfigFile or
// loaded by ReadInConfig.
func (s *Spice) WriteConfig() error {
	s.mutex.RLock()
	path := s.configFile
	s.mutex.RUnlock()

	if path == "" {
		return fmt.Errorf("write config: %w: no config file set", ErrConfigNotFound)
	}
	return s.WriteConfigAs(path)
}

// WriteConfigAs writes the merged configuration to path atomically. The format
// follows the file extension. Every resolvable key is written, including keys only
// the environment layer answers; without an env prefix that is the whole process
// environment, so set one before writing.
func (s *Spice) WriteConfigAs(path string) error {
	format := detectFileFormat(path)
	if format == "" {
		return fmt.Errorf("write config '%s': %w: unknown extension %q", path, ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := s.encodeSettings(format)
	if err != nil {
		return fmt.Errorf("write config '%s': %w", path, err)
	}
	if err := atomicWriteFile(path, data); err != nil {
		return err
	}
	s.logger.Debug("config written", zap.String("path", path), zap.String("format", format))
	return nil
}

// SafeWriteConfig is WriteConfig that refuses to overwrite an existing file.
func (s *Spice) SafeWriteConfig() error {
	s.mutex.RLock()
	path := s.configFile
	s.mutex.RUnlock()

	if path == "" {
		return fmt.Errorf("write config: %w: no config file set", ErrConfigNotFound)
	}
	return s.SafeWriteConfigAs(path)
}

// SafeWriteConfigAs is WriteConfigAs that fails with ErrConfigExists when path exists.
func (s *Spice) SafeWriteConfigAs(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("write config: %w: %s", ErrConfigExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("write config: failed to stat '%s': %w", path, err)
	}
	return s.WriteConfigAs(path)
}

// Encode writes the merged configuration to w as toml, json or yaml. Environment
// keys are included as in WriteConfigAs.
func (s *Spice) Encode(w io.Writer, format string) error {
	data, err := s.encodeSettings(strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// encodeSettings renders AllSettings in the given format.
func (s *Spice) encodeSettings(format string) ([]byte, error) {
	settings, err := s.AllSettings()
	if err != nil {
		return nil, err
	}
	return encodeConfig(nativeMap(settings), format)
}

func nativeMap(values map[string]Value) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v.Interface()
	}
	return out
}

func encodeConfig(data map[string]any, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(data); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to TOML: %w", err)
		}
	case FormatJSON:
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to JSON: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}

// atomicWriteFile writes to a temporary file in the target directory and renames it
// into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // no-op after a successful rename

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
