// FILE: lixenwraith/spice/loader.go
package spice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SupportedExtensions lists the file extensions tried during discovery, in order.
var SupportedExtensions = []string{".toml", ".json", ".yaml", ".yml"}

// FileOption configures a FileLayer.
type FileOption func(*FileLayer)

// WithFormat forces the file format instead of detecting it.
func WithFormat(format string) FileOption {
	return func(l *FileLayer) {
		l.format = strings.ToLower(format)
	}
}

// WithFilePriority overrides PriorityFile.
func WithFilePriority(p Priority) FileOption {
	return func(l *FileLayer) {
		l.priority = p
	}
}

// WithMaxFileSize rejects files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) FileOption {
	return func(l *FileLayer) {
		l.maxSize = n
	}
}

// FileLayer serves the contents of a TOML, JSON or YAML file. Nested tables are
// flattened to dot-notation leaf keys; lists stay whole.
type FileLayer struct {
	path     string
	format   string
	priority Priority
	maxSize  int64
	values   map[string]Value
	mutex    sync.RWMutex
}

// NewFileLayer reads and parses path. A missing file yields an error wrapping ErrConfigNotFound.
func NewFileLayer(path string, opts ...FileOption) (*FileLayer, error) {
	l := &FileLayer{
		path:     path,
		priority: PriorityFile,
		values:   make(map[string]Value),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLayer) Name() string { return "file:" + l.path }

func (l *FileLayer) Priority() Priority { return l.priority }

func (l *FileLayer) Path() string { return l.path }

// Format returns the explicit format, or the one detected by the last load.
func (l *FileLayer) Format() string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.format
}

func (l *FileLayer) Get(key string) (Value, bool, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	v, ok := l.values[key]
	return v, ok, nil
}

func (l *FileLayer) Keys() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reload re-reads the file. On failure the previous contents are kept.
func (l *FileLayer) Reload() error {
	data, err := readConfigFile(l.path, l.maxSize)
	if err != nil {
		return err
	}

	l.mutex.RLock()
	format := l.format
	l.mutex.RUnlock()

	if format == "" || format == "auto" {
		format = detectFileFormat(l.path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}

	parsed, err := parseConfig(data, format)
	if err != nil {
		return fmt.Errorf("config file '%s': %w", l.path, err)
	}
	flat, err := flattenMap(parsed, "")
	if err != nil {
		return fmt.Errorf("%w: config file '%s': %w", ErrParse, l.path, err)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.format = format
	l.values = flat
	return nil
}

func readConfigFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path '%s' is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, maxSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxSize > 0 {
		reader = io.LimitReader(file, maxSize)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return data, nil
}

// parseConfig decodes a document into a nested map.
func parseConfig(data []byte, format string) (map[string]any, error) {
	parsed := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("%w: toml: %w", ErrParse, err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // preserve integer precision
		if err := decoder.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("%w: yaml: %w", ErrParse, err)
		}
		if parsed == nil {
			parsed = make(map[string]any)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return parsed, nil
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// detectFormatFromContent attempts to detect format by parsing. YAML only counts
// when the document is a mapping, since almost any text is a valid YAML scalar.
func detectFormatFromContent(data []byte) string {
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return ""
}
