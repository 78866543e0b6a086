// FILE: lixenwraith/spice/discovery.go
package spice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SetConfigName sets the base name (without extension) used by FindConfigFile.
func (s *Spice) SetConfigName(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.configName = name
}

func (s *Spice) ConfigName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.configName
}

// AddConfigPath adds a directory to search, ahead of the standard locations.
// Paths added first are searched first.
func (s *Spice) AddConfigPath(dir string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.configPaths = append(s.configPaths, dir)
}

// SetConfigFile pins the configuration file, bypassing the search.
func (s *Spice) SetConfigFile(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.configFile = path
}

// ConfigFileUsed returns the pinned or last loaded configuration file.
func (s *Spice) ConfigFileUsed() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.configFile
}

// searchPaths lists directories in search order: added paths, the working
// directory, XDG config directories, $HOME, /etc and /usr/local/etc.
func (s *Spice) searchPaths() []string {
	s.mutex.RLock()
	name := s.configName
	paths := append([]string(nil), s.configPaths...)
	s.mutex.RUnlock()

	paths = append(paths, ".")
	paths = append(paths, getXDGConfigPaths(name)...)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	paths = append(paths, "/etc", "/usr/local/etc")

	seen := make(map[string]bool, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		unique = append(unique, clean)
	}
	return unique
}

// candidates returns existing config files in search order.
func (s *Spice) candidates(firstOnly bool) ([]string, error) {
	name := s.ConfigName()
	if name == "" {
		return nil, fmt.Errorf("%w: no config name set", ErrConfigNotFound)
	}

	var found []string
	for _, dir := range s.searchPaths() {
		for _, ext := range SupportedExtensions {
			path := filepath.Join(dir, name+ext)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			found = append(found, path)
			if firstOnly {
				return found, nil
			}
		}
	}
	return found, nil
}

// FindConfigFile returns the pinned file if it exists, otherwise the first match
// for the config name across the search paths.
func (s *Spice) FindConfigFile() (string, error) {
	if pinned := s.ConfigFileUsed(); pinned != "" {
		if _, err := os.Stat(pinned); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrConfigNotFound, pinned)
			}
			return "", fmt.Errorf("failed to stat config file '%s': %w", pinned, err)
		}
		return pinned, nil
	}

	found, err := s.candidates(true)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, s.ConfigName())
	}
	return found[0], nil
}

// FindAllConfigFiles returns every match for the config name, in search order.
func (s *Spice) FindAllConfigFiles() ([]string, error) {
	return s.candidates(false)
}

// AddConfigFile loads path as a file layer and adds it.
func (s *Spice) AddConfigFile(path string, opts ...FileOption) (*FileLayer, error) {
	layer, err := NewFileLayer(path, opts...)
	if err != nil {
		return nil, err
	}
	s.AddLayer(layer)
	s.logger.Debug("config file loaded",
		zap.String("path", path),
		zap.String("format", layer.Format()),
		zap.Int("keys", len(layer.Keys())))
	return layer, nil
}

// ReadInConfig finds the configuration file and loads it, replacing a file loaded
// by an earlier ReadInConfig call.
func (s *Spice) ReadInConfig() error {
	path, err := s.FindConfigFile()
	if err != nil {
		return err
	}

	s.mutex.RLock()
	previous := s.configFile
	s.mutex.RUnlock()
	if previous != "" {
		s.stack.removeWhere(func(e stackEntry) bool {
			fl, ok := e.layer.(*FileLayer)
			return ok && fl.Path() == previous
		})
	}

	if _, err := s.AddConfigFile(path); err != nil {
		return err
	}

	s.mutex.Lock()
	s.configFile = path
	s.mutex.Unlock()
	return nil
}

// MergeInConfig loads every config file found that is not loaded yet and returns
// how many were added. Files earlier in the search order take precedence.
func (s *Spice) MergeInConfig() (int, error) {
	found, err := s.FindAllConfigFiles()
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrConfigNotFound, s.ConfigName())
	}

	loaded := make(map[string]bool)
	for _, l := range s.stack.Layers() {
		if fl, ok := l.(*FileLayer); ok {
			loaded[fl.Path()] = true
		}
	}

	added := 0
	var errs []error
	// equal priorities favor the later-added layer, so add in reverse search order
	for i := len(found) - 1; i >= 0; i-- {
		if loaded[found[i]] {
			continue
		}
		if _, err := s.AddConfigFile(found[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}

	s.mutex.Lock()
	if s.configFile == "" {
		s.configFile = found[0]
	}
	s.mutex.Unlock()

	return added, errors.Join(errs...)
}

// getXDGConfigPaths returns XDG-compliant config search paths.
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}

	return paths
}
