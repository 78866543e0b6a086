// FILE: lixenwraith/spice/builder_test.go
package spice

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type builderConfig struct {
	Server struct {
		Host    string        `toml:"host"`
		Port    int           `toml:"port"`
		Timeout time.Duration `toml:"timeout"`
	} `toml:"server"`
	Debug bool `toml:"debug"`
}

func builderDefaults() *builderConfig {
	cfg := &builderConfig{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Server.Timeout = 10 * time.Second
	return cfg
}

// TestBuilder tests the builder pattern
func TestBuilder(t *testing.T) {
	t.Run("BasicBuilder", func(t *testing.T) {
		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithArgs(nil).
			Build()
		require.NoError(t, err)

		host, ok, err := s.GetString("server.host")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "localhost", host)
		assert.Equal(t, 2, s.LayerCount())
	})

	t.Run("FullPrecedence", func(t *testing.T) {
		tmpDir := t.TempDir()
		low := writeFile(t, tmpDir, "base.toml", "[server]\nhost = \"file-host\"\nport = 7000\ntimeout = \"1m\"")
		high := writeFile(t, tmpDir, "override.yaml", "server:\n  port: 7100\n")
		t.Setenv("SPICEBUILD_SERVER_PORT", "7200")
		t.Setenv("SPICEBUILD_DEBUG", "true")

		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithFile(low).
			WithFile(high).
			WithEnvPrefix("SPICEBUILD_").
			WithArgs([]string{"--server.host=arg-host"}).
			Build()
		require.NoError(t, err)

		assert.Equal(t, []string{"args", "env:SPICEBUILD", "file:" + high, "file:" + low},
			layerNames(s.LayerInfo())[1:5])

		host, _, _ := s.GetString("server.host")
		assert.Equal(t, "arg-host", host)
		port, _, _ := s.GetInt64("server.port")
		assert.Equal(t, int64(7200), port)
		debug, _, _ := s.GetBool("debug")
		assert.True(t, debug)
		assert.Equal(t, high, s.ConfigFileUsed())

		t.Setenv("SPICEBUILD_SERVER_PORT", "")
		require.NoError(t, s.Set("server.port", 1))
		port, _, _ = s.GetInt64("server.port")
		assert.Equal(t, int64(1), port)
	})

	t.Run("LaterFileWins", func(t *testing.T) {
		tmpDir := t.TempDir()
		a := writeFile(t, tmpDir, "a.toml", `v = "a"`)
		b := writeFile(t, tmpDir, "b.json", `{"v": "b"}`)

		s, err := NewBuilder().WithFile(a).WithFile(b).WithArgs(nil).Build()
		require.NoError(t, err)
		v, _, _ := s.GetString("v")
		assert.Equal(t, "b", v)
	})

	t.Run("MissingFileIsSoft", func(t *testing.T) {
		s, err := NewBuilder().
			WithDefaults(map[string]any{"k": "v"}).
			WithFile(filepath.Join(t.TempDir(), "absent.toml")).
			WithArgs(nil).
			Build()
		require.NotNil(t, s)
		assert.ErrorIs(t, err, ErrConfigNotFound)
		v, _, _ := s.GetString("k")
		assert.Equal(t, "v", v)

		assert.NotPanics(t, func() {
			NewBuilder().WithFile("/nonexistent/spice.toml").WithArgs(nil).MustBuild()
		})
	})

	t.Run("BrokenFileIsFatal", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "broken.toml", "x = ")
		s, err := NewBuilder().WithFile(path).WithArgs(nil).Build()
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrParse)

		assert.Panics(t, func() {
			NewBuilder().WithFile(path).WithArgs(nil).MustBuild()
		})
	})

	t.Run("ConfigDiscovery", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "spicetest-builder.yaml", "server:\n  host: discovered\n")

		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithConfigName("spicetest-builder").
			WithConfigPaths(dir).
			WithArgs(nil).
			Build()
		require.NoError(t, err)
		host, _, _ := s.GetString("server.host")
		assert.Equal(t, "discovered", host)

		_, err = NewBuilder().WithConfigName("spicetest-absent").WithArgs(nil).Build()
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("MapDefaultsWithPrefix", func(t *testing.T) {
		s, err := NewBuilder().
			WithDefaults(map[string]any{"port": 1, "host": "h"}).
			WithPrefix("app.").
			WithArgs(nil).
			Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"app.host", "app.port"}, s.AllKeys())

		_, err = NewBuilder().WithDefaults(map[string]any{"bad..key": 1}).WithArgs(nil).Build()
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Validators", func(t *testing.T) {
		var order []string
		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithArgs(nil).
			WithValidator(func(s *Spice) error {
				order = append(order, "first")
				return nil
			}).
			WithValidator(nil).
			WithValidator(func(s *Spice) error {
				order = append(order, "second")
				port, _, err := s.GetInt64("server.port")
				if err != nil {
					return err
				}
				if port < 1024 {
					return fmt.Errorf("port %d is privileged", port)
				}
				return nil
			}).
			Build()
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.Equal(t, []string{"first", "second"}, order)

		sentinel := errors.New("rejected")
		_, err = NewBuilder().
			WithArgs([]string{"--server.port=80"}).
			WithValidator(func(*Spice) error { return sentinel }).
			Build()
		assert.ErrorIs(t, err, sentinel)
		assert.ErrorContains(t, err, "configuration validation failed")
	})

	t.Run("LoggerAndTagName", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		path := writeFile(t, t.TempDir(), "tagged.toml", `listen_addr = ":9000"`)

		var cfg struct {
			Listen string `json:"listen_addr"`
		}
		_, err := NewBuilder().
			WithLogger(zap.New(core)).
			WithTagName("json").
			WithFile(path).
			WithArgs(nil).
			BuildAndUnmarshal(&cfg)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Listen)
		assert.Equal(t, 1, logs.FilterMessage("config file loaded").Len())
	})
}

func TestBuildAndUnmarshal(t *testing.T) {
	t.Run("WholeConfig", func(t *testing.T) {
		var cfg builderConfig
		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithArgs([]string{"--server.timeout", "2m", "--debug"}).
			BuildAndUnmarshal(&cfg)
		require.NoError(t, err)
		require.NotNil(t, s)

		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 2*time.Minute, cfg.Server.Timeout)
		assert.True(t, cfg.Debug)
	})

	t.Run("Prefixed", func(t *testing.T) {
		var cfg builderConfig
		_, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithPrefix("myapp").
			WithArgs([]string{"--myapp.server.port=9999"}).
			BuildAndUnmarshal(&cfg)
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
	})

	t.Run("MissingFileStillDecodes", func(t *testing.T) {
		var cfg builderConfig
		s, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithFile(filepath.Join(t.TempDir(), "missing.toml")).
			WithArgs(nil).
			BuildAndUnmarshal(&cfg)
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, s)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("DecodeFailure", func(t *testing.T) {
		var cfg builderConfig
		_, err := NewBuilder().
			WithDefaults(builderDefaults()).
			WithArgs([]string{"--server.port=eighty"}).
			BuildAndUnmarshal(&cfg)
		assert.ErrorContains(t, err, "failed to decode final config")
	})
}
