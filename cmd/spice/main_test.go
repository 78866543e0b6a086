// FILE: lixenwraith/spice/cmd/spice/main_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(context.Background(), append([]string{"spice"}, args...))
	return buf.String(), err
}

func TestGet(t *testing.T) {
	out, err := run(t, "--set", "Server.Port=9090", "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "9090\n", out)

	_, err = run(t, "get", "missing.key")
	assert.ErrorContains(t, err, `key "missing.key" is not set`)

	_, err = run(t, "get")
	assert.ErrorContains(t, err, "missing KEY")

	_, err = run(t, "--set", "novalue", "get", "x")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  host: file-host\n  port: 5432\n"), 0644))
	t.Setenv("SPICECLI_DB_HOST", "env-host")

	out, err := run(t, "-c", path, "get", "db.port")
	require.NoError(t, err)
	assert.Equal(t, "5432\n", out)

	out, err = run(t, "--config", path, "--env-prefix", "SPICECLI", "get", "db.host")
	require.NoError(t, err)
	assert.Equal(t, "env-host\n", out)

	out, err = run(t, "--config", path, "--env-prefix", "SPICECLI", "keys")
	require.NoError(t, err)
	assert.Equal(t, "db.host\tenv:SPICECLI\ndb.port\tfile:"+path+"\n", out)

	_, err = run(t, "--config", filepath.Join(dir, "missing.toml"), "keys")
	assert.Error(t, err)
}

func TestConfigName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spicecli-test.toml"), []byte(`name = "found"`), 0644))
	t.Chdir(dir)

	out, err := run(t, "--config-name", "spicecli-test", "get", "name")
	require.NoError(t, err)
	assert.Equal(t, "found\n", out)

	_, err = run(t, "--config-name", "spicecli-absent", "layers")
	assert.NoError(t, err, "a missing discovered file is not an error")
}

func TestLayers(t *testing.T) {
	out, err := run(t, "layers")
	require.NoError(t, err)
	assert.Equal(t, "explicit\texplicit\ndefaults\tdefaults\n", out)
}

func TestDump(t *testing.T) {
	out, err := run(t, "--set", "a.b=1", "--set", "a.c=two", "dump", "--format", "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "1", "c": "two"}}, decoded)

	out, err = run(t, "--set", "a.b=1", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "[a]")

	_, err = run(t, "dump", "--format", "ini")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "chatty", "layers")
	assert.ErrorContains(t, err, "parse log level")
}
