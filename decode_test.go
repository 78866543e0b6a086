// FILE: lixenwraith/spice/decode_test.go
package spice

import (
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Server struct {
		Host    string        `toml:"host"`
		Port    int           `toml:"port"`
		Timeout time.Duration `toml:"timeout"`
	} `toml:"server"`
	Network struct {
		IP      net.IP     `toml:"ip"`
		Subnet  *net.IPNet `toml:"subnet"`
		Webhook *url.URL   `toml:"webhook"`
	} `toml:"network"`
	Tags      []string       `toml:"tags"`
	Peers     []string       `toml:"peers"`
	StartedAt time.Time      `toml:"started_at"`
	Limits    map[string]int `toml:"limits"`
	Debug     bool           `toml:"debug"`
}

// TestUnmarshal tests decoding the merged configuration into structs
func TestUnmarshal(t *testing.T) {
	s := New()
	require.NoError(t, s.SetDefaults(map[string]any{
		"server.host":     "localhost",
		"server.port":     8080,
		"server.timeout":  "30s",
		"network.ip":      "192.168.1.10",
		"network.subnet":  "10.0.0.0/8",
		"network.webhook": "https://example.com/hook",
		"tags":            []string{"a", "b"},
		"peers":           "p1,p2,p3",
		"started_at":      "2024-01-02T03:04:05Z",
		"limits.read":     10,
		"limits.write":    5,
	}))
	t.Setenv("SPICEDECODE_SERVER_PORT", "9090")
	t.Setenv("SPICEDECODE_DEBUG", "true")
	s.SetEnvPrefix("SPICEDECODE")
	s.AutomaticEnv()

	var cfg decodeTarget
	require.NoError(t, s.Unmarshal(&cfg))

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port, "environment strings are weakly typed")
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "192.168.1.10", cfg.Network.IP.String())
	require.NotNil(t, cfg.Network.Subnet)
	assert.Equal(t, "10.0.0.0/8", cfg.Network.Subnet.String())
	require.NotNil(t, cfg.Network.Webhook)
	assert.Equal(t, "example.com", cfg.Network.Webhook.Host)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.Equal(t, []string{"p1", "p2", "p3"}, cfg.Peers)
	assert.True(t, cfg.StartedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, map[string]int{"read": 10, "write": 5}, cfg.Limits)
	assert.True(t, cfg.Debug)
}

func TestUnmarshalKey(t *testing.T) {
	s := New()
	require.NoError(t, s.SetDefaults(map[string]any{
		"database.host": "db",
		"database.port": 5432,
	}))

	type Database struct {
		Host string `toml:"host"`
		Port int64  `toml:"port"`
	}

	var db Database
	require.NoError(t, s.UnmarshalKey("Database", &db))
	assert.Equal(t, Database{Host: "db", Port: 5432}, db)

	var missing Database
	require.NoError(t, s.UnmarshalKey("nothing", &missing))
	assert.Zero(t, missing)

	var port int
	require.NoError(t, s.UnmarshalKey("database.port", &port))
	assert.Equal(t, 5432, port)
}

func TestUnmarshalErrors(t *testing.T) {
	s := New()
	require.NoError(t, s.SetDefault("network.ip", "not-an-ip"))

	var cfg decodeTarget
	err := s.Unmarshal(cfg)
	assert.ErrorContains(t, err, "non-nil pointer")

	err = s.Unmarshal(&cfg)
	assert.ErrorContains(t, err, "invalid IP address")

	var n int
	err = s.UnmarshalKey("network", &n)
	assert.ErrorContains(t, err, `key "network"`)

	require.NoError(t, s.SetDefault("network.ip", strings.Repeat("1", 46)))
	err = s.Unmarshal(&cfg)
	assert.ErrorContains(t, err, "length 46 exceeds 45")
}

func TestUnmarshalParsedStrings(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("ip", "192.168.1.10"))
	require.NoError(t, s.Set("cidr", "10.0.0.0/8"))
	require.NoError(t, s.Set("endpoint", "https://api.example.com/v1"))

	var cfg struct {
		IP       *net.IP   `toml:"ip"`
		CIDR     net.IPNet `toml:"cidr"`
		Endpoint url.URL   `toml:"endpoint"`
	}
	require.NoError(t, s.Unmarshal(&cfg))

	require.NotNil(t, cfg.IP)
	assert.Equal(t, "192.168.1.10", cfg.IP.String())
	assert.Equal(t, "10.0.0.0/8", cfg.CIDR.String())
	assert.Equal(t, "api.example.com", cfg.Endpoint.Host)
	assert.Equal(t, "/v1", cfg.Endpoint.Path)

	require.NoError(t, s.Set("cidr", "10.0.0.0/33"))
	err := s.Unmarshal(&cfg)
	assert.ErrorContains(t, err, `invalid CIDR "10.0.0.0/33"`)
}

func TestUnmarshalCustomTag(t *testing.T) {
	s := New(WithTagName("json"))
	require.NoError(t, s.SetDefault("listen_addr", ":8080"))

	var cfg struct {
		Listen string `json:"listen_addr"`
	}
	require.NoError(t, s.Unmarshal(&cfg))
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestSetDefaultsFromStruct(t *testing.T) {
	type TLS struct {
		Cert string `toml:"cert"`
	}
	type Config struct {
		Host     string            `toml:"host"`
		Port     int               `toml:"port,omitempty"`
		Timeout  time.Duration     `toml:"timeout"`
		Since    time.Time         `toml:"since"`
		Endpoint url.URL           `toml:"endpoint"`
		TLS      TLS               `toml:"tls"`
		Optional *TLS              `toml:"optional"`
		Skipped  string            `toml:"-"`
		Untagged bool
		Labels   map[string]string `toml:"labels"`
		Peers    []string          `toml:"peers"`
		hidden   string
	}

	defaults := Config{
		Host:     "localhost",
		Port:     8080,
		Timeout:  5 * time.Second,
		Since:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Endpoint: url.URL{Scheme: "https", Host: "api.example.com"},
		TLS:      TLS{Cert: "/etc/cert.pem"},
		Skipped:  "nope",
		Untagged: true,
		Labels:   map[string]string{"Team": "core"},
		hidden:   "secret",
	}

	s := New()
	require.NoError(t, s.SetDefaultsFromStruct("app.", &defaults))

	assert.Equal(t, []string{
		"app.endpoint",
		"app.host",
		"app.labels",
		"app.port",
		"app.since",
		"app.timeout",
		"app.tls.cert",
		"app.untagged",
	}, s.AllKeys())

	timeout, _, _ := s.GetString("app.timeout")
	assert.Equal(t, "5s", timeout)
	since, _, _ := s.GetString("app.since")
	assert.Equal(t, "2024-06-01T00:00:00Z", since)
	endpoint, _, _ := s.GetString("app.endpoint")
	assert.Equal(t, "https://api.example.com", endpoint)
	team, _, _ := s.GetString("app.labels.team")
	assert.Equal(t, "core", team)

	var back Config
	require.NoError(t, s.UnmarshalKey("app", &back))
	assert.Equal(t, defaults.Timeout, back.Timeout)
	assert.True(t, defaults.Since.Equal(back.Since))
	assert.Equal(t, "api.example.com", back.Endpoint.Host)

	t.Run("RejectsNonStruct", func(t *testing.T) {
		assert.Error(t, s.SetDefaultsFromStruct("", 42))
		var nilCfg *Config
		assert.Error(t, s.SetDefaultsFromStruct("", nilCfg))
	})

	t.Run("UnsupportedFieldAbortsAll", func(t *testing.T) {
		fresh := New()
		err := fresh.SetDefaultsFromStruct("", struct {
			Name string       `toml:"name"`
			Fn   func() error `toml:"fn"`
		}{Name: "x", Fn: func() error { return nil }})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field Fn")
		assert.Empty(t, fresh.AllKeys())
	})
}
