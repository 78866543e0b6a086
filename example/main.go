// FILE: lixenwraith/spice/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/spice"
)

// AppConfig is decoded from the merged configuration.
type AppConfig struct {
	Server struct {
		Host     string        `toml:"host"`
		Port     int64         `toml:"port"`
		LogLevel string        `toml:"log_level"`
		Timeout  time.Duration `toml:"timeout"`
	} `toml:"server"`
	FeatureFlags map[string]bool `toml:"feature_flags"`
}

const fileContents = `
[server]
host = "0.0.0.0"
log_level = "debug"

[feature_flags]
enable_metrics = true
`

func main() {
	dir, err := os.MkdirTemp("", "spice-example")
	if err != nil {
		log.Fatalf("❌ temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	configPath := filepath.Join(dir, "app.toml")
	if err := os.WriteFile(configPath, []byte(fileContents), 0644); err != nil {
		log.Fatalf("❌ write config: %v", err)
	}

	defaults := &AppConfig{}
	defaults.Server.Host = "localhost"
	defaults.Server.Port = 8080
	defaults.Server.LogLevel = "info"
	defaults.Server.Timeout = 30 * time.Second

	os.Setenv("APP_SERVER_PORT", "8888")
	defer os.Unsetenv("APP_SERVER_PORT")

	log.Println("➡️  Building layered configuration (args > env > file > defaults)...")
	cfg, err := spice.NewBuilder().
		WithDefaults(defaults).
		WithFile(configPath).
		WithEnvPrefix("APP").
		WithArgs([]string{"--server.log_level=warn"}).
		WithValidator(func(s *spice.Spice) error {
			port, _, err := s.GetInt64("server.port")
			if err != nil {
				return err
			}
			if port < 1024 || port > 65535 {
				return fmt.Errorf("port %d is outside the range 1024-65535", port)
			}
			return nil
		}).
		Build()
	if err != nil {
		log.Fatalf("❌ build: %v", err)
	}

	for _, info := range cfg.LayerInfo() {
		log.Printf("   layer %-28s priority %s", info.Name, info.Priority)
	}

	for _, key := range []string{"server.host", "server.port", "server.log_level", "server.timeout"} {
		v, _, _ := cfg.Get(key)
		origin, _, _ := cfg.Origin(key)
		log.Printf("   %-18s = %-10s (from %s)", key, v, origin)
	}

	log.Println("➡️  Explicit values shadow every other layer...")
	if err := cfg.Set("server.port", 9090); err != nil {
		log.Fatalf("❌ set: %v", err)
	}

	var app AppConfig
	if err := cfg.Unmarshal(&app); err != nil {
		log.Fatalf("❌ unmarshal: %v", err)
	}
	log.Printf("✅ %s:%d log=%s timeout=%s metrics=%t",
		app.Server.Host, app.Server.Port, app.Server.LogLevel, app.Server.Timeout, app.FeatureFlags["enable_metrics"])

	log.Println("➡️  Writing merged configuration as YAML...")
	out := filepath.Join(dir, "merged.yaml")
	if err := cfg.WriteConfigAs(out); err != nil {
		log.Fatalf("❌ write: %v", err)
	}
	data, _ := os.ReadFile(out)
	fmt.Println(string(data))
}
