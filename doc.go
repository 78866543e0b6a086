// File: lixenwraith/spice/doc.go

// Package spice resolves configuration values from an ordered stack of layers.
//
// Every value lives under a dotted, case-insensitive key such as "database.port".
// Layers answer exact-key lookups; the stack asks them from the highest priority
// down and the first answer wins. A Spice always carries two in-memory layers:
// explicit values (Set) at the top and defaults (SetDefault) at the bottom.
//
// Default Precedence (highest to lowest):
//  1. Explicit values (Set)
//  2. Command-line flags (--database.port=5432, BindFlags)
//  3. Environment variables (MYAPP_DATABASE_PORT=5432)
//  4. Configuration files (toml, json, yaml)
//  5. Default values
//
// Layers with equal priority are resolved most-recently-added first.
//
// Quick Start:
//
//	type Config struct {
//	    Server struct {
//	        Host string `toml:"host"`
//	        Port int    `toml:"port"`
//	    } `toml:"server"`
//	}
//
//	defaults := Config{}
//	defaults.Server.Host = "localhost"
//	defaults.Server.Port = 8080
//
//	s, err := spice.Quick(defaults, "MYAPP", "config.toml")
//	if err != nil && !errors.Is(err, spice.ErrConfigNotFound) {
//	    log.Fatal(err)
//	}
//
//	host, _, _ := s.GetString("server.host")
//	port, _, err := s.GetInt64("server.port")
//
// Values are a small tagged union (string, integer, float, boolean, list, map).
// The typed getters coerce between kinds where the conversion is lossless and
// report ErrTypeMismatch otherwise; a missing key is reported through the ok
// result, never as an error.
//
// Custom layers implement the Layer interface and are installed with AddLayer:
//
//	s.AddLayer(myVaultLayer) // Priority() decides where it sits
//
// Thread Safety:
// All operations are safe for concurrent use. The stack never holds its own lock
// while a layer is being queried.
package spice
