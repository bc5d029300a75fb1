// Package config provides configuration management for the LeapLine CLI.
//
// Configuration is layered with koanf: defaults, then leapline.yaml, then
// LEAPLINE_ environment variables, then explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapline/internal/connector"
	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Source kinds.
const (
	SourceDemo     = "demo"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceState    = "state"
	SourcePostgres = "postgres"
	SourceDuckDB   = "duckdb"
)

// Default configuration values.
const (
	DefaultStateFile       = ".leapline/state.db"
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultSourceKind      = SourceDemo
	DefaultSourceTimeout   = 10 * time.Second
	DefaultArtifactsSchema = "dbt_artifacts"
	DefaultPort            = 8765
	DefaultViewportWidth   = 1400
)

// Config holds all CLI configuration options.
type Config struct {
	Source       SourceConfig       `koanf:"source"`
	StatePath    string             `koanf:"state_path"`
	Verbose      bool               `koanf:"verbose"`
	OutputFormat string             `koanf:"output"`
	Layout       layout.Config      `koanf:"layout"`
	Viewport     ViewportConfig     `koanf:"viewport"`
	Performance  PerformanceConfig  `koanf:"performance"`
	CriticalPath CriticalPathConfig `koanf:"critical_path"`
	UI           *UIConfig          `koanf:"ui"`

	// ProjectRoot is the directory the config file was found in (or the CWD).
	ProjectRoot string `koanf:"-"`
}

// SourceConfig selects where execution history is loaded from.
type SourceConfig struct {
	// Kind is one of demo, file, http, state, postgres, duckdb
	Kind string `koanf:"kind"`
	// Path is the dataset file for the file source, or the DuckDB database path
	Path string `koanf:"path"`
	// URL is the base URL of a timeline backend for the http source
	URL string `koanf:"url"`
	// DSN is the Postgres connection string for the postgres source
	DSN string `koanf:"dsn"`
	// Schema holds the dbt_artifacts models in the warehouse
	Schema string `koanf:"schema"`
	// Project and Date select a per-day timeline for the http and state sources
	Project string `koanf:"project"`
	Date    string `koanf:"date"`
	// Timeout bounds one load
	Timeout time.Duration `koanf:"timeout"`
	// Fallback substitutes the embedded demo dataset when a load fails or is empty
	Fallback bool `koanf:"fallback"`
}

// ViewportConfig is the drawing surface geometry.
type ViewportConfig struct {
	Width            float64 `koanf:"width"`
	connector.Config `koanf:",squash"`
}

// PerformanceConfig holds the classification thresholds in seconds.
type PerformanceConfig struct {
	SlowThreshold     float64 `koanf:"slow_threshold"`
	CriticalThreshold float64 `koanf:"critical_threshold"`
	FastRatio         float64 `koanf:"fast_ratio"`
}

// CriticalPathConfig configures critical path detection.
type CriticalPathConfig struct {
	// Tolerance is in seconds; 0 requires exact ties.
	Tolerance float64 `koanf:"tolerance"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int      `koanf:"port"`
	Watch         bool     `koanf:"watch"`
	SessionSecret string   `koanf:"session_secret"`
	Origins       []string `koanf:"origins"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:  DefaultPort,
		Watch: true,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	return ui
}

// EngineConfig converts the loaded configuration into engine settings.
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Layout = c.Layout
	cfg.Connector = c.Viewport.Config
	cfg.Thresholds = core.Thresholds{
		Slow:      c.Performance.SlowThreshold,
		Critical:  c.Performance.CriticalThreshold,
		FastRatio: c.Performance.FastRatio,
	}
	cfg.Tolerance = c.CriticalPath.Tolerance
	cfg.Viewport = connector.FixedViewport(c.Viewport.Width)
	return cfg
}
