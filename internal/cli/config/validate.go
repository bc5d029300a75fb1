package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapline/internal/window"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceDemo, SourceState:
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for the file source"))
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			errs = append(errs, errors.New("source.url is required for the http source"))
		}
	case SourcePostgres:
		if c.Source.DSN == "" {
			errs = append(errs, errors.New("source.dsn is required for the postgres source"))
		}
	case SourceDuckDB:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for the duckdb source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q (want demo, file, http, state, postgres or duckdb)", c.Source.Kind))
	}

	if c.Source.Timeout < 0 {
		errs = append(errs, errors.New("source.timeout must not be negative"))
	}
	if c.CriticalPath.Tolerance < 0 {
		errs = append(errs, errors.New("critical_path.tolerance must not be negative"))
	}
	if c.Performance.CriticalThreshold < c.Performance.SlowThreshold {
		errs = append(errs, fmt.Errorf("performance.critical_threshold (%g) must be at least slow_threshold (%g)",
			c.Performance.CriticalThreshold, c.Performance.SlowThreshold))
	}
	if c.Layout.PlotWidth <= 0 {
		errs = append(errs, errors.New("layout.plot_width must be positive"))
	}
	if c.Layout.MinBarWidth < 0 {
		errs = append(errs, errors.New("layout.min_bar_width must not be negative"))
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat))
	}

	return errors.Join(errs...)
}

// ValidateWindow checks a window given as percentages of the full extent.
func ValidateWindow(p0, p100 float64) error {
	return window.ValidatePercents(p0, p100)
}

// ValidateDataset checks that a file source points at an existing file.
func (c *Config) ValidateDataset() error {
	if c.Source.Kind != SourceFile && c.Source.Kind != SourceDuckDB {
		return nil
	}
	if _, err := os.Stat(c.Source.Path); os.IsNotExist(err) {
		return fmt.Errorf("dataset does not exist: %s\nHint: use --dataset to specify a different path", c.Source.Path)
	}
	return nil
}
