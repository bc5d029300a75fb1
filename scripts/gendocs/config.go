package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapline/internal/cli/config"
)

// keyDescriptions documents the configuration keys. Keys without an entry
// are listed with their default only.
var keyDescriptions = map[string]string{
	"source.kind":     "Where runs are loaded from: demo, file, http, state, postgres or duckdb",
	"source.path":     "Dataset file (file) or database file (duckdb)",
	"source.url":      "Timeline backend base URL (http)",
	"source.dsn":      "Postgres connection string (postgres)",
	"source.schema":   "Schema holding the dbt_artifacts models",
	"source.project":  "Project id or name for per-day sources",
	"source.date":     "Day to load, YYYY-MM-DD",
	"source.timeout":  "Upper bound on one load",
	"source.fallback": "Use the demo dataset when a load fails or is empty",
	"state_path":      "Path to the state database",
	"verbose":         "Debug logging",
	"output":          "Output format: auto, text, markdown or json",

	"layout.plot_width":    "Width of the full timeline in pixels",
	"layout.row_pitch":     "Vertical distance between rows in a lane",
	"layout.min_bar_width": "Narrowest drawn bar in pixels",
	"layout.sla_threshold": "SLA marker position in seconds (0 disables it)",

	"viewport.width":        "Drawing surface width in pixels",
	"viewport.label_column": "Width of the label column in pixels",

	"performance.slow_threshold":     "Runs longer than this many seconds are slow",
	"performance.critical_threshold": "Runs longer than this many seconds are critical",
	"performance.fast_ratio":         "Runs faster than this share of their average are fast",

	"critical_path.tolerance": "Chains within this many seconds of the longest are critical too (0 for exact ties)",

	"ui.port":           "Port of the web UI",
	"ui.watch":          "Reload the dataset file when it changes",
	"ui.session_secret": "Key signing session cookies (random when empty)",
	"ui.origins":        "Browser origins allowed to call /api/",
}

// configKeys returns the defaults, padded with the documented keys that
// have none, and every key in sorted order.
func configKeys() (map[string]interface{}, []string) {
	defaults := config.Defaults()
	for key := range keyDescriptions {
		if _, ok := defaults[key]; !ok {
			defaults[key] = ""
		}
	}
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return defaults, keys
}

func defaultCell(v interface{}) string {
	def := fmt.Sprint(v)
	if def == "" {
		return "-"
	}
	return InlineCode(def)
}

// generateConfigDocs writes the configuration reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "LeapLine configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("LeapLine reads `leapline.yaml` from the project root, then `" + config.EnvPrefix +
		"` environment variables, then command-line flags. Nested keys use a double underscore in " +
		"environment variables: `source.kind` is `" + config.EnvVar("source.kind") + "`.")

	defaults, keys := configKeys()

	sections := map[string][]string{}
	for _, key := range keys {
		section, _, found := strings.Cut(key, ".")
		if !found {
			section = "general"
		}
		sections[section] = append(sections[section], key)
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w.Header(2, name)
		rows := make([][]string, 0, len(sections[name]))
		for _, key := range sections[name] {
			rows = append(rows, []string{InlineCode(key), defaultCell(defaults[key]), keyDescriptions[key]})
		}
		w.Table([]string{"Key", "Default", "Description"}, rows)
	}

	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}
