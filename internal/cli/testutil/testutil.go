// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapline/internal/cli/output"
)

// Dataset is a small pipeline: two staging models feeding an intermediate
// model that feeds a mart. The critical path is stg_orders, int_orders, fct_orders.
const Dataset = `{
  "origin": "2024-03-01T09:00:00Z",
  "nodes": [
    {"id": "stg_orders", "name": "stg_orders", "layer": "staging", "startTime": 0, "executionTime": 4, "dependencies": []},
    {"id": "stg_items", "name": "stg_items", "layer": "staging", "startTime": 0, "executionTime": 1, "dependencies": []},
    {"id": "int_orders", "name": "int_orders", "layer": "intermediate", "startTime": 4, "executionTime": 3, "dependencies": ["stg_orders", "stg_items"]},
    {"id": "fct_orders", "name": "fct_orders", "layer": "marts", "startTime": 7, "executionTime": 2, "dependencies": ["int_orders"]}
  ]
}`

// SetupTestProject creates a temporary project directory holding dataset.json
// and a leapline.yaml that points the file source at it.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "dataset.json"), []byte(Dataset), 0644); err != nil {
		t.Fatalf("failed to create dataset.json: %v", err)
	}

	cfg := `source:
  kind: file
  path: dataset.json
state_path: state.db
`
	if err := os.WriteFile(filepath.Join(tmpDir, "leapline.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to create leapline.yaml: %v", err)
	}

	return tmpDir
}

// TestRenderer is a Renderer writing to buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a renderer in mode. isTTY selects the styled text
// that auto mode picks on a terminal.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns what was written to stdout.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	// Check for balanced code fences
	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	// Check that headers have content
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
