// Package main provides tests for the LeapLine CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapline/internal/cli"
	"github.com/leapstack-labs/leapline/internal/cli/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "LeapLine") {
		t.Errorf("version output should contain 'LeapLine', got: %s", out)
	}
}

func TestRenderDemo(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "render", "--source", "demo", "-o", "markdown")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	for _, want := range []string{"# Execution Timeline", "Critical Path", "## Models"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output should contain %q, got: %s", want, out)
		}
	}
}

func TestRenderSVGDemo(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "demo.svg")

	if _, err := execute(t, "render", "--svg", path); err != nil {
		t.Fatalf("render error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read SVG: %v", err)
	}
	if !strings.Contains(string(data), `<svg id="timeline-svg"`) {
		t.Errorf("expected an SVG document, got: %.80s", data)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "lineage"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}
