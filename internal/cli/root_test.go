package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "leapline", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	for _, name := range []string{"version", "render", "critical-path", "serve", "tui", "projects", "ingest", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "source", "dataset", "url", "dsn", "project", "date", "state", "width", "tolerance", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRoot_VersionJSON(t *testing.T) {
	out, err := run(t, "version", "-o", "json")
	require.NoError(t, err)

	var got output.VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got.Version)
}

func TestRoot_FlagsOverrideConfigFile(t *testing.T) {
	t.Chdir(testutil.SetupTestProject(t))

	out, err := run(t, "critical-path", "-o", "json", "--tolerance", "0.25")
	require.NoError(t, err)

	var got output.CriticalPathOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "file", got.Source)
	assert.InDelta(t, 0.25, got.Tolerance, 1e-9)

	out, err = run(t, "critical-path", "-o", "json", "--source", "demo")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "demo", got.Source)
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "render", "--source", "ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source kind "ftp"`)

	_, err = run(t, "render", "--tolerance=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical_path.tolerance")
}

func TestRoot_Completion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapline")

	_, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestGetRenderer(t *testing.T) {
	r := output.NewRenderer(io.Discard, io.Discard, output.ModeJSON)
	ctx := context.WithValue(context.Background(), rendererKey{}, r)
	assert.Same(t, r, GetRenderer(ctx))

	assert.NotNil(t, GetRenderer(context.Background()))
}
