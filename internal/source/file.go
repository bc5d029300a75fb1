package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// NameFile identifies datasets read from disk.
const NameFile = "file"

// FileLoader reads a dataset from a JSON or YAML file.
//
// JSON files may hold a dataset ({"origin", "nodes"}), a per-day timeline
// ({"project", "executions", "timeExtent"}) or a history payload ({"success", "data"}).
// YAML files hold a dataset.
type FileLoader struct {
	Path string
	// Now anchors history payloads, which carry no absolute times (optional, uses time.Now)
	Now func() time.Time
}

// Name implements Loader.
func (f *FileLoader) Name() string { return NameFile }

// Load implements Loader.
func (f *FileLoader) Load(_ context.Context) (*core.Dataset, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", f.Path, err)
	}

	var ds *core.Dataset
	switch ext := strings.ToLower(filepath.Ext(f.Path)); ext {
	case ".json":
		ds, err = decodeJSON(data, f.now)
	case ".yaml", ".yml":
		ds = &core.Dataset{}
		err = yaml.Unmarshal(data, ds)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", f.Path, err)
	}
	if ds.Source == "" {
		ds.Source = NameFile
	}
	return ds, nil
}

func (f *FileLoader) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// decodeJSON sniffs the payload shape by its top-level keys.
func decodeJSON(data []byte, now func() time.Time) (*core.Dataset, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, err
	}

	switch {
	case shape["executions"] != nil:
		var td core.TimelineData
		if err := json.Unmarshal(data, &td); err != nil {
			return nil, err
		}
		return td.Dataset()
	case shape["data"] != nil:
		var resp HistoryResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, err
		}
		return HistoryDataset(resp.Data, now()), nil
	default:
		var ds core.Dataset
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, err
		}
		return &ds, nil
	}
}
