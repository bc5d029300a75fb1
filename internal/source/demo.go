package source

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// NameDemo identifies the embedded demo dataset.
const NameDemo = "demo"

//go:embed demo.yaml
var demoYAML []byte

// Demo returns a fresh copy of the embedded demo dataset: four sources feeding
// four staging, two intermediate and four marts models.
func Demo() (*core.Dataset, error) {
	var ds core.Dataset
	if err := yaml.Unmarshal(demoYAML, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode demo dataset: %w", err)
	}
	ds.Source = NameDemo
	return &ds, nil
}

// DemoLoader loads the embedded demo dataset.
type DemoLoader struct{}

// Name implements Loader.
func (DemoLoader) Name() string { return NameDemo }

// Load implements Loader.
func (DemoLoader) Load(_ context.Context) (*core.Dataset, error) { return Demo() }
