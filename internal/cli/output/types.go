package output

import "github.com/leapstack-labs/leapline/pkg/core"

// CriticalNode is one node in critical-path output.
type CriticalNode struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Layer            core.Layer             `json:"layer"`
	StartTime        float64                `json:"startTime"`
	ExecutionTime    float64                `json:"executionTime"`
	CriticalPathTime float64                `json:"criticalPathTime"`
	Performance      core.PerformanceStatus `json:"performance"`
	Critical         bool                   `json:"critical"`
}

// CriticalPathOutput is the JSON output of the critical-path command.
type CriticalPathOutput struct {
	Source    string         `json:"source"`
	Length    float64        `json:"length"`
	Duration  float64        `json:"duration"`
	Tolerance float64        `json:"tolerance"`
	Nodes     []CriticalNode `json:"nodes"`
	Dropped   int            `json:"droppedDependencies"`
	// Focus and Lineage are set when one model's upstream lineage was requested.
	Focus   string         `json:"focus,omitempty"`
	Lineage []CriticalNode `json:"lineage,omitempty"`
}

// ProjectListOutput is the JSON output of the projects command.
type ProjectListOutput struct {
	Projects []*core.Project `json:"projects"`
	Count    int             `json:"count"`
}

// IngestOutput is the JSON output of the ingest command.
type IngestOutput struct {
	Project    core.Project `json:"project"`
	Source     string       `json:"source"`
	Executions int          `json:"executions"`
	Day        string       `json:"day"`
}

// VersionOutput is the JSON output of the version command.
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}
