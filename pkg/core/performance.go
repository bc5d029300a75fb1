package core

import "time"

// PerformanceStatus classifies how an execution compares to its thresholds and history.
type PerformanceStatus string

// Performance status constants.
const (
	PerformanceFast     PerformanceStatus = "fast"
	PerformanceNormal   PerformanceStatus = "normal"
	PerformanceSlow     PerformanceStatus = "slow"
	PerformanceCritical PerformanceStatus = "critical"
)

// Color returns the fill color used for bars with this status.
func (p PerformanceStatus) Color() string {
	switch p {
	case PerformanceFast:
		return "#28a745"
	case PerformanceSlow:
		return "#ffc107"
	case PerformanceCritical:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

// Thresholds configures performance classification.
type Thresholds struct {
	// Slow is the execution time in seconds above which a model is slow
	Slow float64
	// Critical is the execution time in seconds above which a model is critical
	Critical float64
	// FastRatio marks a model fast when it runs below FastRatio * its average
	FastRatio float64
}

// DefaultThresholds returns the stock classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Slow: 2.0, Critical: 5.0, FastRatio: 0.8}
}

// Classify computes the performance status of a record.
// Source-layer records are always normal.
func (t Thresholds) Classify(r ExecutionRecord) PerformanceStatus {
	if r.Layer == LayerSource {
		return PerformanceNormal
	}
	avg := r.AvgExecutionTime
	if avg <= 0 {
		avg = r.ExecutionTime
	}
	switch {
	case r.ExecutionTime > t.Critical:
		return PerformanceCritical
	case r.ExecutionTime > t.Slow:
		return PerformanceSlow
	case r.ExecutionTime < avg*t.FastRatio:
		return PerformanceFast
	default:
		return PerformanceNormal
	}
}

// ExecutionTimeStatus is the coarse status shown for timestamped executions.
type ExecutionTimeStatus string

// Execution time status constants.
const (
	ExecutionSuccess ExecutionTimeStatus = "success"
	ExecutionWarning ExecutionTimeStatus = "warning"
	ExecutionDanger  ExecutionTimeStatus = "danger"
)

// ClassifyDuration maps an execution duration to its status:
// under 5 minutes is success, under 15 minutes is warning, anything longer is danger.
func ClassifyDuration(d time.Duration) ExecutionTimeStatus {
	switch {
	case d < 5*time.Minute:
		return ExecutionSuccess
	case d < 15*time.Minute:
		return ExecutionWarning
	default:
		return ExecutionDanger
	}
}
