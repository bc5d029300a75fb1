// Package core defines the shared language of the LeapLine system.
//
// This package contains:
//   - Domain entities (ExecutionRecord, Dataset, Node, Edge, Project)
//   - Derived classifications (PerformanceStatus, ExecutionTimeStatus)
//   - Scene types produced by the engine and consumed by renderers
//   - Service interfaces (Store)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
