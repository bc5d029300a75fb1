// Package state persists projects and their model executions in SQLite so that
// timelines can be served without a live warehouse connection.
package state

import "github.com/leapstack-labs/leapline/pkg/core"

// Store is an alias for core.Store.
type Store = core.Store

var _ Store = (*SQLiteStore)(nil)
