package engine

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/dag"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Trend arrows relative to the historical average.
const (
	TrendUp   = "↗"
	TrendDown = "↘"
	TrendFlat = "→"
)

var printer = message.NewPrinter(language.English)

// Trend compares an execution time to its average with a 10% band.
func Trend(exec, avg float64) string {
	switch {
	case exec > avg*1.1:
		return TrendUp
	case exec < avg*0.9:
		return TrendDown
	default:
		return TrendFlat
	}
}

// FormatCost renders a cost in dollars with three decimals, or N/A when unknown.
func FormatCost(usd float64) string {
	if usd <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("$%.3f", usd)
}

// FormatRows renders a row count with digit grouping.
func FormatRows(n int64) string {
	return printer.Sprintf("%d", n)
}

func tooltipFor(n core.Node, g *dag.Graph, cp *critpath.Result) core.Tooltip {
	rec := n.Record()
	avg := rec.HistoricalAverage()
	return core.Tooltip{
		Name:          rec.Name,
		Layer:         rec.Layer,
		Status:        rec.Status,
		Performance:   n.PerformanceStatus(),
		ExecutionTime: rec.ExecutionTime,
		AverageTime:   avg,
		Trend:         Trend(rec.ExecutionTime, avg),
		Rows:          FormatRows(rec.RowsProcessed),
		Cost:          FormatCost(rec.CostUSD),
		Dependencies:  modelNames(g, g.Dependencies(rec.ID)),
		Dependents:    modelNames(g, g.Dependents(rec.ID)),
		Description:   rec.Description,
		Critical:      cp.Contains(rec.ID),
		History:       rec.HistoricalTimes,
	}
}

// modelNames maps node ids to the model names shown to the user.
func modelNames(g *dag.Graph, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if rec, ok := g.Node(id); ok && rec.Name != "" {
			out = append(out, rec.Name)
			continue
		}
		out = append(out, id)
	}
	return out
}
