package analysis

import (
	"github.com/ritzau/classdeps/pkg/driver"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/pubsub"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Report is a completed round together with the table its symbols belong to
type Report struct {
	Reason  string
	Result  *driver.Result
	Summary pubsub.RoundSummary
	Table   *symbols.Table
}

// TraceEntry is a rendered mark
type TraceEntry struct {
	Unit   string `json:"unit"`
	Cause  string `json:"cause"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

func newReport(res *driver.Result, table *symbols.Table, reason string) *Report {
	return &Report{
		Reason: reason,
		Result: res,
		Table:  table,
		Summary: pubsub.RoundSummary{
			ID:         res.ID,
			Reason:     reason,
			Changed:    driver.Names(table, res.Changed),
			Marked:     driver.Names(table, res.Marked),
			Deferred:   driver.Names(table, res.Deferred),
			Diffed:     len(res.Diffed),
			DurationMS: res.Duration.Milliseconds(),
		},
	}
}

// Trace renders the marks of the round in the order they were made
func (r *Report) Trace() []TraceEntry {
	entries := make([]TraceEntry, len(r.Result.Trace))
	for i, m := range r.Result.Trace {
		entries[i] = TraceEntry{
			Unit:   r.Table.Name(m.Unit),
			Cause:  r.Table.Name(m.Cause),
			Rule:   m.Rule,
			Reason: m.Reason,
		}
	}
	return entries
}

// Graph returns the round as a cause -> marked unit graph
func (r *Report) Graph() *model.Graph {
	return r.Result.Graph(r.Table)
}
