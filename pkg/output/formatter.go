package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/classdeps/pkg/analysis"
	"github.com/ritzau/classdeps/pkg/cycles"
	"github.com/ritzau/classdeps/pkg/pubsub"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// PrintRoundReport prints a nicely formatted round report with colors.
// Verbose adds the full mark trace.
func PrintRoundReport(w io.Writer, report *analysis.Report, verbose bool) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	s := report.Summary

	// Header
	bold.Fprintln(w, "Class Dependency Analyzer - Round Report")
	bold.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Round: %s\n", s.ID)
	if s.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", s.Reason)
	}
	fmt.Fprintf(w, "Changed: %d unit(s), diffed: %d\n", len(s.Changed), s.Diffed)
	fmt.Fprintln(w)

	if len(s.Marked) == 0 {
		green.Fprintln(w, "✓ No units need recompilation")
		return
	}

	red.Fprintf(w, "MARKED FOR RECOMPILATION (%d):\n", len(s.Marked))
	for _, name := range s.Marked {
		yellow.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w)

	if len(s.Deferred) > 0 {
		cyan.Fprintf(w, "Awaiting fresh facts (%d): %s\n", len(s.Deferred), strings.Join(s.Deferred, ", "))
		fmt.Fprintln(w)
	}

	counts := report.MarkedPackages()
	bold.Fprintln(w, "By package:")
	for _, pkg := range analysis.SortedPackages(counts) {
		name := pkg
		if name == "" {
			name = "(default package)"
		}
		fmt.Fprintf(w, "  %-40s %d\n", name, counts[pkg])
	}
	if cross := report.FindCrossPackageMarks(); len(cross) > 0 {
		yellow.Fprintf(w, "  %d mark(s) crossed a package boundary\n", len(cross))
	}

	if verbose {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Trace:")
		for _, e := range report.Trace() {
			fmt.Fprintf(w, "  %s <- %s ", e.Unit, e.Cause)
			cyan.Fprintf(w, "[%s]", e.Rule)
			fmt.Fprintf(w, " %s\n", e.Reason)
		}
	}

	fmt.Fprintln(w)
	summaryColor := yellow
	if len(s.Marked) > len(s.Changed) {
		summaryColor = red
	}
	summaryColor.Fprintf(w, "Summary: %d changed unit(s) invalidated %d unit(s) in %dms\n",
		len(s.Changed), len(s.Marked), s.DurationMS)
}

// PrintCycles prints the supertype cycles found in a snapshot
func PrintCycles(w io.Writer, label string, found []cycles.HierarchyCycle, table *symbols.Table) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if len(found) == 0 {
		green.Fprintf(w, "✓ %s: no supertype cycles\n", label)
		return
	}
	red.Fprintf(w, "%s: %d supertype cycle(s)\n", label, len(found))
	for _, c := range found {
		fmt.Fprintf(w, "  %s\n", strings.Join(c.Names(table), " -> "))
	}
}

// RoundJSON is the machine readable form of a round report
type RoundJSON struct {
	Summary      pubsub.RoundSummary         `json:"summary"`
	Trace        []analysis.TraceEntry       `json:"trace"`
	CrossPackage []analysis.CrossPackageMark `json:"crossPackage,omitempty"`
}

// PrintRoundJSON writes the report as indented JSON
func PrintRoundJSON(w io.Writer, report *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(RoundJSON{
		Summary:      report.Summary,
		Trace:        report.Trace(),
		CrossPackage: report.FindCrossPackageMarks(),
	})
}
