package analysis

import (
	"sort"
	"strings"
)

// CrossPackageMark is a mark whose cause lives in another package than the
// marked unit
type CrossPackageMark struct {
	Unit         string `json:"unit"`         // e.g., "com.acme.web.Handler"
	Cause        string `json:"cause"`        // e.g., "com.acme.core.Engine"
	UnitPackage  string `json:"unitPackage"`  // e.g., "com.acme.web"
	CausePackage string `json:"causePackage"` // e.g., "com.acme.core"
	Rule         string `json:"rule"`
}

// FindCrossPackageMarks returns the marks of the round that cross package
// boundaries, in trace order
func (r *Report) FindCrossPackageMarks() []CrossPackageMark {
	var marks []CrossPackageMark
	for _, e := range r.Trace() {
		unitPkg, causePkg := unitPackage(e.Unit), unitPackage(e.Cause)
		if unitPkg == causePkg {
			continue
		}
		marks = append(marks, CrossPackageMark{
			Unit:         e.Unit,
			Cause:        e.Cause,
			UnitPackage:  unitPkg,
			CausePackage: causePkg,
			Rule:         e.Rule,
		})
	}
	return marks
}

// MarkedPackages counts marked units per package
func (r *Report) MarkedPackages() map[string]int {
	counts := make(map[string]int)
	for _, name := range r.Summary.Marked {
		counts[unitPackage(name)]++
	}
	return counts
}

// SortedPackages returns the keys of counts, most marked first
func SortedPackages(counts map[string]int) []string {
	pkgs := make([]string, 0, len(counts))
	for pkg := range counts {
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if counts[pkgs[i]] != counts[pkgs[j]] {
			return counts[pkgs[i]] > counts[pkgs[j]]
		}
		return pkgs[i] < pkgs[j]
	})
	return pkgs
}

// unitPackage returns the package of a binary unit name
// e.g., "com.acme.Outer$Inner" -> "com.acme"
// e.g., "Main" -> "" (default package)
func unitPackage(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return ""
}
