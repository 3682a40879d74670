package watcher

// ChangeAnalysis describes what has to be reloaded after a change
type ChangeAnalysis struct {
	ReloadOld    bool // the old snapshot is the baseline: reload both and start over
	ReloadNew    bool
	RunRound     bool
	ChangedFiles []string
}

// AnalyzeChanges determines what to reload for a debounced change
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeOldSnapshot:
		analysis.ReloadOld = true
		analysis.ReloadNew = true
		analysis.RunRound = true

	case ChangeTypeNewSnapshot:
		analysis.ReloadNew = true
		analysis.RunRound = true
	}

	return analysis
}
