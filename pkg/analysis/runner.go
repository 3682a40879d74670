package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ritzau/classdeps/pkg/analysis/api"
	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/config"
	"github.com/ritzau/classdeps/pkg/driver"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/pubsub"
	"github.com/ritzau/classdeps/pkg/symbols"
	"github.com/ritzau/classdeps/pkg/watcher"
)

var log = logging.New("analysis")

// ErrNotLoaded is returned before the snapshots have been loaded
var ErrNotLoaded = errors.New("snapshots not loaded")

// Runner orchestrates snapshot loading and invalidation rounds
type Runner struct {
	cfg       *config.Config
	oldSource api.Source
	newSource api.Source
	publisher pubsub.Publisher // nil disables publishing

	mu sync.Mutex // Prevent concurrent loads and rounds

	stateMu  sync.RWMutex
	table    *symbols.Table
	oldCache *cache.Cache
	newCache *cache.Cache
	last     *Report
	rounds   int
}

// RoundOptions configures a round
type RoundOptions struct {
	Changed []string // unit names; empty means every unit in the new snapshot
	Reason  string   // e.g. "initial round", "new snapshot changed"
}

// NewRunner creates a runner over two snapshot sources
func NewRunner(cfg *config.Config, oldSource, newSource api.Source, publisher pubsub.Publisher) *Runner {
	return &Runner{
		cfg:       cfg,
		oldSource: oldSource,
		newSource: newSource,
		publisher: publisher,
	}
}

// Load (re)loads the new snapshot, and the old one too if reloadOld is set
// or nothing is loaded yet
func (r *Runner) Load(ctx context.Context, reloadOld bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx, reloadOld)
}

func (r *Runner) load(ctx context.Context, reloadOld bool) error {
	r.stateMu.RLock()
	table, oldCache := r.table, r.oldCache
	r.stateMu.RUnlock()

	if reloadOld || oldCache == nil {
		r.publishStatus("loading", "Loading "+r.oldSource.Name())
		table = symbols.NewTable()
		var err error
		oldCache, err = r.oldSource.Load(ctx, table)
		if err != nil {
			r.publishStatus("error", err.Error())
			return fmt.Errorf("failed to load old snapshot: %w", err)
		}
		log.Info("loaded old snapshot", "source", r.oldSource.Name(), "units", oldCache.Len())
	}

	r.publishStatus("loading", "Loading "+r.newSource.Name())
	newCache, err := r.newSource.Load(ctx, table)
	if err != nil {
		r.publishStatus("error", err.Error())
		return fmt.Errorf("failed to load new snapshot: %w", err)
	}
	log.Info("loaded new snapshot", "source", r.newSource.Name(), "units", newCache.Len())

	if r.cfg.Validate {
		if found := len(driver.Validate(oldCache)) + len(driver.Validate(newCache)); found > 0 {
			log.Warn("snapshots contain supertype cycles", "cycles", found)
		}
	}

	r.stateMu.Lock()
	r.table, r.oldCache, r.newCache = table, oldCache, newCache
	r.stateMu.Unlock()

	r.publishStatus("idle", fmt.Sprintf("Loaded %d old and %d new units", oldCache.Len(), newCache.Len()))
	return nil
}

// Run executes one invalidation round, loading the snapshots first if needed
func (r *Runner) Run(ctx context.Context, opts RoundOptions) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded() {
		if err := r.load(ctx, true); err != nil {
			return nil, err
		}
	}

	r.stateMu.RLock()
	table, oldCache, newCache := r.table, r.oldCache, r.newCache
	r.stateMu.RUnlock()

	log.InfoContext(ctx, "starting round", "reason", opts.Reason)
	r.publishStatus("running", "Running round: "+opts.Reason)

	changed := r.resolveChanged(table, newCache, opts.Changed)
	d, err := driver.New(cache.NewResolver(newCache, oldCache), driver.Options{
		RootType:   r.cfg.RootType,
		Signatures: r.cfg.Signatures,
		Workers:    r.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	var res *driver.Result
	if batches := splitBatches(changed, r.cfg.Workers); len(batches) > 1 {
		res, err = d.RunBatches(ctx, batches)
	} else {
		res, err = d.RunRound(ctx, changed)
	}
	if err != nil {
		r.publish(pubsub.EventRoundAborted, pubsub.RoundSummary{
			Reason:  opts.Reason,
			Changed: driver.Names(table, changed),
			Error:   err.Error(),
		})
		r.publishStatus("error", err.Error())
		return nil, fmt.Errorf("round failed: %w", err)
	}

	report := newReport(res, table, opts.Reason)
	r.stateMu.Lock()
	r.last = report
	r.rounds++
	r.stateMu.Unlock()

	r.publish(pubsub.EventRoundComplete, report.Summary)
	r.publishStatus("ready", fmt.Sprintf("%d unit(s) marked", len(res.Marked)))
	log.InfoContext(ctx, "round complete", "reason", opts.Reason, "marked", len(res.Marked))
	return report, nil
}

// HandleChange reloads what a snapshot change requires and runs a round
func (r *Runner) HandleChange(ctx context.Context, change *watcher.ChangeAnalysis) (*Report, error) {
	if change.ReloadOld || change.ReloadNew {
		if err := r.Load(ctx, change.ReloadOld); err != nil {
			return nil, err
		}
	}
	if !change.RunRound {
		return nil, nil
	}
	return r.Run(ctx, RoundOptions{Reason: "snapshot changed: " + strings.Join(change.ChangedFiles, ", ")})
}

// resolveChanged maps names to symbols. Names never interned belong to no
// snapshot and are skipped.
func (r *Runner) resolveChanged(table *symbols.Table, newCache *cache.Cache, names []string) []symbols.Symbol {
	if len(names) == 0 {
		return newCache.Units()
	}
	changed := make([]symbols.Symbol, 0, len(names))
	for _, name := range names {
		id, ok := table.Lookup(name)
		if !ok {
			log.Warn("ignoring unknown unit", "unit", name)
			continue
		}
		changed = append(changed, id)
	}
	return changed
}

// splitBatches deals units round-robin into at most workers batches
func splitBatches(units []symbols.Symbol, workers int) [][]symbols.Symbol {
	if workers < 1 {
		workers = 1
	}
	if len(units) < workers {
		workers = len(units)
	}
	batches := make([][]symbols.Symbol, workers)
	for i, id := range units {
		batches[i%workers] = append(batches[i%workers], id)
	}
	return batches
}

func (r *Runner) loaded() bool {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.newCache != nil
}

// Last returns the report of the last successful round, or nil
func (r *Runner) Last() *Report {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.last
}

// Status summarizes the runner state
func (r *Runner) Status() pubsub.Status {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	status := pubsub.Status{State: "idle", Rounds: r.rounds}
	switch {
	case r.newCache == nil:
		status.Message = "Snapshots not loaded"
	case r.last != nil:
		status.State = "ready"
		status.Message = fmt.Sprintf("Last round marked %d unit(s)", len(r.last.Result.Marked))
	default:
		status.Message = fmt.Sprintf("Loaded %d old and %d new units", r.oldCache.Len(), r.newCache.Len())
	}
	return status
}

func (r *Runner) publishStatus(state, message string) {
	if r.publisher == nil {
		return
	}
	r.stateMu.RLock()
	rounds := r.rounds
	r.stateMu.RUnlock()
	status := pubsub.Status{State: state, Message: message, Rounds: rounds}
	if err := r.publisher.Publish(pubsub.TopicStatus, pubsub.EventStatus, status); err != nil {
		log.Warn("failed to publish status", "error", err)
	}
}

func (r *Runner) publish(eventType string, summary pubsub.RoundSummary) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(pubsub.TopicRounds, eventType, summary); err != nil {
		log.Warn("failed to publish round", "error", err)
	}
}
