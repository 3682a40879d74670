package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/diff"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/propagate"
	"github.com/ritzau/classdeps/pkg/symbols"
)

var log = logging.New("driver")

// Options configures a Driver
type Options struct {
	RootType   string // universal root type, e.g. java.lang.Object
	Signatures int    // size of the parsed method descriptor cache
	Workers    int    // concurrent batches in RunBatches
}

// Driver runs invalidation rounds over one pair of frozen caches
type Driver struct {
	resolver *cache.Resolver
	diffs    *diff.Engine
	engine   *propagate.Engine
	workers  int
}

// New creates a driver for the caches behind r
func New(r *cache.Resolver, opts Options) (*Driver, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	sigs, err := symbols.NewSignatures(r.Table(), opts.Signatures)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}
	return &Driver{
		resolver: r,
		diffs:    diff.NewEngine(r, opts.RootType),
		engine:   propagate.NewEngine(r, sigs),
		workers:  opts.Workers,
	}, nil
}

// Resolver returns the caches the driver runs over
func (d *Driver) Resolver() *cache.Resolver {
	return d.resolver
}

// Result is the outcome of a round
type Result struct {
	ID       string           `json:"id"`
	Changed  []symbols.Symbol `json:"changed"`
	Marked   []symbols.Symbol `json:"marked"`
	Diffed   []symbols.Symbol `json:"diffed"`
	Deferred []symbols.Symbol `json:"deferred"` // marked, no fresh facts to diff yet
	Trace    []propagate.Mark `json:"trace"`
	Duration time.Duration    `json:"duration"`
}

// worklist is private to one drain; diffed guards against diffing a unit
// twice for the same cache pair
type worklist struct {
	queue  []symbols.Symbol
	queued map[symbols.Symbol]bool
	diffed []symbols.Symbol

	deferred []symbols.Symbol
	trace    []propagate.Mark
}

func newWorklist(units []symbols.Symbol) *worklist {
	w := &worklist{queued: make(map[symbols.Symbol]bool)}
	for _, id := range units {
		w.push(id)
	}
	return w
}

func (w *worklist) push(id symbols.Symbol) {
	if w.queued[id] {
		return
	}
	w.queued[id] = true
	w.queue = append(w.queue, id)
}

func (w *worklist) pop() symbols.Symbol {
	id := w.queue[0]
	w.queue = w.queue[1:]
	return id
}

// RunRound diffs the changed units, propagates their changes and drains the
// worklist of newly marked units. On error no result is returned: a partial
// mark set would under-compile.
func (d *Driver) RunRound(ctx context.Context, changed []symbols.Symbol) (*Result, error) {
	start := time.Now()
	res := d.newResult(changed)
	ctx = logging.WithRoundID(ctx, res.ID)
	log.InfoContext(ctx, "round started", "changed", len(changed))

	marks := NewMarkSet()
	w := newWorklist(changed)
	if err := d.drain(ctx, w, marks); err != nil {
		log.ErrorContext(ctx, "round aborted", "error", err)
		return nil, err
	}

	d.finish(res, marks, []*worklist{w}, start)
	log.InfoContext(ctx, "round complete", "marked", len(res.Marked), "diffed", len(res.Diffed),
		"deferred", len(res.Deferred), "duration", res.Duration)
	return res, nil
}

// RunBatches runs one worklist per batch, at most Workers at a time, over a
// shared mark set. A unit may be diffed by more than one batch.
func (d *Driver) RunBatches(ctx context.Context, batches [][]symbols.Symbol) (*Result, error) {
	start := time.Now()
	var changed []symbols.Symbol
	for _, b := range batches {
		changed = append(changed, b...)
	}
	res := d.newResult(changed)
	ctx = logging.WithRoundID(ctx, res.ID)
	log.InfoContext(ctx, "batched round started", "batches", len(batches), "workers", d.workers)

	marks := NewMarkSet()
	lists := make([]*worklist, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, batch := range batches {
		w := newWorklist(batch)
		lists[i] = w
		g.Go(func() error {
			return d.drain(gctx, w, marks)
		})
	}
	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "batched round aborted", "error", err)
		return nil, err
	}

	d.finish(res, marks, lists, start)
	log.InfoContext(ctx, "batched round complete", "marked", len(res.Marked), "duration", res.Duration)
	return res, nil
}

func (d *Driver) newResult(changed []symbols.Symbol) *Result {
	return &Result{
		ID:      uuid.NewString(),
		Changed: append([]symbols.Symbol(nil), changed...),
	}
}

// drain pops units until the worklist is empty. Units with fresh facts are
// diffed and propagated; marked units without them are deferred.
func (d *Driver) drain(ctx context.Context, w *worklist, marks *MarkSet) error {
	table := d.resolver.Table()
	for len(w.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := w.pop()

		if !d.resolver.Recompiled(id) {
			log.DebugContext(ctx, "deferred unit without fresh facts", "unit", table.Name(id))
			w.deferred = append(w.deferred, id)
			continue
		}

		ud, err := d.diffs.Diff(id)
		if errors.Is(err, cache.ErrUnitUnknown) {
			// new unit, nothing depended on it
			log.DebugContext(ctx, "skipped unit without old facts", "unit", table.Name(id))
			w.diffed = append(w.diffed, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("diff %s: %w", table.Name(id), err)
		}
		w.diffed = append(w.diffed, id)

		newMarks, err := d.engine.Propagate(ud, marks)
		if err != nil {
			return err
		}
		w.trace = append(w.trace, newMarks...)
		for _, m := range newMarks {
			w.push(m.Unit)
		}
	}
	return nil
}

func (d *Driver) finish(res *Result, marks *MarkSet, lists []*worklist, start time.Time) {
	diffed := make(map[symbols.Symbol]bool)
	deferred := make(map[symbols.Symbol]bool)
	for _, w := range lists {
		for _, id := range w.diffed {
			diffed[id] = true
		}
		for _, id := range w.deferred {
			deferred[id] = true
		}
		res.Trace = append(res.Trace, w.trace...)
	}
	res.Marked = marks.Units()
	res.Diffed = d.sorted(diffed)
	res.Deferred = d.sorted(deferred)
	res.Duration = time.Since(start)
}

func (d *Driver) sorted(set map[symbols.Symbol]bool) []symbols.Symbol {
	table := d.resolver.Table()
	units := make([]symbols.Symbol, 0, len(set))
	for id := range set {
		units = append(units, id)
	}
	sort.Slice(units, func(i, j int) bool {
		return table.Name(units[i]) < table.Name(units[j])
	})
	return units
}
