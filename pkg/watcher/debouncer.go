package watcher

import (
	"context"
	"time"
)

// Debouncer merges rapid change events so that a build writing both
// snapshots triggers one reload instead of several
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. Events are released after
// quietPeriod without input, or maxWait after the first held event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// pending is the burst held back by the debouncer
type pending struct {
	oldChanged bool
	paths      []string
	events     int
}

func (p *pending) add(e ChangeEvent) {
	if e.Type == ChangeTypeOldSnapshot {
		p.oldChanged = true
	}
	for _, path := range e.Paths {
		p.paths = appendPath(p.paths, path)
	}
	p.events++
}

// merged collapses the burst into one event. Reloading the old snapshot
// reloads the new one too, so an old change absorbs any new change.
func (p *pending) merged() ChangeEvent {
	typ := ChangeTypeNewSnapshot
	if p.oldChanged {
		typ = ChangeTypeOldSnapshot
	}
	return ChangeEvent{Type: typ, Paths: p.paths, Timestamp: time.Now()}
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet    <-chan time.Time
		deadline <-chan time.Time
		burst    pending
	)

	flush := func() {
		quiet, deadline = nil, nil
		if burst.events == 0 {
			return
		}
		event := burst.merged()
		log.Debug("releasing debounced change", "type", event.Type.String(), "events", burst.events, "paths", event.Paths)
		burst = pending{}
		select {
		case d.output <- event:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			burst.add(event)
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
