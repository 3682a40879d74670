package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/classdeps/pkg/logging"
)

var log = logging.New("watcher")

// ChangeType represents which snapshot changed
type ChangeType int

const (
	ChangeTypeOldSnapshot ChangeType = iota
	ChangeTypeNewSnapshot
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeOldSnapshot:
		return "old"
	case ChangeTypeNewSnapshot:
		return "new"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow collects the burst of write events a single save produces
const batchWindow = 100 * time.Millisecond

// FileWatcher watches the old and new snapshot files. It watches their
// directories, since snapshot writers usually replace the file by rename.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]ChangeType // cleaned absolute path -> type
	events  chan ChangeEvent
	stop    sync.Once
}

// NewFileWatcher creates a watcher for the two snapshot paths
func NewFileWatcher(oldPath, newPath string) (*FileWatcher, error) {
	targets := make(map[string]ChangeType, 2)
	for path, typ := range map[string]ChangeType{oldPath: ChangeTypeOldSnapshot, newPath: ChangeTypeNewSnapshot} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		targets[abs] = typ
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		targets: targets,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching. The events channel is closed when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.targets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.Info("monitoring snapshot directory", "path", dir)
	}

	go fw.processEvents(ctx)
	return nil
}

// processEvents batches file system events per snapshot
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	pending := make(map[ChangeType][]string)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, typ := range []ChangeType{ChangeTypeOldSnapshot, ChangeTypeNewSnapshot} {
			paths := pending[typ]
			if len(paths) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: typ, Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
			delete(pending, typ)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			typ, watched := fw.targets[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			log.Debug("snapshot changed", "path", event.Name, "op", event.Op.String(), "snapshot", typ.String())
			pending[typ] = appendPath(pending[typ], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func appendPath(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stop.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
