package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/bindinc/cmd/bindinc/internal/incremental"
	"github.com/albertocavalcante/bindinc/pkg/invalidate"
	"github.com/albertocavalcante/bindinc/pkg/store"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 100 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Config configures the watcher.
type Config struct {
	Workspace *invalidate.Workspace
	Debounce  time.Duration
	Writer    io.Writer
	Verbose   bool
	NoColor   bool
	JSON      bool
}

// Watcher re-plans the workspace when its inputs change. It never commits:
// the persisted state only moves when the build runs the generator.
type Watcher struct {
	config    Config
	workspace *invalidate.Workspace
	fsWatcher *fsnotify.Watcher
	tracker   *incremental.Tracker
	debouncer *Debouncer
	logger    *Logger

	// planMu serializes re-plans.
	planMu sync.Mutex
}

// New creates a watcher for cfg.Workspace.
func New(cfg Config) (*Watcher, error) {
	if cfg.Workspace == nil {
		return nil, errors.New("watch: no workspace")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	args := cfg.Workspace.Args()
	return &Watcher{
		config:    cfg,
		workspace: cfg.Workspace,
		fsWatcher: fsWatcher,
		tracker:   incremental.NewTracker(args.InfoFolder, args.LogFolder, args.Include),
		logger:    NewLogger(cfg),
	}, nil
}

// Logger returns the watch output logger.
func (w *Watcher) Logger() *Logger {
	return w.logger
}

// Run plans once, then re-plans after every debounced batch of changes until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, w.handleBatch)
	defer w.debouncer.Stop()

	args := w.workspace.Args()
	if err := w.addRecursive(args.InfoFolder); err != nil {
		return fmt.Errorf("failed to watch info folder: %w", err)
	}
	if args.DependencyClassesFolder != "" {
		if _, err := os.Stat(args.DependencyClassesFolder); err == nil {
			if err := w.addRecursive(args.DependencyClassesFolder); err != nil {
				return fmt.Errorf("failed to watch dependency classes folder: %w", err)
			}
		}
	}

	files, err := w.workspace.InfoFiles()
	if err != nil {
		return err
	}
	w.logger.Ready(len(files), args.Include, args.InfoFolder)
	w.replan(ctx, nil)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive watches root and every directory below it.
func (w *Watcher) addRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", path))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w for %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
					ErrWatchLimitReached, path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
		}
		return nil
	})
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// handleEvent filters one filesystem event and queues relevant ones.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			return
		}
	}

	if !w.relevant(path) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(path, change)
	w.debouncer.Add(path, change)
}

// relevant reports whether path is a tracked info file or a dependency
// class list.
func (w *Watcher) relevant(path string) bool {
	if w.tracker.Scanner().Matches(path) {
		return true
	}
	deps := w.workspace.Args().DependencyClassesFolder
	if deps == "" || !strings.HasSuffix(path, store.BindingClassListSuffix) {
		return false
	}
	rel, err := filepath.Rel(deps, path)
	return err == nil && filepath.IsLocal(rel)
}

// handleBatch is the debouncer callback.
func (w *Watcher) handleBatch(batch []Change) {
	w.replan(context.Background(), Paths(batch))
}

// replan computes a fresh plan and reports it. In incremental mode the
// change set comes from the input snapshot, so it accumulates until the
// next commit refreshes the snapshot.
func (w *Watcher) replan(ctx context.Context, triggers []string) {
	w.planMu.Lock()
	defer w.planMu.Unlock()

	if len(triggers) > 0 {
		w.logger.Planning(triggers)
	}

	var changes invalidate.Changes
	if w.workspace.Args().Incremental {
		cs, err := w.tracker.Status(ctx)
		if err != nil {
			w.logger.Error(err)
			return
		}
		changes = cs.Changes()
	}

	p, err := w.workspace.Plan(ctx, changes)
	if err != nil {
		w.logger.Error(fmt.Errorf("plan failed: %w", err))
		return
	}
	w.logger.Planned(Summarize(p))
}

// Summarize extracts the reported fields of a plan.
func Summarize(p *invalidate.Plan) PlanSummary {
	return PlanSummary{
		Incremental:        p.Incremental,
		InvalidOutputs:     p.InvalidOutputs,
		FilesToConsider:    len(p.FilesToConsider),
		InvalidatedClasses: p.InvalidatedClasses,
		UpdatedDeps:        p.UpdatedDeps,
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
