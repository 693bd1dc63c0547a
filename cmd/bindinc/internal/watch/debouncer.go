// Package watch re-plans invalidation whenever layout-info files or
// dependency class lists change on disk.
package watch

import (
	"sync"
	"time"

	"github.com/albertocavalcante/bindinc/pkg/util"
)

// MaxPendingFiles bounds the pending set. Reaching it flushes immediately.
const MaxPendingFiles = 1000

// Debouncer coalesces bursts of file events into one batch. A build step
// usually rewrites many info files at once, and each burst should trigger a
// single re-plan.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]ChangeType
	timer   *time.Timer
	window  time.Duration
	onFlush func(batch []Change)
	stopped bool
}

// Change is one debounced file event. Later events for the same path
// overwrite earlier ones.
type Change struct {
	Path string     `json:"path"`
	Type ChangeType `json:"change"`
}

// NewDebouncer creates a debouncer. onFlush receives the batch sorted by
// path once window passes with no new events.
func NewDebouncer(window time.Duration, onFlush func(batch []Change)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]ChangeType),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change to path.
func (d *Debouncer) Add(path string, change ChangeType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[path] = change

	if len(d.pending) >= MaxPendingFiles {
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		batch := d.takeLocked()
		d.mu.Unlock()
		d.emit(batch)
		d.mu.Lock()
		return
	}

	// A fired timer may already be waiting on the lock; flush tolerates an
	// empty pending set.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.emit(batch)
}

// takeLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []Change {
	if len(d.pending) == 0 {
		return nil
	}
	batch := make([]Change, 0, len(d.pending))
	for _, p := range util.SortedKeys(d.pending) {
		batch = append(batch, Change{Path: p, Type: d.pending[p]})
	}
	d.pending = make(map[string]ChangeType)
	return batch
}

// emit runs the handler outside the lock.
func (d *Debouncer) emit(batch []Change) {
	if len(batch) > 0 && d.onFlush != nil {
		d.onFlush(batch)
	}
}

// FlushNow flushes pending changes without waiting for the timer.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.emit(batch)
}

// Stop stops the debouncer and flushes what is pending.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.takeLocked()
	d.mu.Unlock()
	d.emit(batch)
}

// PendingCount returns the number of files waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Paths returns the paths of a batch.
func Paths(batch []Change) []string {
	out := make([]string, len(batch))
	for i, c := range batch {
		out[i] = c.Path
	}
	return out
}
