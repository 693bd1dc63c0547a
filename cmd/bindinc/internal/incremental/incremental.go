package incremental

import (
	"context"
	"fmt"

	"github.com/albertocavalcante/bindinc/internal/log"
)

// Tracker derives the change set of the info folder since the last Refresh.
type Tracker struct {
	store   Store
	scanner *Scanner
}

// NewTracker tracks files under infoFolder matching include, keeping its
// snapshot in logFolder.
func NewTracker(infoFolder, logFolder string, include []string) *Tracker {
	return &Tracker{
		store:   NewJSONStore(logFolder),
		scanner: NewScanner(ScanConfig{Root: infoFolder, Include: include}),
	}
}

// Scanner returns the tracker's scanner.
func (t *Tracker) Scanner() *Scanner {
	return t.scanner
}

// Status reports changes without modifying state. Files whose mtime and
// size are unchanged are not hashed.
func (t *Tracker) Status(ctx context.Context) (*ChangeSet, error) {
	oldIdx, err := t.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	fastIdx, err := t.scanner.ScanFast(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan info folder: %w", err)
	}

	logger := log.Component("tracker")
	cs := diff(oldIdx, fastIdx, func(p string, old, _ *Entry) bool {
		hash, err := HashFile(t.scanner.abs(p))
		if err != nil {
			logger.Warn("cannot hash input, treating as modified", "path", p, "error", err)
			return true
		}
		return old.Hash != hash
	})
	cs.Root = t.scanner.Root()

	logger.Debug("computed input changes",
		"added", len(cs.Added), "modified", len(cs.Modified), "deleted", len(cs.Deleted))
	return cs, nil
}

// Refresh snapshots the current info folder. Call it after a successful
// commit.
func (t *Tracker) Refresh(ctx context.Context) error {
	idx, err := t.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan info folder: %w", err)
	}
	if err := t.store.Save(idx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	log.Component("tracker").Debug("refreshed input snapshot", "files", idx.Len())
	return nil
}

// HasState returns true if a previous snapshot exists.
func (t *Tracker) HasState() bool {
	return t.store.Exists()
}

// TrackedFileCount returns the number of files in the stored snapshot, or 0
// when there is none or it cannot be read.
func (t *Tracker) TrackedFileCount() int {
	idx, err := t.store.Load()
	if err != nil {
		return 0
	}
	return idx.Len()
}

// Clear removes the snapshot.
func (t *Tracker) Clear() error {
	return t.store.Clear()
}
