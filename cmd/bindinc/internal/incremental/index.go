package incremental

import (
	"time"
)

// IndexVersion is the current version of the snapshot format.
const IndexVersion = 1

// Index is a snapshot of the tracked input files.
type Index struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Include   []string          `json:"include"`
	Entries   map[string]*Entry `json:"entries"`
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Version:   IndexVersion,
		UpdatedAt: time.Now(),
		Entries:   make(map[string]*Entry),
	}
}

// Add adds or replaces an entry.
func (idx *Index) Add(e *Entry) {
	if idx == nil || e == nil {
		return
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	idx.Entries[e.Path] = e
}

// Get retrieves an entry by path.
func (idx *Index) Get(path string) (*Entry, bool) {
	if idx == nil || idx.Entries == nil {
		return nil, false
	}
	e, ok := idx.Entries[path]
	return e, ok
}

// Len returns the number of tracked files.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Diff compares idx (old) with other (new). Both must carry hashes.
func (idx *Index) Diff(other *Index) *ChangeSet {
	return diff(idx, other, func(_ string, old, cur *Entry) bool {
		return old.Hash != cur.Hash
	})
}

// diff classifies paths. changed is consulted only for paths present in
// both indexes whose mtime or size differ.
func diff(oldIdx, newIdx *Index, changed func(path string, old, cur *Entry) bool) *ChangeSet {
	cs := NewChangeSet()

	var oldEntries, newEntries map[string]*Entry
	if oldIdx != nil {
		oldEntries = oldIdx.Entries
	}
	if newIdx != nil {
		newEntries = newIdx.Entries
	}

	for path, cur := range newEntries {
		old, exists := oldEntries[path]
		if !exists {
			cs.Added = append(cs.Added, path)
			continue
		}
		if old.sameStat(cur) {
			continue
		}
		if changed(path, old, cur) {
			cs.Modified = append(cs.Modified, path)
		}
	}
	for path := range oldEntries {
		if _, exists := newEntries[path]; !exists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	cs.sort()
	return cs
}
