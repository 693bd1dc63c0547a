package incremental

import (
	"path/filepath"
	"slices"

	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

// ChangeSet is the difference between two snapshots. Paths are relative to
// Root.
type ChangeSet struct {
	Root     string   `json:"root,omitempty"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// NewChangeSet creates an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
	}
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	if cs == nil {
		return true
	}
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// TotalChanges returns the total number of changed files.
func (cs *ChangeSet) TotalChanges() int {
	if cs == nil {
		return 0
	}
	return len(cs.Added) + len(cs.Modified) + len(cs.Deleted)
}

// OutOfDate returns added and modified files, joined with Root, sorted.
func (cs *ChangeSet) OutOfDate() []string {
	if cs == nil {
		return nil
	}
	out := cs.join(cs.Added)
	out = append(out, cs.join(cs.Modified)...)
	slices.Sort(out)
	return out
}

// Removed returns deleted files joined with Root.
func (cs *ChangeSet) Removed() []string {
	if cs == nil {
		return nil
	}
	return cs.join(cs.Deleted)
}

// Changes converts the set to the form the invalidation engine consumes.
func (cs *ChangeSet) Changes() invalidate.Changes {
	return invalidate.Changes{
		OutOfDate: cs.OutOfDate(),
		Removed:   cs.Removed(),
	}
}

func (cs *ChangeSet) join(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Join(cs.Root, filepath.FromSlash(p))
	}
	return out
}

// sort sorts all slices for deterministic output.
func (cs *ChangeSet) sort() {
	if cs == nil {
		return
	}
	slices.Sort(cs.Added)
	slices.Sort(cs.Modified)
	slices.Sort(cs.Deleted)
}
