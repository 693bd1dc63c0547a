package store

import (
	"slices"

	"github.com/albertocavalcante/bindinc/pkg/util"
)

// LayoutInfoLog is the persisted state of one module's binding-class build:
// class info per output plus the dependency log between outputs.
type LayoutInfoLog struct {
	ClassInfoLog *GenClassInfoLog `json:"class_infos"`

	// Dependencies maps an output key to the sorted, unique keys whose
	// generated classes it references (e.g. layouts it includes).
	Dependencies map[string][]string `json:"dependencies"`
}

// Dangling is a recorded dependency whose target has no class info.
type Dangling struct {
	Key        string `json:"key"`
	Dependency string `json:"dependency"`
}

// NewLayoutInfoLog creates an empty log.
func NewLayoutInfoLog() *LayoutInfoLog {
	return &LayoutInfoLog{
		ClassInfoLog: NewGenClassInfoLog(),
		Dependencies: make(map[string][]string),
	}
}

// ReadLayoutInfoLog loads a log from path. A missing file yields an empty log.
func ReadLayoutInfoLog(path string) (*LayoutInfoLog, error) {
	l := NewLayoutInfoLog()
	if _, err := readJSON(path, l); err != nil {
		return nil, err
	}
	l.normalize()
	return l, nil
}

// Write persists the log to path.
func (l *LayoutInfoLog) Write(path string) error {
	if l == nil {
		l = NewLayoutInfoLog()
	}
	return writeJSON(path, l)
}

func (l *LayoutInfoLog) normalize() {
	if l.ClassInfoLog == nil {
		l.ClassInfoLog = NewGenClassInfoLog()
	}
	if l.ClassInfoLog.Mappings == nil {
		l.ClassInfoLog.Mappings = make(map[string]GenClass)
	}
	if l.Dependencies == nil {
		l.Dependencies = make(map[string][]string)
	}
	for k, deps := range l.Dependencies {
		if len(deps) == 0 {
			delete(l.Dependencies, k)
			continue
		}
		l.Dependencies[k] = util.SortedUnique(deps)
	}
}

// AddDependency records that key depends on dep.
func (l *LayoutInfoLog) AddDependency(key, dep string) {
	if l == nil {
		return
	}
	if l.Dependencies == nil {
		l.Dependencies = make(map[string][]string)
	}
	deps := l.Dependencies[key]
	i, found := slices.BinarySearch(deps, dep)
	if found {
		return
	}
	l.Dependencies[key] = slices.Insert(deps, i, dep)
}

// GetDependencies returns the sorted keys that key depends on.
func (l *LayoutInfoLog) GetDependencies(key string) []string {
	if l == nil || l.Dependencies == nil {
		return nil
	}
	return slices.Clone(l.Dependencies[key])
}

// Dependents returns the reverse dependency index: for every recorded
// dependency target, the sorted keys that depend on it.
func (l *LayoutInfoLog) Dependents() map[string][]string {
	rev := make(map[string][]string)
	if l == nil {
		return rev
	}
	for _, key := range util.SortedKeys(l.Dependencies) {
		for _, dep := range l.Dependencies[key] {
			rev[dep] = append(rev[dep], key)
		}
	}
	return rev
}

// AddAll merges other into l: class infos are replaced per key and
// dependency sets are unioned.
func (l *LayoutInfoLog) AddAll(other *LayoutInfoLog) {
	if l == nil || other == nil {
		return
	}
	if l.ClassInfoLog == nil {
		l.ClassInfoLog = NewGenClassInfoLog()
	}
	l.ClassInfoLog.AddAll(other.ClassInfoLog)
	for key, deps := range other.Dependencies {
		for _, dep := range deps {
			l.AddDependency(key, dep)
		}
	}
}

// Clone returns a deep copy.
func (l *LayoutInfoLog) Clone() *LayoutInfoLog {
	out := NewLayoutInfoLog()
	out.AddAll(l)
	return out
}

// Keys returns every output key known to the log, i.e. keys with class info
// or with recorded dependencies, sorted.
func (l *LayoutInfoLog) Keys() []string {
	if l == nil {
		return nil
	}
	keys := make(map[string]struct{})
	for _, k := range l.ClassInfoLog.Keys() {
		keys[k] = struct{}{}
	}
	for k := range l.Dependencies {
		keys[k] = struct{}{}
	}
	return util.SortedKeys(keys)
}

// DanglingDependencies lists dependency edges whose target has class info
// neither in l nor in any of the extra logs.
func (l *LayoutInfoLog) DanglingDependencies(extra ...*GenClassInfoLog) []Dangling {
	if l == nil {
		return nil
	}
	var out []Dangling
	for _, key := range util.SortedKeys(l.Dependencies) {
		for _, dep := range l.Dependencies[key] {
			if l.ClassInfoLog.Has(dep) || anyHas(extra, dep) {
				continue
			}
			out = append(out, Dangling{Key: key, Dependency: dep})
		}
	}
	return out
}

func anyHas(logs []*GenClassInfoLog, key string) bool {
	for _, l := range logs {
		if l.Has(key) {
			return true
		}
	}
	return false
}
