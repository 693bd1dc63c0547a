package invalidate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/albertocavalcante/bindinc/internal/log"
	"github.com/albertocavalcante/bindinc/pkg/store"
	"github.com/albertocavalcante/bindinc/pkg/util"
)

// ErrDanglingDependency is returned by Merge when a dependency targets a key
// with no class info.
var ErrDanglingDependency = errors.New("dangling dependency")

// State is the persisted outcome of the previous successful build.
type State struct {
	// Log is the module's class infos and dependency log.
	Log *store.LayoutInfoLog
	// Deps is the library dependency class-info log the build saw.
	Deps *store.GenClassInfoLog
}

// Request is everything Compute needs. Compute never modifies it.
type Request struct {
	Previous State

	// Deps is the current library dependency class-info log.
	Deps *store.GenClassInfoLog

	// InfoFiles lists every layout-info file currently present.
	InfoFiles []string

	OutOfDate []string
	Removed   []string

	Incremental bool
}

// Plan is the result of Compute.
type Plan struct {
	Incremental bool `json:"incremental"`

	// InvalidOutputs are the output keys to regenerate, sorted.
	InvalidOutputs []string `json:"invalid_outputs"`

	// FilesToConsider are the info files to hand to the generator, sorted.
	FilesToConsider []string `json:"files_to_consider"`

	// InvalidatedClasses are qualified names of previously generated classes
	// that belong to invalid outputs and must be deleted, sorted.
	InvalidatedClasses []string `json:"invalidated_classes"`

	// UpdatedDeps are library keys whose class info changed, sorted.
	UpdatedDeps []string `json:"updated_deps,omitempty"`

	// UnchangedLog is the previous log restricted to valid keys.
	UnchangedLog *store.LayoutInfoLog `json:"-"`

	// ExistingBindingClasses is the lookup context for the generator:
	// library class infos plus, when incremental, carried-forward ones.
	ExistingBindingClasses *store.GenClassInfoLog `json:"-"`

	// Deps is the library class-info log the plan was computed against.
	Deps *store.GenClassInfoLog `json:"-"`
}

// Compute derives the plan for req.
func Compute(req Request) *Plan {
	logger := log.Component("invalidate")

	prev := req.Previous.Log
	if prev == nil {
		prev = store.NewLayoutInfoLog()
	}
	deps := req.Deps
	if deps == nil {
		deps = store.NewGenClassInfoLog()
	}

	groups := GroupByKey(req.InfoFiles)
	updatedDeps := req.Previous.Deps.Diff(deps)

	var dirty map[string]struct{}
	if req.Incremental {
		seeds := make([]string, 0, len(req.OutOfDate)+len(req.Removed)+len(updatedDeps))
		for _, f := range req.OutOfDate {
			key, _ := BareLayoutName(f)
			seeds = append(seeds, key)
		}
		for _, f := range req.Removed {
			key, _ := BareLayoutName(f)
			seeds = append(seeds, key)
		}
		seeds = append(seeds, updatedDeps...)
		dirty = closure(prev, seeds)
		log.Trace("invalidation closure", "component", "invalidate",
			"seeds", util.SortedUnique(seeds), "invalid", util.SortedKeys(dirty))
	} else {
		dirty = make(map[string]struct{})
		for _, k := range prev.Keys() {
			dirty[k] = struct{}{}
		}
		for k := range groups {
			dirty[k] = struct{}{}
		}
	}

	p := &Plan{
		Incremental:     req.Incremental,
		InvalidOutputs:  util.SortedKeys(dirty),
		FilesToConsider: filesFor(groups, dirty),
		UpdatedDeps:     updatedDeps,
		UnchangedLog:    carryForward(prev, dirty),
		Deps:            deps.Clone(),
	}

	for _, key := range p.InvalidOutputs {
		if c, ok := prev.ClassInfoLog.Get(key); ok && c.QName != "" {
			p.InvalidatedClasses = append(p.InvalidatedClasses, c.QName)
		}
	}
	p.InvalidatedClasses = util.SortedUnique(p.InvalidatedClasses)

	p.ExistingBindingClasses = deps.Clone()
	if req.Incremental {
		p.ExistingBindingClasses.AddAll(p.UnchangedLog.ClassInfoLog)
	}

	logger.Info("computed invalidation plan",
		"incremental", req.Incremental,
		"invalid", len(p.InvalidOutputs),
		"files", len(p.FilesToConsider),
		"carried", p.UnchangedLog.ClassInfoLog.Len(),
		"updated_deps", len(updatedDeps))
	return p
}

// closure returns seeds plus every key that transitively depends on one of
// them according to prev.
func closure(prev *store.LayoutInfoLog, seeds []string) map[string]struct{} {
	dependents := prev.Dependents()
	visited := make(map[string]struct{}, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := visited[s]; ok {
			continue
		}
		visited[s] = struct{}{}
		queue = append(queue, s)
	}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		for _, d := range dependents[key] {
			if _, ok := visited[d]; ok {
				continue
			}
			visited[d] = struct{}{}
			queue = append(queue, d)
		}
	}
	return visited
}

func filesFor(groups map[string][]string, dirty map[string]struct{}) []string {
	var files []string
	for key := range dirty {
		files = append(files, groups[key]...)
	}
	return util.SortedUnique(files)
}

// carryForward copies class infos and dependencies of every key not in dirty.
func carryForward(prev *store.LayoutInfoLog, dirty map[string]struct{}) *store.LayoutInfoLog {
	out := store.NewLayoutInfoLog()
	for _, key := range prev.Keys() {
		if _, ok := dirty[key]; ok {
			continue
		}
		if c, ok := prev.ClassInfoLog.Get(key); ok {
			out.ClassInfoLog.AddMapping(key, c)
		}
		for _, dep := range prev.GetDependencies(key) {
			out.AddDependency(key, dep)
		}
	}
	return out
}

// IsInvalid reports whether key is in InvalidOutputs.
func (p *Plan) IsInvalid(key string) bool {
	if p == nil {
		return false
	}
	_, found := slices.BinarySearch(p.InvalidOutputs, key)
	return found
}

// IsEmpty reports whether nothing needs regenerating.
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.InvalidOutputs) == 0
}

// Merge combines the carried-forward log with what the generator produced in
// this pass and returns the new state. It fails if any dependency points at a
// key with no class info in the result or in the library dependencies.
func (p *Plan) Merge(generated *store.LayoutInfoLog) (*store.LayoutInfoLog, error) {
	merged := p.UnchangedLog.Clone()
	merged.AddAll(generated)

	logger := log.Component("invalidate")
	for _, key := range generated.Keys() {
		if !p.IsInvalid(key) {
			logger.Warn("generated output was not invalidated by the plan", "key", key)
		}
	}

	if dangling := merged.DanglingDependencies(p.Deps); len(dangling) > 0 {
		d := dangling[0]
		return nil, fmt.Errorf("%w: %s depends on %s (%d total)",
			ErrDanglingDependency, d.Key, d.Dependency, len(dangling))
	}
	return merged, nil
}
