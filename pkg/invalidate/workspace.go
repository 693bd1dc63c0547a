package invalidate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/albertocavalcante/bindinc/internal/log"
	"github.com/albertocavalcante/bindinc/pkg/genout"
	"github.com/albertocavalcante/bindinc/pkg/store"
	"github.com/albertocavalcante/bindinc/pkg/util"
)

// DefaultInclude selects layout-info files below the info folder.
var DefaultInclude = []string{"**/*.xml"}

// Args locates the inputs and outputs of one module's build.
type Args struct {
	// InfoFolder holds the layout-info files produced upstream.
	InfoFolder string
	// DependencyClassesFolder holds class lists exported by library modules.
	DependencyClassesFolder string
	// ArtifactFolder receives this module's exported class list.
	ArtifactFolder string
	// LogFolder holds the persisted logs between builds.
	LogFolder string

	PackageName string

	// Include are doublestar patterns relative to InfoFolder.
	Include []string

	Incremental bool
}

// Changes are the input files the build system reports since the last build.
type Changes struct {
	OutOfDate []string `json:"out_of_date"`
	Removed   []string `json:"removed"`
}

// IsEmpty reports whether no change was reported.
func (c Changes) IsEmpty() bool {
	return len(c.OutOfDate) == 0 && len(c.Removed) == 0
}

// Workspace performs the file I/O around Compute for one module.
type Workspace struct {
	args Args
}

// NewWorkspace validates args and returns a workspace.
func NewWorkspace(args Args) (*Workspace, error) {
	var missing []string
	if strings.TrimSpace(args.InfoFolder) == "" {
		missing = append(missing, "info folder")
	}
	if strings.TrimSpace(args.LogFolder) == "" {
		missing = append(missing, "log folder")
	}
	if strings.TrimSpace(args.PackageName) == "" {
		missing = append(missing, "package name")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid workspace: missing %s", strings.Join(missing, ", "))
	}
	if len(args.Include) == 0 {
		args.Include = DefaultInclude
	}
	for _, pattern := range args.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	return &Workspace{args: args}, nil
}

// Args returns the workspace arguments.
func (w *Workspace) Args() Args {
	return w.args
}

// LogPath is the module's persisted LayoutInfoLog.
func (w *Workspace) LogPath() string {
	return filepath.Join(w.args.LogFolder, store.LogFileName)
}

// DepsLogPath is the persisted snapshot of library class infos.
func (w *Workspace) DepsLogPath() string {
	return filepath.Join(w.args.LogFolder, store.DepsLogFileName)
}

// ClassListPath is the exported class list, or "" without an artifact folder.
func (w *Workspace) ClassListPath() string {
	if w.args.ArtifactFolder == "" {
		return ""
	}
	return filepath.Join(w.args.ArtifactFolder, store.ClassListFileName(w.args.PackageName))
}

// LoadState reads the previous build's state. Missing files yield an empty
// state.
func (w *Workspace) LoadState() (State, error) {
	l, err := store.ReadLayoutInfoLog(w.LogPath())
	if err != nil {
		return State{}, fmt.Errorf("failed to load build log: %w", err)
	}
	deps, err := store.ReadGenClassInfoLog(w.DepsLogPath())
	if err != nil {
		return State{}, fmt.Errorf("failed to load dependency log: %w", err)
	}
	return State{Log: l, Deps: deps}, nil
}

// LoadDeps reads the class lists exported by library dependencies.
func (w *Workspace) LoadDeps(ctx context.Context) (*store.GenClassInfoLog, error) {
	deps, err := store.LoadClassInfoFromFolder(ctx, w.args.DependencyClassesFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependency class infos: %w", err)
	}
	return deps, nil
}

// InfoFiles lists layout-info files matching the include patterns, sorted.
// A missing info folder yields no files.
func (w *Workspace) InfoFiles() ([]string, error) {
	root := w.args.InfoFolder
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat info folder: %w", err)
	}

	fsys := os.DirFS(root)
	var files []string
	for _, pattern := range w.args.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			files = append(files, filepath.Join(root, filepath.FromSlash(m)))
		}
	}
	return util.SortedUnique(files), nil
}

// Request assembles a Compute request from disk and the reported changes.
func (w *Workspace) Request(ctx context.Context, changes Changes) (Request, error) {
	prev, err := w.LoadState()
	if err != nil {
		return Request{}, err
	}
	deps, err := w.LoadDeps(ctx)
	if err != nil {
		return Request{}, err
	}
	files, err := w.InfoFiles()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Previous:    prev,
		Deps:        deps,
		InfoFiles:   files,
		OutOfDate:   changes.OutOfDate,
		Removed:     changes.Removed,
		Incremental: w.args.Incremental,
	}, nil
}

// Plan loads the previous state and computes the invalidation plan.
func (w *Workspace) Plan(ctx context.Context, changes Changes) (*Plan, error) {
	req, err := w.Request(ctx, changes)
	if err != nil {
		return nil, err
	}
	return Compute(req), nil
}

// DeleteStale asks wr to delete every class invalidated by p.
func (w *Workspace) DeleteStale(p *Plan, wr genout.Writer) error {
	var errs []error
	for _, qName := range p.InvalidatedClasses {
		if err := wr.DeleteFile(qName); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save persists merged as the new build state together with the library
// class infos of p, and exports the module's class list. The build log is
// written before the dependency snapshot: a crash in between leaves an old
// snapshot, which only over-invalidates on the next build.
func (w *Workspace) Save(p *Plan, merged *store.LayoutInfoLog) error {
	logger := log.Component("invalidate")

	if path := w.ClassListPath(); path != "" {
		exported := p.Deps.Clone()
		exported.AddAll(merged.ClassInfoLog)
		if err := exported.Write(path); err != nil {
			return fmt.Errorf("failed to export class list: %w", err)
		}
		logger.Info("exported class list", "path", path, "classes", exported.Len())
	}

	if err := merged.Write(w.LogPath()); err != nil {
		return fmt.Errorf("failed to save build log: %w", err)
	}
	if err := p.Deps.Write(w.DepsLogPath()); err != nil {
		return fmt.Errorf("failed to save dependency log: %w", err)
	}
	logger.Info("saved build state", "outputs", merged.ClassInfoLog.Len())
	return nil
}

// Commit merges the generator's output into p and saves the result. Nothing
// is written when the merge fails.
func (w *Workspace) Commit(p *Plan, generated *store.LayoutInfoLog) (*store.LayoutInfoLog, error) {
	merged, err := p.Merge(generated)
	if err != nil {
		return nil, err
	}
	if err := w.Save(p, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Clear removes the persisted logs so the next build starts from scratch.
func (w *Workspace) Clear() error {
	var errs []error
	for _, path := range []string{w.LogPath(), w.DepsLogPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
