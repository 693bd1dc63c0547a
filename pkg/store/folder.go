package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// FindClassLists returns, sorted, the paths of every exported binding class
// list below dir. A missing dir yields no paths.
func FindClassLists(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*"+BindingClassListSuffix,
		doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list class lists in %s: %w", dir, err)
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	slices.Sort(paths)
	return paths, nil
}

// LoadClassInfoFromFolder merges every binding class list exported by
// upstream modules under dir. Files are read concurrently and merged in
// sorted path order, so a key defined twice resolves the same way each run.
func LoadClassInfoFromFolder(ctx context.Context, dir string) (*GenClassInfoLog, error) {
	paths, err := FindClassLists(dir)
	if err != nil {
		return nil, err
	}

	logs := make([]*GenClassInfoLog, len(paths))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := ReadGenClassInfoLog(p)
			if err != nil {
				return err
			}
			logs[i] = l
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := NewGenClassInfoLog()
	for _, l := range logs {
		merged.AddAll(l)
	}
	return merged, nil
}
