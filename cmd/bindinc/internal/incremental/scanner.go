package incremental

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/bindinc/pkg/util"
)

// ScanConfig configures the scanner.
type ScanConfig struct {
	// Root is the folder holding the layout-info files.
	Root string
	// Include are doublestar patterns relative to Root.
	Include []string
}

// Scanner builds an Index from the files under Root matching Include.
type Scanner struct {
	root    string
	include []string
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScanConfig) *Scanner {
	return &Scanner{
		root:    cfg.Root,
		include: slices.Clone(cfg.Include),
	}
}

// Root returns the scanned folder.
func (s *Scanner) Root() string {
	return s.root
}

// Scan stats and hashes every matching file.
func (s *Scanner) Scan(ctx context.Context) (*Index, error) {
	idx, err := s.ScanFast(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, p := range util.SortedKeys(idx.Entries) {
		e := idx.Entries[p]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hash, err := HashFile(s.abs(e.Path))
			if err != nil {
				return err
			}
			e.Hash = hash
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return idx, nil
}

// ScanFast records mtime and size only. Hash is left empty.
func (s *Scanner) ScanFast(ctx context.Context) (*Index, error) {
	idx := NewIndex()
	idx.Include = slices.Clone(s.include)

	if _, err := os.Stat(s.root); errors.Is(err, fs.ErrNotExist) {
		return idx, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", s.root, err)
	}

	fsys := os.DirFS(s.root)
	for _, pattern := range s.include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, seen := idx.Get(m); seen {
				continue
			}
			info, err := fs.Stat(fsys, m)
			if err != nil {
				return nil, err
			}
			idx.Add(&Entry{
				Path:    m,
				ModTime: info.ModTime().UnixNano(),
				Size:    info.Size(),
			})
		}
	}
	return idx, nil
}

// Matches reports whether an absolute or root-relative path is tracked.
func (s *Scanner) Matches(p string) bool {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(s.root, p)
		if err != nil || !filepath.IsLocal(rel) {
			return false
		}
		p = rel
	}
	p = path.Clean(filepath.ToSlash(p))
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
