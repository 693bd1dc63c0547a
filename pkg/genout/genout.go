// Package genout is the boundary to the generated-sources directory. The
// generator that writes binding classes lives outside bindinc; bindinc only
// removes classes whose outputs were invalidated.
package genout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Writer deletes generated classes by qualified name.
type Writer interface {
	DeleteFile(qualifiedName string) error
}

// DirWriter maps qualified class names onto Java sources below Root.
type DirWriter struct {
	Root string
	Ext  string // defaults to ".java"

	mu      sync.Mutex
	deleted []string
}

// NewDirWriter creates a writer rooted at root.
func NewDirWriter(root string) *DirWriter {
	return &DirWriter{Root: root, Ext: ".java"}
}

// PathFor returns the source path for a qualified class name. Nested classes
// (Outer$Inner or Outer.Inner after the package) are not distinguished; the
// generated binding classes are always top level.
func (w *DirWriter) PathFor(qualifiedName string) (string, error) {
	qualifiedName = strings.TrimSpace(qualifiedName)
	if qualifiedName == "" || strings.HasPrefix(qualifiedName, ".") || strings.HasSuffix(qualifiedName, ".") {
		return "", fmt.Errorf("invalid class name %q", qualifiedName)
	}
	parts := strings.Split(qualifiedName, ".")
	for _, p := range parts {
		if p == "" || p == ".." || strings.ContainsAny(p, `/\`) {
			return "", fmt.Errorf("invalid class name %q", qualifiedName)
		}
	}
	ext := w.Ext
	if ext == "" {
		ext = ".java"
	}
	parts[len(parts)-1] += ext
	return filepath.Join(append([]string{w.Root}, parts...)...), nil
}

// DeleteFile removes the source for qualifiedName. A missing file is not an
// error.
func (w *DirWriter) DeleteFile(qualifiedName string) error {
	path, err := w.PathFor(qualifiedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	w.mu.Lock()
	w.deleted = append(w.deleted, path)
	w.mu.Unlock()
	return nil
}

// Deleted returns the paths removed so far.
func (w *DirWriter) Deleted() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.deleted...)
}
