package invalidate

import (
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/bindinc/internal/log"
)

// layoutMarker separates the output key from configuration qualifiers in
// layout-info file names.
const layoutMarker = "-layout"

// BareLayoutName derives the output key for a layout-info file. When the
// name has no "-layout" marker it logs an error and falls back to the raw
// base name, reporting ok=false.
func BareLayoutName(file string) (key string, ok bool) {
	name := filepath.Base(file)
	i := strings.Index(name, layoutMarker)
	if i < 0 {
		log.Component("invalidate").Error("unexpected layout file name", "file", file)
		return name, false
	}
	return name[:i], true
}

// GroupByKey groups files by output key. Files within a group keep their
// input order.
func GroupByKey(files []string) map[string][]string {
	groups := make(map[string][]string)
	for _, f := range files {
		key, _ := BareLayoutName(f)
		groups[key] = append(groups[key], f)
	}
	return groups
}
