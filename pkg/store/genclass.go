package store

import (
	"cmp"
	"maps"
	"slices"

	"github.com/albertocavalcante/bindinc/pkg/util"
)

// GenClass describes the class generated for one output key.
type GenClass struct {
	QName           string            `json:"qualified_name"`
	ModulePackage   string            `json:"module_package"`
	Variables       map[string]string `json:"variables,omitempty"`       // variable name -> type
	Implementations []GenClassImpl    `json:"implementations,omitempty"` // per-configuration impls
}

// GenClassImpl is one configuration-specific implementation of a GenClass.
type GenClassImpl struct {
	Tag           string `json:"tag"`
	Merged        bool   `json:"merged"`
	QualifiedName string `json:"qualified_name"`
}

// Equal reports structural equality. Implementations are compared as a set
// and nil collections equal empty ones.
func (c GenClass) Equal(o GenClass) bool {
	if c.QName != o.QName || c.ModulePackage != o.ModulePackage {
		return false
	}
	if !maps.Equal(c.Variables, o.Variables) {
		return false
	}
	return slices.Equal(sortedImpls(c.Implementations), sortedImpls(o.Implementations))
}

func sortedImpls(impls []GenClassImpl) []GenClassImpl {
	out := slices.Clone(impls)
	slices.SortFunc(out, func(a, b GenClassImpl) int {
		if c := cmp.Compare(a.Tag, b.Tag); c != 0 {
			return c
		}
		if c := cmp.Compare(a.QualifiedName, b.QualifiedName); c != 0 {
			return c
		}
		switch {
		case a.Merged == b.Merged:
			return 0
		case b.Merged:
			return -1
		default:
			return 1
		}
	})
	return slices.Compact(out)
}

func (c GenClass) clone() GenClass {
	c.Variables = maps.Clone(c.Variables)
	c.Implementations = slices.Clone(c.Implementations)
	return c
}

// GenClassInfoLog maps output keys to generated class metadata.
type GenClassInfoLog struct {
	Mappings map[string]GenClass `json:"mappings"`
}

// NewGenClassInfoLog creates an empty log.
func NewGenClassInfoLog() *GenClassInfoLog {
	return &GenClassInfoLog{Mappings: make(map[string]GenClass)}
}

// ReadGenClassInfoLog loads a log from path. A missing file yields an empty log.
func ReadGenClassInfoLog(path string) (*GenClassInfoLog, error) {
	l := NewGenClassInfoLog()
	if _, err := readJSON(path, l); err != nil {
		return nil, err
	}
	if l.Mappings == nil {
		l.Mappings = make(map[string]GenClass)
	}
	return l, nil
}

// Write persists the log to path.
func (l *GenClassInfoLog) Write(path string) error {
	if l == nil {
		l = NewGenClassInfoLog()
	}
	return writeJSON(path, l)
}

// AddMapping adds or replaces the class info for key.
func (l *GenClassInfoLog) AddMapping(key string, c GenClass) {
	if l == nil {
		return
	}
	if l.Mappings == nil {
		l.Mappings = make(map[string]GenClass)
	}
	l.Mappings[key] = c.clone()
}

// AddAll copies every mapping of other into l. Entries of other win.
func (l *GenClassInfoLog) AddAll(other *GenClassInfoLog) {
	if l == nil || other == nil {
		return
	}
	for k, c := range other.Mappings {
		l.AddMapping(k, c)
	}
}

// Get returns the class info for key.
func (l *GenClassInfoLog) Get(key string) (GenClass, bool) {
	if l == nil || l.Mappings == nil {
		return GenClass{}, false
	}
	c, ok := l.Mappings[key]
	return c, ok
}

// Has reports whether key is mapped.
func (l *GenClassInfoLog) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Keys returns the mapped keys in sorted order.
func (l *GenClassInfoLog) Keys() []string {
	if l == nil {
		return nil
	}
	return util.SortedKeys(l.Mappings)
}

// Len returns the number of mappings.
func (l *GenClassInfoLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Mappings)
}

// Clone returns a deep copy.
func (l *GenClassInfoLog) Clone() *GenClassInfoLog {
	out := NewGenClassInfoLog()
	out.AddAll(l)
	return out
}

// Diff returns, sorted, the keys whose class info differs between l and
// other: keys present on one side only, and keys mapped to unequal classes.
func (l *GenClassInfoLog) Diff(other *GenClassInfoLog) []string {
	changed := make(map[string]struct{})
	for _, k := range l.Keys() {
		mine, _ := l.Get(k)
		theirs, ok := other.Get(k)
		if !ok || !mine.Equal(theirs) {
			changed[k] = struct{}{}
		}
	}
	for _, k := range other.Keys() {
		if !l.Has(k) {
			changed[k] = struct{}{}
		}
	}
	return util.SortedKeys(changed)
}
