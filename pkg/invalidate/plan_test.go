package invalidate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/bindinc/pkg/store"
)

func genClass(key string) store.GenClass {
	return store.GenClass{
		QName:         "com.example.databinding." + key + "Binding",
		ModulePackage: "com.example",
	}
}

// previousLog builds a log where every key has class info and deps maps each
// key to the keys it depends on.
func previousLog(keys []string, deps map[string][]string) *store.LayoutInfoLog {
	l := store.NewLayoutInfoLog()
	for _, k := range keys {
		l.ClassInfoLog.AddMapping(k, genClass(k))
	}
	for k, ds := range deps {
		for _, d := range ds {
			l.AddDependency(k, d)
		}
	}
	return l
}

func TestComputeIncludedLayoutInvalidatesIncluder(t *testing.T) {
	prev := previousLog(
		[]string{"item_row", "page_detail"},
		map[string][]string{"page_detail": {"item_row"}},
	)

	p := Compute(Request{
		Previous:    State{Log: prev},
		OutOfDate:   []string{"item_row-layout-v21.xml"},
		Incremental: true,
	})

	if diff := cmp.Diff([]string{"item_row", "page_detail"}, p.InvalidOutputs); diff != "" {
		t.Errorf("InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeEmptyFirstBuild(t *testing.T) {
	p := Compute(Request{Incremental: true})

	if !p.IsEmpty() {
		t.Errorf("InvalidOutputs = %v, want empty", p.InvalidOutputs)
	}
	if len(p.UnchangedLog.Keys()) != 0 {
		t.Errorf("UnchangedLog keys = %v, want empty", p.UnchangedLog.Keys())
	}
	if len(p.FilesToConsider) != 0 || len(p.InvalidatedClasses) != 0 {
		t.Errorf("plan should be empty, got %+v", p)
	}
}

func TestComputeTransitiveChain(t *testing.T) {
	// screen -> page -> card -> chip; unrelated stays valid.
	prev := previousLog(
		[]string{"chip", "card", "page", "screen", "unrelated"},
		map[string][]string{
			"card":   {"chip"},
			"page":   {"card"},
			"screen": {"page"},
		},
	)

	p := Compute(Request{
		Previous:    State{Log: prev},
		OutOfDate:   []string{"chip-layout.xml"},
		Incremental: true,
	})

	want := []string{"card", "chip", "page", "screen"}
	if diff := cmp.Diff(want, p.InvalidOutputs); diff != "" {
		t.Errorf("InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"unrelated"}, p.UnchangedLog.Keys()); diff != "" {
		t.Errorf("UnchangedLog keys mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeCycleTerminates(t *testing.T) {
	prev := previousLog(
		[]string{"a", "b", "c"},
		map[string][]string{"a": {"b"}, "b": {"a"}, "c": {"c"}},
	)

	p := Compute(Request{
		Previous:    State{Log: prev},
		OutOfDate:   []string{"a-layout.xml"},
		Incremental: true,
	})

	if diff := cmp.Diff([]string{"a", "b"}, p.InvalidOutputs); diff != "" {
		t.Errorf("InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeRemovedFile(t *testing.T) {
	prev := previousLog(
		[]string{"item_row", "page"},
		map[string][]string{"page": {"item_row"}},
	)

	p := Compute(Request{
		Previous:    State{Log: prev},
		InfoFiles:   []string{"page-layout.xml"},
		Removed:     []string{"item_row-layout.xml"},
		Incremental: true,
	})

	if diff := cmp.Diff([]string{"item_row", "page"}, p.InvalidOutputs); diff != "" {
		t.Errorf("InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
	// The removed file is gone, only the surviving includer is reprocessed.
	if diff := cmp.Diff([]string{"page-layout.xml"}, p.FilesToConsider); diff != "" {
		t.Errorf("FilesToConsider mismatch (-want +got):\n%s", diff)
	}
	wantDeleted := []string{
		"com.example.databinding.item_rowBinding",
		"com.example.databinding.pageBinding",
	}
	if diff := cmp.Diff(wantDeleted, p.InvalidatedClasses); diff != "" {
		t.Errorf("InvalidatedClasses mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeFilesToConsiderIncludesAllVariants(t *testing.T) {
	files := []string{
		"info/item_row-layout.xml",
		"info/item_row-layout-v21.xml",
		"info/item_row-layout-land.xml",
		"info/other-layout.xml",
	}

	p := Compute(Request{
		InfoFiles:   files,
		OutOfDate:   []string{"info/item_row-layout-land.xml"},
		Incremental: true,
	})

	want := []string{
		"info/item_row-layout-land.xml",
		"info/item_row-layout-v21.xml",
		"info/item_row-layout.xml",
	}
	if diff := cmp.Diff(want, p.FilesToConsider); diff != "" {
		t.Errorf("FilesToConsider mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeMalformedNameFallsBack(t *testing.T) {
	prev := previousLog([]string{"weird.xml", "ok"}, map[string][]string{"ok": {"weird.xml"}})

	p := Compute(Request{
		Previous:    State{Log: prev},
		OutOfDate:   []string{"weird.xml"},
		Incremental: true,
	})

	if diff := cmp.Diff([]string{"ok", "weird.xml"}, p.InvalidOutputs); diff != "" {
		t.Errorf("InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeUpdatedLibraryDeps(t *testing.T) {
	oldDeps := store.NewGenClassInfoLog()
	oldDeps.AddMapping("lib_header", store.GenClass{QName: "lib.HeaderBinding"})
	oldDeps.AddMapping("lib_footer", store.GenClass{QName: "lib.FooterBinding"})

	newDeps := oldDeps.Clone()
	newDeps.AddMapping("lib_header", store.GenClass{
		QName:     "lib.HeaderBinding",
		Variables: map[string]string{"title": "java.lang.String"},
	})

	prev := previousLog(
		[]string{"page", "list"},
		map[string][]string{"page": {"lib_header"}, "list": {"lib_footer"}},
	)

	p := Compute(Request{
		Previous:    State{Log: prev, Deps: oldDeps},
		Deps:        newDeps,
		Incremental: true,
	})

	if diff := cmp.Diff([]string{"lib_header"}, p.UpdatedDeps); diff != "" {
		t.Errorf("UpdatedDeps mismatch (-want +got):\n%s", diff)
	}
	if !p.IsInvalid("page") || p.IsInvalid("list") {
		t.Errorf("InvalidOutputs = %v, want page invalid and list valid", p.InvalidOutputs)
	}
}

func TestComputeExistingBindingClasses(t *testing.T) {
	deps := store.NewGenClassInfoLog()
	deps.AddMapping("lib_header", store.GenClass{QName: "lib.HeaderBinding"})
	prev := previousLog([]string{"a", "b"}, nil)

	inc := Compute(Request{
		Previous:    State{Log: prev, Deps: deps},
		Deps:        deps,
		OutOfDate:   []string{"a-layout.xml"},
		Incremental: true,
	})
	if diff := cmp.Diff([]string{"b", "lib_header"}, inc.ExistingBindingClasses.Keys()); diff != "" {
		t.Errorf("incremental ExistingBindingClasses mismatch (-want +got):\n%s", diff)
	}

	full := Compute(Request{
		Previous:  State{Log: prev, Deps: deps},
		Deps:      deps,
		InfoFiles: []string{"a-layout.xml", "b-layout.xml", "c-layout.xml"},
	})
	if diff := cmp.Diff([]string{"lib_header"}, full.ExistingBindingClasses.Keys()); diff != "" {
		t.Errorf("full ExistingBindingClasses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, full.InvalidOutputs); diff != "" {
		t.Errorf("full InvalidOutputs mismatch (-want +got):\n%s", diff)
	}
	if len(full.FilesToConsider) != 3 {
		t.Errorf("full build should consider every file, got %v", full.FilesToConsider)
	}
	if len(full.UnchangedLog.Keys()) != 0 {
		t.Errorf("full build carries nothing forward, got %v", full.UnchangedLog.Keys())
	}
}

func TestComputeDoesNotMutateRequest(t *testing.T) {
	prev := previousLog([]string{"a", "b"}, map[string][]string{"b": {"a"}})
	before := prev.Clone()
	deps := store.NewGenClassInfoLog()

	p := Compute(Request{
		Previous:    State{Log: prev},
		Deps:        deps,
		OutOfDate:   []string{"a-layout.xml"},
		Incremental: true,
	})
	p.UnchangedLog.AddDependency("x", "y")
	p.ExistingBindingClasses.AddMapping("z", store.GenClass{})

	if diff := cmp.Diff(before, prev); diff != "" {
		t.Errorf("previous log was mutated (-before +after):\n%s", diff)
	}
	if deps.Len() != 0 {
		t.Error("deps log was mutated")
	}
}

// TestComputeProperties checks the invalidation properties over a fixed set
// of graphs and change sets.
func TestComputeProperties(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e", "f"}
	graphs := []map[string][]string{
		{},
		{"b": {"a"}, "c": {"b"}, "d": {"c"}},
		{"b": {"a"}, "c": {"a"}, "d": {"b", "c"}, "f": {"e"}},
		{"a": {"f"}, "f": {"a"}, "e": {"d"}},
		{"a": {"b", "c", "d", "e", "f"}},
	}
	changeSets := [][]string{
		nil,
		{"a-layout.xml"},
		{"f-layout-v21.xml"},
		{"c-layout.xml", "e-layout-land.xml"},
	}

	for gi, g := range graphs {
		for ci, changed := range changeSets {
			prev := previousLog(keys, g)
			p := Compute(Request{
				Previous:    State{Log: prev},
				OutOfDate:   changed,
				Incremental: true,
			})

			// Monotonicity: every changed key is invalid.
			for _, f := range changed {
				key, _ := BareLayoutName(f)
				if !p.IsInvalid(key) {
					t.Errorf("graph %d changes %d: changed key %q not invalid", gi, ci, key)
				}
			}

			// Closure: A depends on B and B invalid implies A invalid.
			for a, deps := range g {
				for _, b := range deps {
					if p.IsInvalid(b) && !p.IsInvalid(a) {
						t.Errorf("graph %d changes %d: %q depends on invalid %q but is valid", gi, ci, a, b)
					}
				}
			}

			// Partition: unchanged and invalid are disjoint and cover every key.
			covered := make(map[string]bool)
			for _, k := range p.UnchangedLog.Keys() {
				if p.IsInvalid(k) {
					t.Errorf("graph %d changes %d: %q is both carried and invalid", gi, ci, k)
				}
				covered[k] = true
			}
			for _, k := range p.InvalidOutputs {
				covered[k] = true
			}
			for _, k := range prev.Keys() {
				if !covered[k] {
					t.Errorf("graph %d changes %d: known key %q is neither carried nor invalid", gi, ci, k)
				}
			}
		}
	}
}

func TestPlanMerge(t *testing.T) {
	prev := previousLog(
		[]string{"item_row", "page_detail", "other"},
		map[string][]string{"page_detail": {"item_row"}},
	)
	p := Compute(Request{
		Previous:    State{Log: prev},
		OutOfDate:   []string{"item_row-layout.xml"},
		Incremental: true,
	})

	generated := store.NewLayoutInfoLog()
	generated.ClassInfoLog.AddMapping("item_row", genClass("item_row"))
	generated.ClassInfoLog.AddMapping("page_detail", genClass("page_detail"))
	generated.AddDependency("page_detail", "item_row")

	merged, err := p.Merge(generated)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if diff := cmp.Diff(prev, merged); diff != "" {
		t.Errorf("merged log mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanMergeDangling(t *testing.T) {
	p := Compute(Request{OutOfDate: []string{"page-layout.xml"}, Incremental: true})

	generated := store.NewLayoutInfoLog()
	generated.ClassInfoLog.AddMapping("page", genClass("page"))
	generated.AddDependency("page", "missing_include")

	if _, err := p.Merge(generated); !errors.Is(err, ErrDanglingDependency) {
		t.Errorf("Merge() error = %v, want ErrDanglingDependency", err)
	}
}

func TestPlanMergeLibraryDependency(t *testing.T) {
	deps := store.NewGenClassInfoLog()
	deps.AddMapping("lib_header", store.GenClass{QName: "lib.HeaderBinding"})
	p := Compute(Request{Deps: deps, OutOfDate: []string{"page-layout.xml"}, Incremental: true})

	generated := store.NewLayoutInfoLog()
	generated.ClassInfoLog.AddMapping("page", genClass("page"))
	generated.AddDependency("page", "lib_header")

	if _, err := p.Merge(generated); err != nil {
		t.Errorf("Merge() error = %v, want nil for library dependency", err)
	}
}
