// Package store holds the logs that an incremental binding-class build
// persists between runs, and their JSON encoding.
//
// Three artifacts live here:
//
//   - GenClassInfoLog maps an output key (the bare layout name) to the
//     metadata of the class generated for it.
//   - LayoutInfoLog pairs a GenClassInfoLog with the dependency log: which
//     outputs include which other outputs.
//   - The binding class list (<package>-binding_classes.json) a module
//     exports so that downstream modules can reference its classes.
//
// All files are JSON with lower_case_with_underscores field names. Reading a
// missing file yields an empty log; writes go through a temp file and a
// rename so a crash never leaves a torn file behind.
package store

const (
	// LogFileName is the module's own LayoutInfoLog inside the log folder.
	LogFileName = "base_builder_log.json"

	// DepsLogFileName is the snapshot of library dependency class infos seen
	// by the last successful build.
	DepsLogFileName = "deps_log.json"

	// BindingClassListSuffix names exported class lists: <package><suffix>.
	BindingClassListSuffix = "-binding_classes.json"
)

// ClassListFileName returns the exported class list file name for a package.
func ClassListFileName(modulePackage string) string {
	return modulePackage + BindingClassListSuffix
}
