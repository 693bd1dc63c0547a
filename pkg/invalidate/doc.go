// Package invalidate decides, for an incremental binding-class build, which
// generated outputs must be regenerated.
//
// # Model
//
// Every layout-info input file maps to an output key: the file's base name up
// to the "-layout" marker, so item_row-layout.xml and item_row-layout-v21.xml
// both feed the item_row output. The previous build's LayoutInfoLog records,
// per output, the generated class info and the outputs it depends on.
//
// # Algorithm
//
// Compute seeds a dirty set with the keys of changed and removed inputs and
// with library keys whose class info changed since the last build, then walks
// the reverse dependency index with a worklist and a visited set until no new
// dependent is found. Each edge is visited at most once.
//
// Compute is a pure function of its Request. The previous state is handed in
// as a snapshot and every result is a fresh value; Workspace does the file
// I/O around it.
package invalidate
