package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

var palette = map[ChangeType]string{
	ChangeAdded:    "\033[32m",
	ChangeModified: "\033[33m",
	ChangeDeleted:  "\033[31m",
}

// PlanSummary is what the logger reports after a re-plan.
type PlanSummary struct {
	Incremental        bool     `json:"incremental"`
	InvalidOutputs     []string `json:"invalid_outputs"`
	FilesToConsider    int      `json:"files_to_consider"`
	InvalidatedClasses []string `json:"invalidated_classes"`
	UpdatedDeps        []string `json:"updated_deps"`
}

// event is one line of JSON watch output.
type event struct {
	Event    string       `json:"event"`
	Time     string       `json:"time,omitempty"`
	Path     string       `json:"path,omitempty"`
	Change   ChangeType   `json:"change,omitempty"`
	Files    []string     `json:"files,omitempty"`
	Count    int          `json:"count,omitempty"`
	Include  []string     `json:"include,omitempty"`
	Plan     *PlanSummary `json:"plan,omitempty"`
	Error    string       `json:"error,omitempty"`
	Plans    *int64       `json:"plans,omitempty"`
	Errors   *int64       `json:"errors,omitempty"`
	Duration string       `json:"duration,omitempty"`
}

// Logger writes watch progress for humans or as JSON lines. It is separate
// from the slog diagnostics on stderr.
type Logger struct {
	out     io.Writer
	color   bool
	verbose bool
	json    bool
	started time.Time

	plans  atomic.Int64
	errors atomic.Int64
}

// NewLogger builds the output logger for cfg. Color is used only when the
// writer is a terminal and NoColor is unset.
func NewLogger(cfg Config) *Logger {
	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}
	color := false
	if f, ok := out.(*os.File); ok && !cfg.NoColor {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Logger{
		out:     out,
		color:   color,
		verbose: cfg.Verbose,
		json:    cfg.JSON,
		started: time.Now(),
	}
}

// Ready reports the initial scan.
func (l *Logger) Ready(fileCount int, include []string, path string) {
	if l.json {
		l.emit(event{Event: "ready", Count: fileCount, Include: include, Path: path})
		return
	}
	l.printf("bindinc: watching %d layout-info files in %s\n", fileCount, path)
	if len(include) > 0 {
		l.printf("bindinc: include: %s\n", strings.Join(include, ", "))
	}
	l.printf("bindinc: ready\n\n")
}

// FileChanged reports one file event. Text output shows it only when verbose.
func (l *Logger) FileChanged(path string, change ChangeType) {
	switch {
	case l.json:
		l.emit(event{Event: "file_changed", Time: now(), Path: path, Change: change})
	case l.verbose:
		l.printf("[%s] %s %s\n", clock(), l.paint(string(change), change), path)
	}
}

// Planning reports that a batch of changes is about to be re-planned.
func (l *Logger) Planning(files []string) {
	if l.json {
		l.emit(event{Event: "planning", Time: now(), Files: files})
		return
	}
	if len(files) == 1 {
		l.printf("[%s] planning after change to %s...\n", clock(), files[0])
		return
	}
	l.printf("[%s] planning after %d changes...\n", clock(), len(files))
}

// Planned reports the outcome of a re-plan.
func (l *Logger) Planned(s PlanSummary) {
	l.plans.Add(1)
	if l.json {
		l.emit(event{Event: "planned", Time: now(), Plan: &s})
		return
	}

	ok := l.paint("✓", ChangeAdded)
	if len(s.InvalidOutputs) == 0 {
		l.printf("[%s] %s up to date\n", clock(), ok)
		return
	}
	l.printf("[%s] %s %d outputs to regenerate from %d files\n",
		clock(), ok, len(s.InvalidOutputs), s.FilesToConsider)
	for _, key := range s.InvalidOutputs {
		l.printf("    %s %s\n", l.paint(string(ChangeModified), ChangeModified), key)
	}
	if !l.verbose {
		return
	}
	for _, qName := range s.InvalidatedClasses {
		l.printf("    %s %s\n", l.paint(string(ChangeDeleted), ChangeDeleted), qName)
	}
	if len(s.UpdatedDeps) > 0 {
		l.printf("    updated dependencies: %s\n", strings.Join(s.UpdatedDeps, ", "))
	}
}

// Error reports a failed re-plan.
func (l *Logger) Error(err error) {
	l.errors.Add(1)
	if l.json {
		l.emit(event{Event: "error", Time: now(), Error: err.Error()})
		return
	}
	l.printf("[%s] %s error: %v\n", clock(), l.paint("✗", ChangeDeleted), err)
}

// Shutdown reports session totals.
func (l *Logger) Shutdown() {
	plans, errs := l.Counts()
	if l.json {
		l.emit(event{
			Event:    "shutdown",
			Plans:    &plans,
			Errors:   &errs,
			Duration: time.Since(l.started).Round(time.Millisecond).String(),
		})
		return
	}
	l.printf("\nbindinc: shutting down (%d plans, %d errors)\n", plans, errs)
}

// Counts returns how many plans and errors were reported so far.
func (l *Logger) Counts() (plans, errs int64) {
	return l.plans.Load(), l.errors.Load()
}

func (l *Logger) paint(s string, change ChangeType) string {
	code, ok := palette[change]
	if !l.color || !ok {
		return s
	}
	return code + s + "\033[0m"
}

func (l *Logger) emit(e event) {
	data, err := json.Marshal(e)
	if err != nil {
		data = []byte(`{"event":"internal_error","error":"json marshal failed"}`)
	}
	l.printf("%s\n", data)
}

// Output errors are ignored; watch output is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}

func now() string   { return time.Now().Format(time.RFC3339) }
func clock() string { return time.Now().Format("15:04:05") }
