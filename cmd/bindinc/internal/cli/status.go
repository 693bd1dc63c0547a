package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

var statusFlags struct {
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which layout-info files changed since the last commit",
	Long: `Shows the state of the module's inputs.

Compares the layout-info folder against the snapshot taken at the last
'bindinc commit' and reports the outputs a plan would invalidate.

The --verbose flag shows individual file changes (new, modified, deleted).
The --json flag outputs the result as JSON for scripting.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"Show individual file changes")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for bindinc status.
type StatusOutput struct {
	Stale          bool     `json:"stale"`
	HasState       bool     `json:"has_state"`
	TrackedFiles   int      `json:"tracked_files"`
	InvalidOutputs []string `json:"invalid_outputs"`
	UpdatedDeps    []string `json:"updated_deps,omitempty"`
	NewFiles       []string `json:"new_files,omitempty"`
	ModifiedFiles  []string `json:"modified_files,omitempty"`
	DeletedFiles   []string `json:"deleted_files,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, ws, err := openWorkspace(false)
	if err != nil {
		return err
	}
	tracker := newTracker(ws)

	cs, err := tracker.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect input changes: %w", err)
	}

	var changes invalidate.Changes
	if ws.Args().Incremental {
		changes = cs.Changes()
	}
	p, err := ws.Plan(ctx, changes)
	if err != nil {
		return err
	}

	output := StatusOutput{
		Stale:          len(p.InvalidOutputs) > 0,
		HasState:       tracker.HasState(),
		TrackedFiles:   tracker.TrackedFileCount(),
		InvalidOutputs: p.InvalidOutputs,
		UpdatedDeps:    p.UpdatedDeps,
		NewFiles:       cs.Added,
		ModifiedFiles:  cs.Modified,
		DeletedFiles:   cs.Deleted,
	}

	w := cmd.OutOrStdout()
	if statusFlags.json {
		return outputJSON(w, output)
	}

	if !output.HasState {
		_, _ = fmt.Fprintln(w, "No input snapshot found. Run 'bindinc commit' after the first build.")
	}
	if !output.Stale {
		_, _ = fmt.Fprintln(w, "Generated binding classes are up to date")
		return nil
	}

	_, _ = fmt.Fprintf(w, "Stale outputs (%d):\n", len(output.InvalidOutputs))
	for _, key := range output.InvalidOutputs {
		_, _ = fmt.Fprintf(w, "  %s\n", key)
	}

	if statusFlags.verbose {
		printFiles(w, "New files", "+", cs.Added)
		printFiles(w, "Modified files", "~", cs.Modified)
		printFiles(w, "Deleted files", "-", cs.Deleted)
		printFiles(w, "Updated library outputs", "*", p.UpdatedDeps)
	}

	_, _ = fmt.Fprintln(w, "\nRun 'bindinc plan' to list the files to regenerate")
	return nil
}

func printFiles(w io.Writer, title, mark string, files []string) {
	if len(files) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s (%d):\n", title, len(files))
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "  %s %s\n", mark, f)
	}
}
