package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/pkg/genout"
	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

var planFlags struct {
	changes  changeOptions
	json     bool
	apply    bool
	filesOut string
	verbose  bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute which outputs must be regenerated",
	Long: `Computes the invalidation plan for the next generator run.

Changed layout-info files come from --out-of-date and --removed. When neither
is given and the module builds incrementally, they are derived from the input
snapshot taken at the last commit.

Every output whose info file changed is invalid, and so is every output that
transitively depends on an invalid one. Library dependencies whose exported
class info changed since the last build invalidate their dependents too.

--apply deletes the generated sources of invalidated classes.
--files-out writes the info files to hand to the generator, one per line.`,
	RunE: runPlan,
}

func init() {
	planFlags.changes.register(planCmd)
	planCmd.Flags().BoolVar(&planFlags.json, "json", false,
		"Output as JSON")
	planCmd.Flags().BoolVar(&planFlags.apply, "apply", false,
		"Delete generated sources of invalidated classes")
	planCmd.Flags().StringVar(&planFlags.filesOut, "files-out", "",
		"Write the files to consider to this path")
	planCmd.Flags().BoolVar(&planFlags.verbose, "verbose", false,
		"List files to consider and invalidated classes")

	rootCmd.AddCommand(planCmd)
}

// PlanOutput is the JSON output format for bindinc plan.
type PlanOutput struct {
	*invalidate.Plan
	ChangeSource string   `json:"change_source"`
	Deleted      []string `json:"deleted,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, ws, err := openWorkspace(planFlags.changes.full)
	if err != nil {
		return err
	}

	changes, source, err := planFlags.changes.resolve(ctx, ws)
	if err != nil {
		return err
	}

	p, err := ws.Plan(ctx, changes)
	if err != nil {
		return err
	}

	out := PlanOutput{Plan: p, ChangeSource: source}

	if planFlags.filesOut != "" {
		if err := writeLines(planFlags.filesOut, p.FilesToConsider); err != nil {
			return fmt.Errorf("failed to write files to consider: %w", err)
		}
	}

	if planFlags.apply {
		wr := genout.NewDirWriter(cfg.Paths.GeneratedSources)
		if err := ws.DeleteStale(p, wr); err != nil {
			return fmt.Errorf("failed to delete stale classes: %w", err)
		}
		out.Deleted = wr.Deleted()
	}

	w := cmd.OutOrStdout()
	if planFlags.json {
		return outputJSON(w, out)
	}
	printPlan(w, out, planFlags.verbose)
	return nil
}

func printPlan(w io.Writer, out PlanOutput, verbose bool) {
	p := out.Plan
	mode := "incremental"
	if !p.Incremental {
		mode = "full"
	}

	if len(p.InvalidOutputs) == 0 {
		_, _ = fmt.Fprintf(w, "Up to date (%s, changes from %s)\n", mode, out.ChangeSource)
		return
	}

	_, _ = fmt.Fprintf(w, "Outputs to regenerate (%d, %s, changes from %s):\n",
		len(p.InvalidOutputs), mode, out.ChangeSource)
	for _, key := range p.InvalidOutputs {
		_, _ = fmt.Fprintf(w, "  %s\n", key)
	}
	if len(p.UpdatedDeps) > 0 {
		_, _ = fmt.Fprintf(w, "\nUpdated library outputs (%d):\n", len(p.UpdatedDeps))
		for _, key := range p.UpdatedDeps {
			_, _ = fmt.Fprintf(w, "  %s\n", key)
		}
	}
	if verbose {
		_, _ = fmt.Fprintf(w, "\nFiles to consider (%d):\n", len(p.FilesToConsider))
		for _, f := range p.FilesToConsider {
			_, _ = fmt.Fprintf(w, "  %s\n", f)
		}
		_, _ = fmt.Fprintf(w, "\nInvalidated classes (%d):\n", len(p.InvalidatedClasses))
		for _, q := range p.InvalidatedClasses {
			_, _ = fmt.Fprintf(w, "  - %s\n", q)
		}
	}
	if len(out.Deleted) > 0 {
		_, _ = fmt.Fprintf(w, "\nDeleted %d stale generated files\n", len(out.Deleted))
	}
}

// writeLines writes one entry per line, creating parent directories.
func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
