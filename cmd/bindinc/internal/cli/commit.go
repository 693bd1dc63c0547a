package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/internal/log"
	"github.com/albertocavalcante/bindinc/pkg/store"
)

var commitFlags struct {
	changes changeOptions
	result  string
	json    bool
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the generator's output as the new build state",
	Long: `Merges the class infos and dependencies the generator produced for the
invalid outputs with the state carried forward from the previous build, then
persists the result and refreshes the input snapshot.

--result names a JSON file in the build-log format:

  {"class_infos": {"mappings": {...}}, "dependencies": {...}}

Pass the same change flags that were given to 'bindinc plan'. Nothing is
written when a recorded dependency points at an output with no class info.`,
	RunE: runCommit,
}

func init() {
	commitFlags.changes.register(commitCmd)
	commitCmd.Flags().StringVar(&commitFlags.result, "result", "",
		"Generator output (LayoutInfoLog JSON)")
	commitCmd.Flags().BoolVar(&commitFlags.json, "json", false,
		"Output as JSON")
	_ = commitCmd.MarkFlagRequired("result")

	rootCmd.AddCommand(commitCmd)
}

// CommitOutput is the JSON output format for bindinc commit.
type CommitOutput struct {
	Outputs      int      `json:"outputs"`
	Regenerated  []string `json:"regenerated"`
	ChangeSource string   `json:"change_source"`
	ClassList    string   `json:"class_list,omitempty"`
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if _, err := os.Stat(commitFlags.result); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("generator result %s does not exist", commitFlags.result)
	}
	generated, err := store.ReadLayoutInfoLog(commitFlags.result)
	if err != nil {
		return fmt.Errorf("failed to read generator result: %w", err)
	}

	_, ws, err := openWorkspace(commitFlags.changes.full)
	if err != nil {
		return err
	}

	changes, source, err := commitFlags.changes.resolve(ctx, ws)
	if err != nil {
		return err
	}

	p, err := ws.Plan(ctx, changes)
	if err != nil {
		return err
	}

	merged, err := ws.Commit(p, generated)
	if err != nil {
		return err
	}

	// The snapshot follows the committed state whatever the change source,
	// so the next tracker-driven plan starts from here.
	if err := newTracker(ws).Refresh(ctx); err != nil {
		return err
	}
	log.Info("committed build state",
		"outputs", merged.ClassInfoLog.Len(), "regenerated", len(generated.ClassInfoLog.Keys()))

	out := CommitOutput{
		Outputs:      merged.ClassInfoLog.Len(),
		Regenerated:  generated.ClassInfoLog.Keys(),
		ChangeSource: source,
		ClassList:    ws.ClassListPath(),
	}
	w := cmd.OutOrStdout()
	if commitFlags.json {
		return outputJSON(w, out)
	}
	_, _ = fmt.Fprintf(w, "Committed %d outputs (%d regenerated)\n", out.Outputs, len(out.Regenerated))
	if out.ClassList != "" {
		_, _ = fmt.Fprintf(w, "Exported class list: %s\n", out.ClassList)
	}
	return nil
}
