package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

// Where a change set came from.
const (
	sourceFlags   = "flags"
	sourceTracker = "tracker"
	sourceFull    = "full"
)

// changeOptions are the change-reporting flags shared by plan and commit.
type changeOptions struct {
	outOfDate []string
	removed   []string
	full      bool
}

func (o *changeOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.outOfDate, "out-of-date", nil,
		"Layout-info file that was added or modified (repeatable)")
	cmd.Flags().StringArrayVar(&o.removed, "removed", nil,
		"Layout-info file that was removed (repeatable)")
	cmd.Flags().BoolVar(&o.full, "full", false,
		"Ignore previous state and regenerate everything")
}

func (o *changeOptions) explicit() bool {
	return len(o.outOfDate) > 0 || len(o.removed) > 0
}

// resolve returns the change set for this invocation. Explicit flags win;
// otherwise an incremental build asks the input tracker.
func (o *changeOptions) resolve(ctx context.Context, ws *invalidate.Workspace) (invalidate.Changes, string, error) {
	if !ws.Args().Incremental {
		return invalidate.Changes{}, sourceFull, nil
	}
	if o.explicit() {
		outOfDate, err := absAll(o.outOfDate)
		if err != nil {
			return invalidate.Changes{}, "", err
		}
		removed, err := absAll(o.removed)
		if err != nil {
			return invalidate.Changes{}, "", err
		}
		return invalidate.Changes{OutOfDate: outOfDate, Removed: removed}, sourceFlags, nil
	}

	cs, err := newTracker(ws).Status(ctx)
	if err != nil {
		return invalidate.Changes{}, "", fmt.Errorf("failed to detect input changes: %w", err)
	}
	return cs.Changes(), sourceTracker, nil
}

func absAll(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out[i] = abs
	}
	return out, nil
}
