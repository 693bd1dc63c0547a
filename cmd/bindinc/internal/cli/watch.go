package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/cmd/bindinc/internal/watch"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-plan whenever layout-info files change",
	Long: `Watches the layout-info folder and the dependency class lists, and
recomputes the invalidation plan after each burst of changes.

Watch mode only reports. It never deletes generated sources and never
commits state.

Example output:

  $ bindinc watch

  bindinc: watching 42 layout-info files in /path/to/build/info
  bindinc: include: **/*.xml
  bindinc: ready

  [14:32:15] planning after change to /path/to/build/info/item_row-layout.xml...
  [14:32:15] ✓ 2 outputs to regenerate from 3 files

Press Ctrl+C to stop watching.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, ws, err := openWorkspace(false)
	if err != nil {
		return err
	}

	debounce := watchFlags.debounce
	if debounce <= 0 {
		debounce = cfg.Watch.DebounceMS
	}

	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Workspace: ws,
		Debounce:  time.Duration(debounce) * time.Millisecond,
		Writer:    cmd.OutOrStdout(),
		Verbose:   watchFlags.verbose,
		NoColor:   watchFlags.noColor,
		JSON:      watchFlags.json,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
