package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove persisted build state",
	Long: `Removes the build log, the dependency snapshot and the input snapshot,
so the next build regenerates everything. Generated sources and the exported
class list are left alone.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	_, ws, err := openWorkspace(false)
	if err != nil {
		return err
	}
	if err := errors.Join(ws.Clear(), newTracker(ws).Clear()); err != nil {
		return fmt.Errorf("failed to clean state: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed build state in %s\n", ws.Args().LogFolder)
	return nil
}
