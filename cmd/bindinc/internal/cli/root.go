// Package cli implements the bindinc command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/cmd/bindinc/internal/incremental"
	"github.com/albertocavalcante/bindinc/internal/log"
	"github.com/albertocavalcante/bindinc/pkg/config"
	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	configFile string
	dir        string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bindinc",
	Short: "Incremental invalidation for binding-class generation",
	Long: `bindinc decides which generated binding classes a build must regenerate.

It keeps a log of the class info and inter-layout dependencies produced by the
previous build, and given the layout-info files that changed it computes the
transitive set of outputs to rebuild, the stale classes to delete, and the
state to carry forward unchanged.

A build step typically runs 'bindinc plan', feeds the listed files to the
generator, then runs 'bindinc commit' with the generator's output.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bindinc %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Config file to use instead of searching for bindinc.toml")
	rootCmd.PersistentFlags().StringVar(&globalFlags.dir, "dir", ".",
		"Project directory to search for configuration")

	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	format := globalFlags.logFormat
	if format == "" {
		format = "text"
	}
	log.InitWithOutput(globalFlags.verbosity, format, rootCmd.ErrOrStderr())
}

// loadConfig loads the layered configuration with relative paths resolved.
func loadConfig() (*config.Config, error) {
	var (
		loaded *config.Loaded
		err    error
	)
	if globalFlags.configFile != "" {
		loaded, err = config.LoadWithFile(globalFlags.configFile)
	} else {
		dir, absErr := filepath.Abs(globalFlags.dir)
		if absErr != nil {
			return nil, absErr
		}
		loaded, err = config.LoadFrom(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if loaded.ProjectFile != "" {
		log.Debug("loaded project config", "path", loaded.ProjectFile)
	}
	return loaded.Resolved(), nil
}

// openWorkspace loads configuration and binds the module workspace. full
// forces a non-incremental build.
func openWorkspace(full bool) (*config.Config, *invalidate.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	args := cfg.ToArgs()
	if full {
		args.Incremental = false
	}
	ws, err := invalidate.NewWorkspace(args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ws, nil
}

// newTracker returns the input tracker for ws.
func newTracker(ws *invalidate.Workspace) *incremental.Tracker {
	args := ws.Args()
	return incremental.NewTracker(args.InfoFolder, args.LogFolder, args.Include)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
