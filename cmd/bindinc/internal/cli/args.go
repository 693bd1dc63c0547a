package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/bindinc/pkg/compilerargs"
	"github.com/albertocavalcante/bindinc/pkg/util"
)

var argsFlags struct {
	v1    string
	parse string
	json  bool
}

var argsCmd = &cobra.Command{
	Use:   "args",
	Short: "Print or check the generator's option map",
	Long: `Prints the options passed to the binding-class generator, built from the
configuration, one key=value per line.

--v1 prints the non-incremental V1 variant used to compile a V1 dependency
package instead.

--parse reads an options file (key=value lines, '#' comments) and validates
it, printing the decoded arguments.`,
	RunE: runArgs,
}

func init() {
	argsCmd.Flags().StringVar(&argsFlags.v1, "v1", "",
		"Print the V1 compatibility options for this package")
	argsCmd.Flags().StringVar(&argsFlags.parse, "parse", "",
		"Validate an options file instead of printing")
	argsCmd.Flags().BoolVar(&argsFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(argsCmd)
}

func runArgs(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	if argsFlags.parse != "" {
		options, err := readOptionsFile(argsFlags.parse)
		if err != nil {
			return err
		}
		a, err := compilerargs.FromOptions(options)
		if err != nil {
			return err
		}
		if argsFlags.json {
			return outputJSON(w, a)
		}
		_, _ = fmt.Fprintf(w, "%s: valid %s arguments for %s\n", argsFlags.parse, a.ArtifactType, a.ModulePackage)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := cfg.CompilerArguments()
	if err != nil {
		return err
	}
	if argsFlags.v1 != "" {
		if a, err = a.CopyAsV1(argsFlags.v1); err != nil {
			return err
		}
	}

	options := a.ToMap()
	if argsFlags.json {
		return outputJSON(w, options)
	}
	for _, k := range util.SortedKeys(options) {
		_, _ = fmt.Fprintf(w, "%s=%s\n", k, options[k])
	}
	return nil
}

func readOptionsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parseOptions(f)
}

// parseOptions reads key=value lines. Blank lines and lines starting with
// '#' are skipped.
func parseOptions(r io.Reader) (map[string]string, error) {
	options := make(map[string]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		k, v, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value", line)
		}
		options[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return options, nil
}
