package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenttrace-labs/agenttrace/internal/render"
	"github.com/agenttrace-labs/agenttrace/internal/serializer"
)

var (
	inspectVerbosity string
	inspectJSON      bool
	inspectOutput    string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <trace-file>",
	Short: "Inspect a trace JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectVerbosity, "verbosity", "standard", "Console render verbosity (minimal, standard, full)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Emit machine-readable summary JSON instead of text output")
	inspectCmd.Flags().StringVar(&inspectOutput, "output", "", "Optional output file path for --json summary")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectOutput != "" && !inspectJSON {
		return errors.New("--output is only supported when --json is provided")
	}
	verbosity, err := render.ParseVerbosity(inspectVerbosity)
	if err != nil {
		return err
	}

	log := newCommandLogger()
	codec := serializer.New(log, false)
	graph, err := codec.LoadFile(args[0])
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file not found: %s", args[0])
		}
		return err
	}

	if inspectJSON {
		payload, err := json.Marshal(render.BuildSummary(graph))
		if err != nil {
			return err
		}
		if inspectOutput != "" {
			if err := os.MkdirAll(filepath.Dir(inspectOutput), 0o755); err != nil {
				return err
			}
			return os.WriteFile(inspectOutput, append(payload, '\n'), 0o644)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	out := cmd.OutOrStdout()
	render.WriteSummaryText(out, graph)
	fmt.Fprintln(out)
	fmt.Fprint(out, render.RenderTree(graph, verbosity))
	return nil
}
