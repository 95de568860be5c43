package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"

	"github.com/agenttrace-labs/agenttrace/internal/render"
)

var showVerbosity string

var showCmd = &cobra.Command{
	Use:   "show <trace-id>",
	Short: "Render a stored trace as a tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showVerbosity, "verbosity", "standard", "Console render verbosity (minimal, standard, full)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	verbosity, err := render.ParseVerbosity(showVerbosity)
	if err != nil {
		return err
	}

	log := newCommandLogger()
	store, _, err := openStore(log)
	if err != nil {
		return err
	}
	defer store.Close()

	graph, err := store.Load(args[0])
	if err != nil {
		if traceerrors.IsNotFound(err) {
			return fmt.Errorf("trace not found: %s", args[0])
		}
		return err
	}

	out := cmd.OutOrStdout()
	render.WriteSummaryText(out, graph)
	fmt.Fprintln(out)
	fmt.Fprint(out, render.RenderTree(graph, verbosity))
	return nil
}
