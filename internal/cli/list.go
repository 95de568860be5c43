package cli

import (
	"github.com/spf13/cobra"

	"github.com/agenttrace-labs/agenttrace/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List traces in the configured store",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	log := newCommandLogger()
	store, _, err := openStore(log)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.ListTraces()
	if err != nil {
		return err
	}

	rows := make([]render.TraceRow, 0, len(ids))
	for _, id := range ids {
		graph, err := store.Load(id)
		if err != nil {
			// A trace that fails to load should not hide the rest of the
			// listing.
			log.Warnf("skipping trace %s: %v", id, err)
			continue
		}
		rows = append(rows, render.RowFromGraph(graph))
	}
	return render.WriteTraceTable(cmd.OutOrStdout(), rows)
}
