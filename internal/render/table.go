package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// TraceRow is one line of the `list` command output.
type TraceRow struct {
	TraceID    string
	Name       string
	Nodes      int
	Failed     int
	DurationMS *float64
}

// RowFromGraph summarizes a loaded trace for tabular listing.
func RowFromGraph(graph *model.TraceGraph) TraceRow {
	row := TraceRow{
		TraceID: graph.TraceID,
		Name:    graph.Name,
		Nodes:   graph.NodeCount(),
		Failed:  len(graph.FailedNodes()),
	}
	if ms, ok := graph.DurationMS(); ok {
		row.DurationMS = &ms
	}
	return row
}

// WriteTraceTable renders trace rows as a markdown-style table.
func WriteTraceTable(w io.Writer, rows []TraceRow) error {
	table := newTable(w, []string{"TRACE ID", "NAME", "NODES", "FAILED", "DURATION"})
	for _, row := range rows {
		duration := "ongoing"
		if row.DurationMS != nil {
			duration = fmt.Sprintf("%.0fms", *row.DurationMS)
		}
		name := row.Name
		if name == "" {
			name = "<unnamed>"
		}
		cells := []string{row.TraceID, name, fmt.Sprintf("%d", row.Nodes), fmt.Sprintf("%d", row.Failed), duration}
		if err := table.Append(cells); err != nil {
			return err
		}
	}
	return table.Render()
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
