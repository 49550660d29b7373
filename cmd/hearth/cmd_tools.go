package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/homectl"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// toolCatalog is the catalog reported to clients. The per-session stores
// are created by each bootstrapper.
func toolCatalog() *tool.Registry {
	return homectl.NewAssistant().Catalog()
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalog as JSON schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toolCatalog().Schemas())
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List integration patterns in priority order and whether they resolve",
	RunE: func(cmd *cobra.Command, args []string) error {
		disabled, err := disabledPatterns(cfg)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRIORITY\tPATTERN\tSTATUS\tTOOLS\tSTART\tGREET")
		for i, row := range patternRows(agent.DefaultRegistry, disabled) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, row.Pattern, row.Status, row.Tools, row.Start, row.Greet)
		}
		return w.Flush()
	},
}

type patternRow struct {
	Pattern string
	Status  string
	Tools   string
	Start   string
	Greet   string
}

func patternRows(reg *agent.Registry, disabled []agent.Pattern) []patternRow {
	var rows []patternRow
	for _, p := range agent.Patterns() {
		row := patternRow{Pattern: p.String(), Status: "available", Tools: "-", Start: "-", Greet: "-"}
		entry, err := reg.Resolve(p)
		switch {
		case isDisabled(p, disabled):
			row.Status = "disabled"
		case err != nil:
			row.Status = "unavailable"
		}
		if err == nil {
			d := entry.Descriptor
			row.Tools, row.Start, row.Greet = d.ToolForm.String(), d.Start.String(), d.Greet.String()
		}
		rows = append(rows, row)
	}
	return rows
}

func isDisabled(p agent.Pattern, disabled []agent.Pattern) bool {
	for _, d := range disabled {
		if d == p {
			return true
		}
	}
	return false
}
