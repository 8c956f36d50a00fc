package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/regtab/internal/cli/config"
	"github.com/leapstack-labs/regtab/pkg/dataset"
)

// maxLevelsShown caps the levels preview for high-cardinality columns.
const maxLevelsShown = 8

// NewColumnsCommand creates the columns command.
func NewColumnsCommand(getCfg func(context.Context) *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List dataset columns with kind, missing counts, and levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getCfg(cmd.Context())

			ds, err := openDataset(cmd.Context(), cfg.Input)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Column", "Kind", "Missing", "Levels"})

			for _, c := range ds.Columns() {
				t.AppendRow(table.Row{c.Name, c.Kind.String(), missingCount(c), levelsPreview(c)})
			}
			t.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", ds.NumRows())
			return nil
		},
	}
}

func missingCount(c *dataset.Column) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			n++
		}
	}
	return n
}

func levelsPreview(c *dataset.Column) string {
	levels := c.Levels()
	if len(levels) == 0 {
		return ""
	}
	if len(levels) > maxLevelsShown {
		return fmt.Sprintf("%s, ... (%d levels)", strings.Join(levels[:maxLevelsShown], ", "), len(levels))
	}
	return strings.Join(levels, ", ")
}
