package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoopline/statline-cli/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered pipelines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// The registry only needs a store for wiring; listing never
		// touches the database.
		reg, err := buildRegistry(store.Store(nil))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tCADENCE\tTABLE\tDESCRIPTION")
		for _, info := range reg.List() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				info.Name, info.Cadence, info.TargetTable, info.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
