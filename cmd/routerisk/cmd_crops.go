package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCropsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List supported crop profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := root.store()
			if err != nil {
				return fmt.Errorf("load crops: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CROP\tCATEGORY\tTEMP °C\tRH %\tSHELF DAYS")
			for _, p := range store.All() {
				fmt.Fprintf(w, "%s\t%s\t%g-%g\t%g-%g\t%g\n",
					p.Name, p.Category, p.TempLowC, p.TempHighC, p.HumidityLowPct, p.HumidityHighPct, p.ShelfLifeDays)
			}
			return w.Flush()
		},
	}
}
