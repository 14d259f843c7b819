package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sells-group/popmap/internal/pipeline"
)

var municipalitiesCmd = &cobra.Command{
	Use:   "municipalities",
	Short: "List municipalities with data, marking configured defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := pipeline.Municipalities(cfg.Data.Root, cfg.Data.DefaultMunicipalities)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, n := range names {
			mark := " "
			if slices.Contains(cfg.Data.DefaultMunicipalities, n) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, n)
		}
		for _, d := range cfg.Data.DefaultMunicipalities {
			if !pipeline.HasData(cfg.Data.Root, d) {
				fmt.Fprintf(out, "! %s (no data directory)\n", d)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(municipalitiesCmd)
}
