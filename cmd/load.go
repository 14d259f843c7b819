package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/pipeline"
)

var loadJSON bool

var loadCmd = &cobra.Command{
	Use:   "load [municipality...]",
	Short: "Load and join municipalities and print the join summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		names := municipalitiesOrDefault(args)
		ds, err := pipeline.FromConfig(cfg).LoadMany(cmd.Context(), names)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if loadJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ds)
		}

		s := ds.Summary
		fmt.Fprintf(out, "run:          %s\n", ds.RunID)
		fmt.Fprintf(out, "rows:         %d\n", s.TotalRows)
		fmt.Fprintf(out, "matched:      %d\n", s.MatchedRows)
		fmt.Fprintf(out, "unmatched:    %d\n", s.UnmatchedRows)
		for _, k := range s.UnmatchedKeys {
			fmt.Fprintf(out, "  - %s\n", k)
		}
		for _, k := range s.FanOutKeys {
			fmt.Fprintf(out, "fanned out:   %s\n", k)
		}
		for col, n := range s.MissingValues {
			fmt.Fprintf(out, "missing %s: %d\n", col, n)
		}

		zap.L().Info("load complete",
			zap.Strings("municipalities", ds.Municipalities),
			zap.Bool("all_matched", s.AllMatched()),
		)
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadJSON, "json", false, "print the dataset summary as JSON")
	rootCmd.AddCommand(loadCmd)
}
