package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "popmap",
	Short: "Small-area population choropleth data pipeline",
	Long:  "Loads e-Stat small-area age-band population tables and sub-area boundary shapefiles, joins them on normalized place names, and serves or exports the result for a choropleth map.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// municipalitiesOrDefault returns args, or the configured defaults when none
// were given.
func municipalitiesOrDefault(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Data.DefaultMunicipalities
}
