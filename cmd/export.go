package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sells-group/popmap/internal/db"
	"github.com/sells-group/popmap/internal/export"
	"github.com/sells-group/popmap/internal/pipeline"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [municipality...]",
	Short: "Export joined municipalities as GeoJSON, SQLite, XLSX or PostGIS",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		mode := "load"
		if format == export.FormatPostGIS {
			mode = "postgis"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		ds, err := pipeline.FromConfig(cfg).LoadMany(ctx, municipalitiesOrDefault(args))
		if err != nil {
			return err
		}

		if format == export.FormatPostGIS {
			pool, err := db.Connect(ctx, cfg.Export.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			w := export.NewPostGISWriter(pool, cfg.Export.Schema, cfg.Export.Table, cfg.Export.BatchSize)
			n, err := w.Write(ctx, ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, w.QualifiedTable())
			return nil
		}

		path := exportOut
		if path == "" {
			path = filepath.Join(cfg.Export.Dir, export.FileName(ds, format))
		}
		if err := export.WriteFile(ctx, format, path, ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(ds.Records), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatGeoJSON), "output format: geojson, sqlite, xlsx or postgis")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default <export.dir>/<municipalities>_<run>.<ext>)")
	rootCmd.AddCommand(exportCmd)
}
