package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/popmap/internal/config"
	"github.com/sells-group/popmap/internal/geometry"
	"github.com/sells-group/popmap/internal/mapview"
	"github.com/sells-group/popmap/internal/normalize"
	"github.com/sells-group/popmap/internal/population"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration, built-in tables included, as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		eff := effectiveConfig(*cfg)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(eff); err != nil {
			return eris.Wrap(err, "config: encode yaml")
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// effectiveConfig fills every table the config leaves empty with the
// built-in one the packages fall back to.
func effectiveConfig(c config.Config) config.Config {
	if len(c.Population.Bands) == 0 {
		for _, b := range population.DefaultBands() {
			c.Population.Bands = append(c.Population.Bands, config.BandConfig{Name: b.Name, Sources: b.Sources})
		}
	}
	if len(c.Geometry.CityAliases) == 0 {
		c.Geometry.CityAliases = geometry.DefaultCityAliases
	}
	if len(c.Geometry.SubAreaAliases) == 0 {
		c.Geometry.SubAreaAliases = geometry.DefaultSubAreaAliases
	}
	if c.Normalize.ChomeSuffix == "" {
		c.Normalize.ChomeSuffix = normalize.DefaultChomeSuffix
	}
	if len(c.Normalize.KanjiNumerals) == 0 {
		c.Normalize.KanjiNumerals = normalize.DefaultKanjiNumerals
	}
	if c.Normalize.Variants == nil {
		c.Normalize.Variants = normalize.DefaultVariants
	}
	if c.Map.DefaultAttribute == "" {
		c.Map.DefaultAttribute = mapview.DefaultAttribute
	}
	if len(c.Map.Attributes) == 0 {
		for _, a := range mapview.DefaultAttributes {
			c.Map.Attributes = append(c.Map.Attributes, config.AttributeConfig{Label: a.Label, Column: a.Column})
		}
	}
	if c.Map.Presets == nil {
		for _, p := range mapview.DefaultPresets {
			c.Map.Presets = append(c.Map.Presets, config.PresetConfig{
				Municipalities: p.Municipalities,
				Zoom:           p.Zoom,
				LatOffset:      p.LatOffset,
				LonOffset:      p.LonOffset,
			})
		}
	}
	return c
}
