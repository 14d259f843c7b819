package pipeline

import (
	"github.com/sells-group/popmap/internal/config"
	"github.com/sells-group/popmap/internal/geometry"
	"github.com/sells-group/popmap/internal/normalize"
	"github.com/sells-group/popmap/internal/population"
)

// OptionsFromConfig maps application config onto pipeline options. Empty
// tables are left empty so each package applies its own defaults.
func OptionsFromConfig(cfg *config.Config) Options {
	var bands []population.Band
	for _, b := range cfg.Population.Bands {
		bands = append(bands, population.Band{Name: b.Name, Sources: b.Sources})
	}

	return Options{
		Population: population.Options{
			DataRoot:   cfg.Data.Root,
			File:       cfg.Population.File,
			Encoding:   cfg.Population.Encoding,
			BannerRows: cfg.Population.BannerRows,
			NoBanner:   cfg.Population.BannerRows == 0,
			Bands:      bands,
		},
		Geometry: geometry.Options{
			DataRoot:         cfg.Data.Root,
			Extensions:       cfg.Geometry.Extensions,
			IgnorePrefix:     cfg.Geometry.IgnorePrefix,
			Encoding:         cfg.Geometry.Encoding,
			FallbackEncoding: cfg.Geometry.FallbackEncoding,
			SourceEPSG:       cfg.Geometry.SourceEPSG,
			SubAreaColumn:    cfg.Geometry.SubAreaColumn,
			AreaColumn:       cfg.Geometry.AreaColumn,
			MarkerField:      cfg.Geometry.MarkerField,
			MarkerValue:      cfg.Geometry.MarkerValue,
			CityAliases:      cfg.Geometry.CityAliases,
			SubAreaAliases:   cfg.Geometry.SubAreaAliases,
		},
		Normalize: normalize.Config{
			ChomeSuffix:   cfg.Normalize.ChomeSuffix,
			KanjiNumerals: cfg.Normalize.KanjiNumerals,
			Variants:      cfg.Normalize.Variants,
		},
		Indicators:  cfg.Map.Indicators,
		Concurrency: cfg.Batch.Concurrency,
	}
}

// FromConfig builds a Pipeline from application config.
func FromConfig(cfg *config.Config) *Pipeline {
	return New(OptionsFromConfig(cfg))
}
