package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Modes are
// "load", "serve" and "postgis".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 32 {
		errs = append(errs, "batch.concurrency must be between 1 and 32")
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		errs = append(errs, "map.min_zoom must be <= map.max_zoom")
	}
	if c.Population.BannerRows < 0 {
		errs = append(errs, "population.banner_rows must be >= 0")
	}

	switch mode {
	case "load":
		if c.Data.Root == "" {
			errs = append(errs, "data.root is required")
		}
	case "serve":
		if c.Data.Root == "" {
			errs = append(errs, "data.root is required")
		}
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "postgis":
		if c.Export.DatabaseURL == "" {
			errs = append(errs, "export.database_url is required")
		}
		if c.Export.BatchSize <= 0 {
			errs = append(errs, "export.batch_size must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
