package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/popmap/internal/pipeline"
)

// Format is an export target.
type Format string

// Supported formats.
const (
	FormatGeoJSON Format = "geojson"
	FormatSQLite  Format = "sqlite"
	FormatXLSX    Format = "xlsx"
	FormatPostGIS Format = "postgis"
)

// Formats lists every supported format.
var Formats = []Format{FormatGeoJSON, FormatSQLite, FormatXLSX, FormatPostGIS}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Ext is the file extension of a file format.
func (f Format) Ext() string {
	switch f {
	case FormatGeoJSON:
		return ".geojson"
	case FormatSQLite:
		return ".sqlite"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ""
	}
}

// FileName is the default output name for a dataset: the municipalities
// joined with "_" and the first eight characters of the run id.
func FileName(ds *pipeline.Dataset, f Format) string {
	id := ds.RunID.String()
	return strings.Join(ds.Municipalities, "_") + "_" + id[:8] + f.Ext()
}

// WriteFile writes ds in a file format to path, creating parent directories.
func WriteFile(ctx context.Context, f Format, path string, ds *pipeline.Dataset) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create %s", dir)
		}
	}

	switch f {
	case FormatGeoJSON:
		out, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", path)
		}
		if err := WriteGeoJSON(out, ds); err != nil {
			_ = out.Close()
			return err
		}
		return eris.Wrapf(out.Close(), "export: close %s", path)
	case FormatSQLite:
		return WriteSQLite(ctx, path, ds)
	case FormatXLSX:
		return WriteXLSX(path, ds)
	default:
		return eris.Errorf("export: %s is not a file format", f)
	}
}
