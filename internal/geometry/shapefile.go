// Package geometry loads municipal sub-area boundaries from shapefiles.
package geometry

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/crs"
	"github.com/sells-group/popmap/internal/fetcher"
	"github.com/sells-group/popmap/internal/model"
)

// ReadOptions configures ReadShapefile.
type ReadOptions struct {
	Encoding         string // primary attribute encoding; a .cpg sidecar overrides it
	FallbackEncoding string // tried when the primary encoding fails
	SourceEPSG       int    // assumed when there is no .prj sidecar; 0 means 4326
	AreaColumn       string // numeric attribute preferred over computed area
}

// rawRecord is one shapefile row before attribute decoding.
type rawRecord struct {
	attrs []string
	geom  *geom.MultiPolygon
	area  float64 // planar area in source units
}

// ReadShapefile reads every polygon record of a shapefile, decodes its
// attributes and reprojects it to lon/lat. Records are returned in file order
// and are not deduplicated.
func ReadShapefile(path string, opts ReadOptions) (*model.GeometryLayer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &model.FileNotFoundError{Path: path, Err: err}
	}
	log := zap.L().With(zap.String("component", "geometry"), zap.String("path", filepath.Base(path)))

	source, err := sourceCRS(path, opts.SourceEPSG)
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	rawFields := make([]string, len(fields))
	for i, f := range fields {
		rawFields[i] = strings.TrimRight(f.String(), "\x00")
	}

	var raws []rawRecord
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		mp, area := shapeToMultiPolygon(shape, source)
		if mp == nil {
			skipped++
			continue
		}

		attrs := make([]string, len(fields))
		for i := range fields {
			attrs[i] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		raws = append(raws, rawRecord{attrs: attrs, geom: mp, area: area})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geometry: read shapefile %s", path)
	}

	if skipped > 0 {
		log.Debug("geometry: skipped non-polygon or empty shapes", zap.Int("skipped", skipped))
	}

	primary := opts.Encoding
	if cpg, ok := readCPG(path); ok {
		primary = cpg
	}

	names, rows, used, err := decodeWithFallback(rawFields, raws, primary, opts.FallbackEncoding)
	if err != nil {
		return nil, err
	}
	if used != primary {
		log.Info("geometry: attribute encoding fallback",
			zap.String("primary", primary),
			zap.String("used", used),
		)
	}

	areaCol := strings.ToLower(opts.AreaColumn)
	layer := &model.GeometryLayer{
		SourcePath: path,
		Encoding:   used,
		SourceCRS:  source.String(),
		Fields:     names,
		Records:    make([]model.GeometryRecord, 0, len(raws)),
	}
	for i, raw := range raws {
		attrs := make(map[string]string, len(names))
		for j, name := range names {
			attrs[name] = rows[i][j]
		}
		layer.Records = append(layer.Records, model.GeometryRecord{
			Attributes: attrs,
			Geometry:   raw.geom,
			Area:       raw.area,
		})
	}

	// Areas come from one source per layer so they stay comparable.
	if areas, ok := columnAreas(layer.Records, areaCol); ok {
		for i := range layer.Records {
			layer.Records[i].Area = areas[i]
		}
	} else if areaCol != "" && containsField(names, areaCol) {
		log.Info("geometry: area column incomplete, using computed areas", zap.String("column", areaCol))
	}

	log.Debug("geometry: read shapefile",
		zap.Int("records", len(layer.Records)),
		zap.String("crs", layer.SourceCRS),
		zap.String("encoding", used),
	)
	return layer, nil
}

// decodeWithFallback decodes field names and attribute values with the
// primary encoding and retries everything with the fallback on the first
// failure.
func decodeWithFallback(fields []string, raws []rawRecord, primary, fallback string) ([]string, [][]string, string, error) {
	names, rows, err := decodeAttributes(fields, raws, primary)
	if err == nil {
		return names, rows, primary, nil
	}
	var encErr *model.EncodingError
	if !errors.As(err, &encErr) || fallback == "" || strings.EqualFold(fallback, primary) {
		return nil, nil, "", eris.Wrap(err, "geometry: decode attributes")
	}

	zap.L().Debug("geometry: primary encoding failed",
		zap.String("encoding", primary),
		zap.String("field", encErr.Field),
	)

	names, rows, err = decodeAttributes(fields, raws, fallback)
	if err != nil {
		return nil, nil, "", eris.Wrap(err, "geometry: decode attributes")
	}
	return names, rows, fallback, nil
}

func decodeAttributes(fields []string, raws []rawRecord, charset string) ([]string, [][]string, error) {
	names := make([]string, len(fields))
	for i, f := range fields {
		name, err := fetcher.DecodeString(f, charset)
		if err != nil {
			return nil, nil, &model.EncodingError{Encoding: charset, Field: "field name", Err: err}
		}
		names[i] = strings.ToLower(strings.TrimSpace(name))
	}

	rows := make([][]string, len(raws))
	for i, raw := range raws {
		row := make([]string, len(raw.attrs))
		for j, v := range raw.attrs {
			s, err := fetcher.DecodeString(v, charset)
			if err != nil {
				return nil, nil, &model.EncodingError{Encoding: charset, Field: names[j], Err: err}
			}
			row[j] = s
		}
		rows[i] = row
	}
	return names, rows, nil
}

// readCPG returns the encoding named in a .cpg sidecar, if any.
func readCPG(shpPath string) (string, bool) {
	data, err := os.ReadFile(sidecar(shpPath, ".cpg"))
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", false
	}
	if _, err := fetcher.LookupEncoding(name); err != nil {
		zap.L().Warn("geometry: ignoring unknown .cpg encoding", zap.String("encoding", name))
		return "", false
	}
	return name, true
}

// sourceCRS resolves the CRS from a .prj sidecar, else the configured code.
func sourceCRS(shpPath string, fallbackEPSG int) (*crs.CRS, error) {
	prj := sidecar(shpPath, ".prj")
	if _, err := os.Stat(prj); err == nil {
		c, err := crs.ReadPRJ(prj)
		if err != nil {
			return nil, eris.Wrap(err, "geometry: resolve crs")
		}
		return c, nil
	}

	if fallbackEPSG == 0 {
		fallbackEPSG = crs.Canonical
	}
	c, err := crs.FromEPSG(fallbackEPSG)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: resolve crs")
	}
	return c, nil
}

// sidecar finds path's companion file with ext, trying lower and upper case.
func sidecar(shpPath, ext string) string {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	lower := base + strings.ToLower(ext)
	if _, err := os.Stat(lower); err == nil {
		return lower
	}
	upper := base + strings.ToUpper(ext)
	if _, err := os.Stat(upper); err == nil {
		return upper
	}
	return lower
}

// columnAreas parses col for every record. It reports false when the column
// is absent or any value does not parse.
func columnAreas(records []model.GeometryRecord, col string) ([]float64, bool) {
	if col == "" || len(records) == 0 {
		return nil, false
	}
	out := make([]float64, len(records))
	for i, r := range records {
		raw, ok := r.Attributes[col]
		if !ok {
			return nil, false
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
