package geometry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/normalize"
)

// Options configures a Loader. Zero values fall back to the defaults below.
type Options struct {
	DataRoot         string
	Extensions       []string // default .shp
	IgnorePrefix     string   // default "~$"
	Encoding         string   // default utf-8
	FallbackEncoding string   // default shift_jis
	SourceEPSG       int
	SubAreaColumn    string // default S_NAME
	AreaColumn       string // default AREA
	MarkerField      string // default KIGO_E
	MarkerValue      string // default E1
	CityAliases      []string
	SubAreaAliases   []string
	NameKey          func(string) string // duplicate grouping key, default normalize.Normalize
}

func (o Options) withDefaults() Options {
	if o.NameKey == nil {
		o.NameKey = normalize.Normalize
	}
	if len(o.Extensions) == 0 {
		o.Extensions = []string{".shp"}
	}
	if o.IgnorePrefix == "" {
		o.IgnorePrefix = "~$"
	}
	if o.Encoding == "" {
		o.Encoding = "utf-8"
	}
	if o.FallbackEncoding == "" {
		o.FallbackEncoding = "shift_jis"
	}
	if o.SubAreaColumn == "" {
		o.SubAreaColumn = "S_NAME"
	}
	if o.AreaColumn == "" {
		o.AreaColumn = "AREA"
	}
	if o.MarkerField == "" {
		o.MarkerField = "KIGO_E"
	}
	if o.MarkerValue == "" {
		o.MarkerValue = "E1"
	}
	if len(o.CityAliases) == 0 {
		o.CityAliases = DefaultCityAliases
	}
	if len(o.SubAreaAliases) == 0 {
		o.SubAreaAliases = DefaultSubAreaAliases
	}
	return o
}

// Loader reads the boundary layer of a municipality from
// <DataRoot>/<municipality>/.
type Loader struct {
	opts Options
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts.withDefaults()}
}

// Load finds the municipality's shapefile, reads it, merges duplicate
// sub-area polygons and resolves the join columns.
func (l *Loader) Load(municipality string) (*model.GeometryLayer, error) {
	dir := filepath.Join(l.opts.DataRoot, municipality)
	log := zap.L().With(zap.String("component", "geometry"), zap.String("municipality", municipality))

	candidates, err := l.Candidates(dir)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 1 {
		log.Warn("geometry: multiple shapefiles, using the first",
			zap.String("using", filepath.Base(candidates[0])),
			zap.Strings("candidates", baseNames(candidates)),
		)
	}

	layer, err := ReadShapefile(candidates[0], ReadOptions{
		Encoding:         l.opts.Encoding,
		FallbackEncoding: l.opts.FallbackEncoding,
		SourceEPSG:       l.opts.SourceEPSG,
		AreaColumn:       l.opts.AreaColumn,
	})
	if err != nil {
		return nil, err
	}

	subCol := strings.ToLower(l.opts.SubAreaColumn)
	if !containsField(layer.Fields, subCol) {
		return nil, &model.MissingColumnError{
			Source:    layer.SourcePath,
			Missing:   []string{l.opts.SubAreaColumn},
			Available: layer.Fields,
		}
	}

	records, merged := MergeDuplicates(layer.Records, MergeOptions{
		NameColumn:  subCol,
		Key:         l.opts.NameKey,
		MarkerField: l.opts.MarkerField,
		MarkerValue: l.opts.MarkerValue,
	})
	if len(merged) > 0 {
		marker := strings.ToLower(l.opts.MarkerField)
		if !containsField(layer.Fields, marker) {
			layer.Fields = append(layer.Fields, marker)
		}
		log.Info("geometry: merged duplicate sub-areas",
			zap.Int("groups", len(merged)),
			zap.Int("before", len(layer.Records)),
			zap.Int("after", len(records)),
		)
	}
	layer.Records = records
	layer.MergedNames = merged

	city, sub, err := ResolveColumns(layer.SourcePath, layer.Fields, l.opts.CityAliases, l.opts.SubAreaAliases)
	if err != nil {
		return nil, err
	}
	layer.CityColumn = city
	layer.SubAreaColumn = sub

	return layer, nil
}

// Candidates lists the shapefiles in dir, sorted by name. Temporary files
// starting with the ignore prefix are skipped.
func (l *Loader) Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &model.FileNotFoundError{Path: dir, Err: err}
		}
		return nil, eris.Wrapf(err, "geometry: read dir %s", dir)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if l.opts.IgnorePrefix != "" && strings.HasPrefix(name, l.opts.IgnorePrefix) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range l.opts.Extensions {
			if ext == strings.ToLower(want) {
				out = append(out, filepath.Join(dir, name))
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, &model.FileNotFoundError{Path: filepath.Join(dir, "*"+strings.Join(l.opts.Extensions, "|*"))}
	}
	sort.Strings(out)
	return out, nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
