// Package population loads the small-area age-band population table.
package population

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/fetcher"
	"github.com/sells-group/popmap/internal/model"
)

// Unlabeled header cells that hold the city and sub-area names.
const (
	cityColumnIndex    = 2
	subAreaColumnIndex = 3
)

var headerCleaner = strings.NewReplacer(
	"総数", "",
	"歳", "",
	"〜", "～", // U+301C wave dash to U+FF5E fullwidth tilde
	" ", "",
	"　", "",
)

// Options configures a Loader.
type Options struct {
	DataRoot   string
	File       string // relative to DataRoot; .xlsx is read as a workbook
	Encoding   string // CSV charset, default shift_jis
	BannerRows int    // rows before the header, default 1
	NoBanner   bool   // the header is the first row
	Bands      []Band // nil uses DefaultBands
}

// Loader reads the population table shared by all municipalities.
type Loader struct {
	opts Options
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	if opts.File == "" {
		opts.File = "tblT001082C27.csv"
	}
	if opts.Encoding == "" {
		opts.Encoding = "shift_jis"
	}
	if opts.Bands == nil {
		opts.Bands = DefaultBands()
	}
	switch {
	case opts.NoBanner:
		opts.BannerRows = 0
	case opts.BannerRows <= 0:
		opts.BannerRows = 1
	}
	return &Loader{opts: opts}
}

// Path is the population file the loader reads.
func (l *Loader) Path() string {
	return filepath.Join(l.opts.DataRoot, l.opts.File)
}

// Load returns the rows whose city name contains municipality
// (case-insensitive), with every non-name column parsed as a count and the
// derived bands appended.
func (l *Loader) Load(municipality string) (*model.PopulationTable, error) {
	path := l.Path()
	log := zap.L().With(zap.String("component", "population"), zap.String("municipality", municipality))

	rows, err := l.readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &model.MissingColumnError{
			Source:  path,
			Missing: []string{model.ColCityName, model.ColSubAreaName},
		}
	}

	header := CleanHeader(rows[0])
	cityIdx, subIdx := indexOf(header, model.ColCityName), indexOf(header, model.ColSubAreaName)
	var missing []string
	if cityIdx < 0 {
		missing = append(missing, model.ColCityName)
	}
	if subIdx < 0 {
		missing = append(missing, model.ColSubAreaName)
	}
	if len(missing) > 0 {
		return nil, &model.MissingColumnError{Source: path, Missing: missing, Available: header}
	}

	// Numeric columns in file order; later duplicates are ignored.
	type numCol struct {
		name string
		idx  int
	}
	var numeric []numCol
	seen := map[string]bool{model.ColCityName: true, model.ColSubAreaName: true}
	for i, name := range header {
		if seen[name] {
			if i != cityIdx && i != subIdx {
				log.Debug("population: duplicate column ignored", zap.String("column", name), zap.Int("index", i))
			}
			continue
		}
		seen[name] = true
		numeric = append(numeric, numCol{name: name, idx: i})
	}

	table := &model.PopulationTable{Source: path}
	for _, c := range numeric {
		table.Columns = append(table.Columns, c.name)
	}
	for _, b := range l.opts.Bands {
		if !seen[b.Name] {
			table.Columns = append(table.Columns, b.Name)
		}
	}

	needle := strings.ToLower(municipality)
	for _, row := range rows[1:] {
		city := cell(row, cityIdx)
		if !strings.Contains(strings.ToLower(city), needle) {
			continue
		}

		values := make(map[string]float64, len(table.Columns))
		for _, c := range numeric {
			values[c.name] = ParseCount(cell(row, c.idx))
		}
		applyBands(values, l.opts.Bands)

		table.Records = append(table.Records, model.PopulationRecord{
			CityName:    city,
			SubAreaName: cell(row, subIdx),
			Values:      values,
		})
	}

	log.Debug("population: loaded",
		zap.Int("rows", len(table.Records)),
		zap.Int("columns", len(table.Columns)),
	)
	return table, nil
}

func (l *Loader) readRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &model.FileNotFoundError{Path: path, Err: err}
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: l.opts.BannerRows})
		if err != nil {
			return nil, eris.Wrapf(err, "population: read %s", path)
		}
		return rows, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "population: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rows, err := fetcher.ReadCSV(f, fetcher.CSVOptions{
		Encoding:   l.opts.Encoding,
		SkipRows:   l.opts.BannerRows,
		LazyQuotes: true,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "population: read %s", path)
	}
	return rows, nil
}

// CleanHeader names the unlabeled city and sub-area cells and strips the
// decorations from the age-bucket column names. Other blank cells become
// unnamed_<index>; a name that cleans to nothing keeps its trimmed original.
func CleanHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			switch i {
			case cityColumnIndex:
				out[i] = model.ColCityName
				continue
			case subAreaColumnIndex:
				out[i] = model.ColSubAreaName
				continue
			}
			out[i] = fmt.Sprintf("unnamed_%d", i)
			continue
		}
		cleaned := strings.TrimSpace(headerCleaner.Replace(name))
		if cleaned == "" {
			cleaned = name
		}
		out[i] = cleaned
	}
	return out
}

// ParseCount parses a population cell. Suppressed ("X"), absent ("-"),
// empty and unparsable cells count as 0, as do negative values.
func ParseCount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || strings.EqualFold(s, "X") {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// applyBands adds each band as the sum of its sources present in values.
// A band with no present source is 0.
func applyBands(values map[string]float64, bands []Band) {
	for _, b := range bands {
		sum := 0.0
		for _, src := range b.Sources {
			sum += values[src]
		}
		values[b.Name] = sum
	}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
