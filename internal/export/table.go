// Package export writes joined datasets to GeoJSON, SQLite, XLSX and PostGIS.
package export

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/pipeline"
)

// Row is one joined record flattened for tabular sinks.
type Row struct {
	Key      model.CompositeKey
	Seq      int // occurrence of Key within the dataset, 0 unless fanned out
	City     string
	SubArea  string
	Matched  bool
	Attrs    []string   // aligned with Table.Fields
	Values   []*float64 // aligned with Table.Columns; nil when unmatched
	Geometry *geom.MultiPolygon
}

// Table is a dataset flattened into aligned rows.
type Table struct {
	Fields  []string // boundary attribute fields
	Columns []string // population columns
	Rows    []Row
}

// Flatten turns a dataset into a Table.
func Flatten(ds *pipeline.Dataset) Table {
	t := Table{Fields: ds.Fields, Columns: ds.Columns, Rows: make([]Row, 0, len(ds.Records))}
	seen := make(map[model.CompositeKey]int, len(ds.Records))

	for _, r := range ds.Records {
		city, sub := r.Key.Split()
		row := Row{
			Key:      r.Key,
			Seq:      seen[r.Key],
			City:     city,
			SubArea:  sub,
			Matched:  r.Matched(),
			Attrs:    make([]string, len(t.Fields)),
			Values:   make([]*float64, len(t.Columns)),
			Geometry: r.Geometry.Geometry,
		}
		seen[r.Key]++

		for i, f := range t.Fields {
			row.Attrs[i] = r.Geometry.Attr(f)
		}
		for i, c := range t.Columns {
			if v, ok := r.Value(c); ok {
				row.Values[i] = &v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
