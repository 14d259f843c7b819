package geometry

import (
	"slices"
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/model"
)

// MergeOptions configures MergeDuplicates.
type MergeOptions struct {
	NameColumn  string              // attribute grouped on, e.g. "S_NAME"
	Key         func(string) string // maps a name to its grouping key; nil uses the name
	MarkerField string // set on merged rows
	MarkerValue string
}

// MergeDuplicates folds records whose sub-area names share a key into one, so
// "1丁目" and "一丁目" in one file end up as a single row. The attributes of
// the largest candidate (first on ties) are kept, its geometry becomes the
// union of the group and the marker field is set. Singletons and rows with an
// empty key pass through untouched. Output order is the first appearance of
// each key. The second result lists merged keys.
func MergeDuplicates(records []model.GeometryRecord, opts MergeOptions) ([]model.GeometryRecord, []string) {
	type group struct {
		first   int
		members []int
	}

	col := strings.ToLower(opts.NameColumn)
	keyOf := func(r model.GeometryRecord) string {
		if opts.Key == nil {
			return r.Attr(col)
		}
		return opts.Key(r.Attr(col))
	}

	groups := make(map[string]*group)
	order := make([]string, 0, len(records))
	for i, r := range records {
		name := keyOf(r)
		if name == "" {
			continue
		}
		g, ok := groups[name]
		if !ok {
			g = &group{first: i}
			groups[name] = g
			order = append(order, name)
		}
		g.members = append(g.members, i)
	}

	var merged []string
	replace := make(map[int]model.GeometryRecord)
	for _, name := range order {
		g := groups[name]
		if len(g.members) < 2 {
			continue
		}

		best := g.members[0]
		for _, idx := range g.members[1:] {
			if records[idx].Area > records[best].Area {
				best = idx
			}
		}

		parts := make([]*geom.MultiPolygon, 0, len(g.members))
		total := 0.0
		for _, idx := range g.members {
			parts = append(parts, records[idx].Geometry)
			total += records[idx].Area
		}

		rep := records[best].Clone()
		rep.Geometry = Union(parts...)
		rep.Area = total
		if opts.MarkerField != "" {
			rep.Attributes[strings.ToLower(opts.MarkerField)] = opts.MarkerValue
		}
		replace[g.first] = rep
		merged = append(merged, name)
	}

	out := make([]model.GeometryRecord, 0, len(records))
	for i, r := range records {
		name := keyOf(r)
		if name == "" {
			out = append(out, r)
			continue
		}
		g := groups[name]
		if len(g.members) < 2 {
			out = append(out, r)
			continue
		}
		if i == g.first {
			out = append(out, replace[i])
		}
	}
	return out, merged
}

// Union concatenates the polygons of several MultiPolygons, dropping exact
// duplicates. No overlay is computed: overlapping parts stay separate
// polygons and their shared area is counted once per part.
func Union(parts ...*geom.MultiPolygon) *geom.MultiPolygon {
	out := geom.NewMultiPolygon(geom.XY).SetSRID(model.CanonicalSRID)
	var seen []*geom.Polygon
	for _, mp := range parts {
		if mp == nil {
			continue
		}
		for i := 0; i < mp.NumPolygons(); i++ {
			p := mp.Polygon(i)
			if slices.ContainsFunc(seen, func(q *geom.Polygon) bool { return samePolygon(p, q) }) {
				continue
			}
			seen = append(seen, p)
			if err := out.Push(p); err != nil {
				zap.L().Debug("geometry: skipping polygon in union", zap.Error(err))
			}
		}
	}
	return out
}

func samePolygon(a, b *geom.Polygon) bool {
	return slices.Equal(a.Ends(), b.Ends()) && slices.Equal(a.FlatCoords(), b.FlatCoords())
}
