// Package join merges population rows onto boundary polygons by composite key.
package join

import (
	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/normalize"
)

// PopulationKey is the composite key of a population row.
func PopulationKey(r model.PopulationRecord, n *normalize.Normalizer) model.CompositeKey {
	return model.NewCompositeKey(n.Normalize(r.CityName), n.Normalize(r.SubAreaName))
}

// GeometryKey is the composite key of a boundary row, read from the layer's
// resolved city and sub-area columns.
func GeometryKey(r model.GeometryRecord, cityCol, subAreaCol string, n *normalize.Normalizer) model.CompositeKey {
	return model.NewCompositeKey(n.Normalize(r.Attr(cityCol)), n.Normalize(r.Attr(subAreaCol)))
}

// Join left-joins population onto geometry. Every geometry row is kept, in
// layer order. A geometry row whose key matches several population rows is
// emitted once per match, in population order; one without a match carries a
// nil Population.
func Join(pop *model.PopulationTable, layer *model.GeometryLayer, n *normalize.Normalizer) []model.JoinedRecord {
	if n == nil {
		n = normalize.Default()
	}

	index := make(map[model.CompositeKey][]int)
	if pop != nil {
		for i, r := range pop.Records {
			k := PopulationKey(r, n)
			index[k] = append(index[k], i)
		}
	}

	if layer == nil {
		return nil
	}
	out := make([]model.JoinedRecord, 0, len(layer.Records))
	for _, g := range layer.Records {
		k := GeometryKey(g, layer.CityColumn, layer.SubAreaColumn, n)
		matches := index[k]
		if len(matches) == 0 {
			out = append(out, model.JoinedRecord{Key: k, Geometry: g})
			continue
		}
		for _, i := range matches {
			p := &pop.Records[i]
			out = append(out, model.JoinedRecord{Key: k, Geometry: g, Population: p})
		}
	}
	return out
}
