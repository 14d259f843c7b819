package mapview

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/popmap/internal/model"
)

// FeatureCollection converts joined rows into GeoJSON features. Each feature's
// id and city_town_key property is the composite key; properties carry the
// boundary attributes plus every population column, null when unmatched.
func FeatureCollection(records []model.JoinedRecord, columns []string) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}

	var bounds *geom.Bounds
	for i, r := range records {
		if r.Geometry.Geometry == nil {
			return nil, eris.Errorf("mapview: row %d (%s) has no geometry", i, r.Key)
		}

		props := make(map[string]any, len(r.Geometry.Attributes)+len(columns)+1)
		for k, v := range r.Geometry.Attributes {
			props[k] = v
		}
		for _, col := range columns {
			if v, ok := r.Value(col); ok {
				props[col] = v
			} else {
				props[col] = nil
			}
		}
		props[model.KeyColumn] = r.Key.String()

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.Key.String(),
			Geometry:   r.Geometry.Geometry,
			Properties: props,
		})

		switch b := r.Geometry.Geometry.Bounds(); {
		case b.IsEmpty():
		case bounds == nil:
			bounds = b
		default:
			bounds.Extend(r.Geometry.Geometry)
		}
	}
	fc.BBox = bounds
	return fc, nil
}
