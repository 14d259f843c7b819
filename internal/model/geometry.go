package model

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// CanonicalSRID is the coordinate reference system every loaded geometry is in
// (WGS84 longitude/latitude).
const CanonicalSRID = 4326

// GeometryRecord is one administrative sub-area polygon with its shapefile attributes.
type GeometryRecord struct {
	Attributes map[string]string  // lowercased field name -> decoded value
	Geometry   *geom.MultiPolygon // lon/lat, SRID 4326
	Area       float64            // area in the source CRS, used to pick duplicate representatives
}

// Attr returns the attribute value for a field name, case-insensitively.
func (r GeometryRecord) Attr(name string) string {
	return r.Attributes[strings.ToLower(name)]
}

// Clone returns a copy with an independent attribute map. The geometry is shared.
func (r GeometryRecord) Clone() GeometryRecord {
	attrs := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	r.Attributes = attrs
	return r
}

// GeometryLayer is the deduplicated contents of one municipality's shapefile.
type GeometryLayer struct {
	SourcePath    string
	Encoding      string   // attribute encoding actually used
	SourceCRS     string   // CRS the file was read in, before reprojection
	Fields        []string // lowercased field names in file order
	CityColumn    string   // discovered city-name field
	SubAreaColumn string   // discovered sub-area-name field
	Records       []GeometryRecord
	MergedNames   []string // normalized sub-area names whose duplicate polygons were merged
}
