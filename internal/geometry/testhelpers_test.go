package geometry

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"golang.org/x/text/encoding/japanese"

	"github.com/sells-group/popmap/internal/geometry/shptest"
	"github.com/sells-group/popmap/internal/model"
)

type testFeature struct {
	rings [][]shp.Point
	attrs []any
}

// writeShapefile writes a polygon shapefile into dir and returns its path.
func writeShapefile(t *testing.T, dir, name string, fields []shp.Field, feats []testFeature) string {
	t.Helper()
	out := make([]shptest.Feature, 0, len(feats))
	for _, f := range feats {
		out = append(out, shptest.Feature{Rings: f.rings, Attrs: f.attrs})
	}
	return shptest.Write(t, filepath.Join(dir, name), fields, out)
}

// cwRect returns a clockwise (shell) ring.
func cwRect(x, y, w, h float64) []shp.Point {
	return shptest.Rect(x, y, w, h)
}

// ccwRect returns a counter-clockwise (hole) ring.
func ccwRect(x, y, w, h float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}, {X: x, Y: y}}
}

func rectMulti(x, y, w, h float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{{
		{x, y}, {x, y + h}, {x + w, y + h}, {x + w, y}, {x, y},
	}}}).SetSRID(model.CanonicalSRID)
}

func sjis(t *testing.T, s string) string {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}
