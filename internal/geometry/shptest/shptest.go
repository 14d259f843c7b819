// Package shptest writes polygon shapefiles for tests.
package shptest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Feature is one polygon with its attribute values in field order.
type Feature struct {
	Rings [][]shp.Point
	Attrs []any
}

// Write creates a polygon shapefile at path with its .shx and .dbf sidecars.
func Write(t testing.TB, path string, fields []shp.Field, feats []Feature) string {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))

	for _, f := range feats {
		poly := shp.Polygon(*shp.NewPolyLine(f.Rings))
		row := int(w.Write(&poly))
		for i, v := range f.Attrs {
			require.NoError(t, w.WriteAttribute(row, i, v))
		}
	}
	w.Close()

	// go-shp names the table "<base>dbf" without the dot.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")
	return path
}

// Rect returns a clockwise ring, the shapefile orientation of a shell.
func Rect(x, y, w, h float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + h}, {X: x + w, Y: y + h}, {X: x + w, Y: y}, {X: x, Y: y}}
}
