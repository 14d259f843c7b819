package geometry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/popmap/internal/model"
)

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "大東市")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	writeShapefile(t, dir, "b_town.shp", townFields, []testFeature{
		{rings: [][]shp.Point{cwRect(0, 0, 1, 1)}, attrs: []any{"大東市", "other", 1.0}},
	})
	writeShapefile(t, dir, "a_town.shp", townFields, []testFeature{
		{rings: [][]shp.Point{cwRect(0, 0, 1, 1)}, attrs: []any{"大東市", "赤井一丁目", 1.0}},
		{rings: [][]shp.Point{cwRect(2, 0, 1, 1)}, attrs: []any{"大東市", "朋来", 1.0}},
		{rings: [][]shp.Point{cwRect(4, 0, 1, 3)}, attrs: []any{"大東市", "赤井一丁目", 3.0}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$lock.shp"), []byte("not a shapefile"), 0o644))

	l := NewLoader(Options{DataRoot: root})
	layer, err := l.Load("大東市")
	require.NoError(t, err)

	assert.Equal(t, "a_town.shp", filepath.Base(layer.SourcePath))
	assert.Equal(t, "city_name", layer.CityColumn)
	assert.Equal(t, "s_name", layer.SubAreaColumn)
	assert.Equal(t, []string{"赤井一丁目"}, layer.MergedNames)
	assert.Contains(t, layer.Fields, "kigo_e")

	require.Len(t, layer.Records, 2)
	assert.Equal(t, "赤井一丁目", layer.Records[0].Attr("s_name"))
	assert.Equal(t, "E1", layer.Records[0].Attr("kigo_e"))
	assert.Equal(t, 2, layer.Records[0].Geometry.NumPolygons())
	assert.Equal(t, "朋来", layer.Records[1].Attr("s_name"))
}

func TestLoader_MergesVariantNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "東大阪市")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	writeShapefile(t, dir, "town.shp", townFields, []testFeature{
		{rings: [][]shp.Point{cwRect(0, 0, 1, 1)}, attrs: []any{"東大阪市", "荒本北1丁目", 1.0}},
		{rings: [][]shp.Point{cwRect(2, 0, 1, 1)}, attrs: []any{"東大阪市", "荒本北一丁目", 2.0}},
		{rings: [][]shp.Point{cwRect(4, 0, 1, 1)}, attrs: []any{"東大阪市", "新町", 1.0}},
	})

	layer, err := NewLoader(Options{DataRoot: root}).Load("東大阪市")
	require.NoError(t, err)
	require.Len(t, layer.Records, 2)
	assert.Equal(t, []string{"荒本北一丁目"}, layer.MergedNames)
	assert.Equal(t, "荒本北一丁目", layer.Records[0].Attr("s_name"))
	assert.InDelta(t, 3.0, layer.Records[0].Area, 1e-9)
}

func TestLoader_Candidates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.SHP", "a.shp", "~$a.shp", "a.dbf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	got, err := NewLoader(Options{}).Candidates(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.shp"), filepath.Join(dir, "z.SHP")}, got)
}

func TestLoader_MissingDirectory(t *testing.T) {
	_, err := NewLoader(Options{DataRoot: t.TempDir()}).Load("門真市")
	require.Error(t, err)
	var nf *model.FileNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestLoader_NoShapefile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "門真市"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "門真市", "~$tmp.shp"), nil, 0o644))

	_, err := NewLoader(Options{DataRoot: root}).Load("門真市")
	var nf *model.FileNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestLoader_MissingSubAreaColumn(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "門真市")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeShapefile(t, dir, "town.shp", []shp.Field{shp.StringField("CITY_NAME", 20), shp.StringField("MOJI", 20)}, []testFeature{
		{rings: [][]shp.Point{cwRect(0, 0, 1, 1)}, attrs: []any{"門真市", "元町"}},
	})

	_, err := NewLoader(Options{DataRoot: root}).Load("門真市")
	require.Error(t, err)
	var mc *model.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, []string{"S_NAME"}, mc.Missing)
	assert.Equal(t, []string{"city_name", "moji"}, mc.Available)
}

func TestLoader_MissingCityColumn(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "門真市")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeShapefile(t, dir, "town.shp", []shp.Field{shp.StringField("S_NAME", 20)}, []testFeature{
		{rings: [][]shp.Point{cwRect(0, 0, 1, 1)}, attrs: []any{"元町"}},
	})

	_, err := NewLoader(Options{DataRoot: root}).Load("門真市")
	var mm *model.MissingMergeColumnError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "city", mm.Axis)
}
