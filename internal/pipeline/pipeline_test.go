package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/sells-group/popmap/internal/config"
	"github.com/sells-group/popmap/internal/diagnostics"
	"github.com/sells-group/popmap/internal/geometry"
	"github.com/sells-group/popmap/internal/geometry/shptest"
	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/population"
)

var populationLines = []string{
	"人口等基本集計,,,,,",
	"KEY_CODE,HYOSYO,,,総数,総数２０～２４歳",
	"27227001001,1,東大阪市,荒本北１丁目,120,30",
	"27227001002,1,東大阪市,荒本北２丁目,80,20",
	"27218001001,1,大東市,赤井１丁目,50,5",
}

type town struct {
	city, name string
}

// writeDataRoot lays out a data root with the shared population table and
// one boundary shapefile per municipality.
func writeDataRoot(t *testing.T, towns map[string][]town) string {
	t.Helper()
	root := t.TempDir()

	body, err := japanese.ShiftJIS.NewEncoder().String(strings.Join(populationLines, "\r\n") + "\r\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "tblT001082C27.csv"), []byte(body), 0o644))

	for muni, rows := range towns {
		dir := filepath.Join(root, muni)
		require.NoError(t, os.MkdirAll(dir, 0o755))

		feats := make([]shptest.Feature, 0, len(rows))
		for i, r := range rows {
			feats = append(feats, shptest.Feature{
				Rings: [][]shp.Point{shptest.Rect(135.6+float64(i)*0.01, 34.66, 0.01, 0.01)},
				Attrs: []any{r.city, r.name, 1000.0},
			})
		}
		shptest.Write(t, filepath.Join(dir, "town.shp"), []shp.Field{
			shp.StringField("CITY_NAME", 40),
			shp.StringField("S_NAME", 60),
			shp.FloatField("AREA", 12, 2),
		}, feats)
	}
	return root
}

func fixturePipeline(t *testing.T) *Pipeline {
	t.Helper()
	root := writeDataRoot(t, map[string][]town{
		"東大阪市": {{"東大阪市", "荒本北一丁目"}, {"東大阪市", "荒本北2丁目"}, {"東大阪市", "新町"}},
		"大東市":  {{"大東市", "赤井一丁目"}},
	})
	return New(Options{
		Population: popOpts(root),
		Geometry:   geoOpts(root),
	})
}

func TestLoadMunicipalityData(t *testing.T) {
	p := fixturePipeline(t)

	ds, err := p.LoadMunicipalityData(context.Background(), "東大阪市")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ds.RunID)
	assert.Equal(t, []string{"東大阪市"}, ds.Municipalities)
	assert.Contains(t, ds.Columns, "age_20_39")
	assert.Contains(t, ds.Fields, "s_name")
	require.Len(t, ds.Records, 3)

	assert.Equal(t, model.CompositeKey("東大阪市_荒本北一丁目"), ds.Records[0].Key)
	v, ok := ds.Records[0].Value("age_20_39")
	require.True(t, ok)
	assert.InDelta(t, 30, v, 0)

	assert.Equal(t, model.CompositeKey("東大阪市_荒本北二丁目"), ds.Records[1].Key)
	v, _ = ds.Records[1].Value("age_20_39")
	assert.InDelta(t, 20, v, 0)

	assert.False(t, ds.Records[2].Matched())
	assert.Equal(t, 3, ds.Summary.TotalRows)
	assert.Equal(t, 2, ds.Summary.MatchedRows)
	assert.Equal(t, []model.CompositeKey{"東大阪市_新町"}, ds.Summary.UnmatchedKeys)
	assert.Equal(t, 1, ds.Summary.MissingValues["age_20_39"])
}

func TestLoadMunicipalityData_MissingBoundaries(t *testing.T) {
	p := fixturePipeline(t)

	_, err := p.LoadMunicipalityData(context.Background(), "門真市")
	require.Error(t, err)
	var nf *model.FileNotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "pipeline: load boundaries for 門真市")
}

func TestLoadMunicipalityData_MissingPopulation(t *testing.T) {
	root := t.TempDir()
	p := New(Options{Population: popOpts(root), Geometry: geoOpts(root)})

	_, err := p.LoadMunicipalityData(context.Background(), "大東市")
	var nf *model.FileNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, filepath.Join(root, "tblT001082C27.csv"), nf.Path)
}

func TestLoadMunicipalityData_RejectsPathNames(t *testing.T) {
	p := fixturePipeline(t)

	for _, m := range []string{"../大東市", "..", ".", "", "大東市/../東大阪市", `..\大東市`, ".git"} {
		_, err := p.LoadMunicipalityData(context.Background(), m)
		assert.ErrorIs(t, err, ErrInvalidMunicipality, m)
	}
}

func TestValidName(t *testing.T) {
	assert.NoError(t, ValidName("東大阪市"))
	assert.NoError(t, ValidName("大阪市鶴見区"))
	assert.Error(t, ValidName("a/b"))
	assert.Error(t, ValidName("a\x00b"))
	assert.Error(t, ValidName("/etc"))
}

func TestLoadMunicipalityData_Canceled(t *testing.T) {
	p := fixturePipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.LoadMunicipalityData(ctx, "大東市")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMany(t *testing.T) {
	p := fixturePipeline(t)

	ds, err := p.LoadMany(context.Background(), []string{"大東市", "東大阪市", "大東市"})
	require.NoError(t, err)

	assert.Equal(t, []string{"大東市", "東大阪市"}, ds.Municipalities)
	require.Len(t, ds.Records, 4)
	assert.Equal(t, model.CompositeKey("大東市_赤井一丁目"), ds.Records[0].Key)
	assert.Equal(t, model.CompositeKey("東大阪市_荒本北一丁目"), ds.Records[1].Key)
	assert.Equal(t, 4, ds.Summary.TotalRows)
	assert.Equal(t, 3, ds.Summary.MatchedRows)
}

func TestLoadMany_Single(t *testing.T) {
	p := fixturePipeline(t)

	ds, err := p.LoadMany(context.Background(), []string{"大東市"})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.True(t, ds.Summary.AllMatched())
}

func TestLoadMany_Errors(t *testing.T) {
	p := fixturePipeline(t)

	_, err := p.LoadMany(context.Background(), nil)
	assert.Error(t, err)

	_, err = p.LoadMany(context.Background(), []string{"大東市", "門真市"})
	require.Error(t, err)
	var nf *model.FileNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCombine(t *testing.T) {
	a := &Dataset{
		Municipalities: []string{"a"},
		Columns:        []string{"x", "y"},
		Fields:         []string{"s_name"},
		Records:        []model.JoinedRecord{{Key: "a_1"}},
		Summary:        diagnostics.Report([]model.JoinedRecord{{Key: "a_1"}}),
	}
	b := &Dataset{
		Municipalities: []string{"b"},
		Columns:        []string{"y", "z"},
		Fields:         []string{"s_name", "kigo_e"},
		Records:        []model.JoinedRecord{{Key: "b_1"}, {Key: "b_2"}},
		Summary:        diagnostics.Report([]model.JoinedRecord{{Key: "b_1"}, {Key: "b_2"}}),
	}

	out := Combine(a, nil, b)
	assert.Equal(t, []string{"a", "b"}, out.Municipalities)
	assert.Equal(t, []string{"x", "y", "z"}, out.Columns)
	assert.Equal(t, []string{"s_name", "kigo_e"}, out.Fields)
	assert.Len(t, out.Records, 3)
	assert.Equal(t, 3, out.Summary.UnmatchedRows)
	assert.NotEqual(t, uuid.Nil, out.RunID)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Root = "/data"
	cfg.Population.File = "pop.xlsx"
	cfg.Population.Bands = []config.BandConfig{{Name: "young", Sources: []string{"０～４"}}}
	cfg.Geometry.SourceEPSG = 6674
	cfg.Normalize.ChomeSuffix = "丁"
	cfg.Map.Indicators = []string{"young"}
	cfg.Batch.Concurrency = 2

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "/data", opts.Population.DataRoot)
	assert.Equal(t, "/data", opts.Geometry.DataRoot)
	assert.Equal(t, "pop.xlsx", opts.Population.File)
	require.Len(t, opts.Population.Bands, 1)
	assert.Equal(t, "young", opts.Population.Bands[0].Name)
	assert.Equal(t, 6674, opts.Geometry.SourceEPSG)
	assert.Equal(t, "丁", opts.Normalize.ChomeSuffix)
	assert.Equal(t, []string{"young"}, opts.Indicators)
	assert.Equal(t, 2, opts.Concurrency)
	assert.True(t, opts.Population.NoBanner)

	cfg.Population.BannerRows = 2
	opts = OptionsFromConfig(cfg)
	assert.Equal(t, 2, opts.Population.BannerRows)
	assert.False(t, opts.Population.NoBanner)

	assert.Nil(t, OptionsFromConfig(&config.Config{}).Population.Bands)
	assert.Equal(t, defaultConcurrency, New(Options{}).concurrency)
}

func popOpts(root string) population.Options {
	return population.Options{DataRoot: root, BannerRows: 1}
}

func geoOpts(root string) geometry.Options {
	return geometry.Options{DataRoot: root}
}

func TestMunicipalities(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"門真市", "大東市", ".git", "東大阪市"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "tblT001082C27.csv"), nil, 0o644))

	got, err := Municipalities(root, []string{"東大阪市", "大阪市鶴見区", "大東市"})
	require.NoError(t, err)
	assert.Equal(t, []string{"東大阪市", "大東市", "門真市"}, got)

	assert.True(t, HasData(root, "門真市"))
	assert.False(t, HasData(root, "大阪市鶴見区"))
	assert.False(t, HasData(root, "tblT001082C27.csv"))
	assert.False(t, HasData(filepath.Join(root, "門真市"), ".."))

	_, err = Municipalities(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)
}
