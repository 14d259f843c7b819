package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/db"
	"github.com/sells-group/popmap/internal/pipeline"
)

var postgisColumns = []string{
	"city_town_key", "seq", "run_id", "city", "sub_area", "matched",
	"attributes", "demographics", "geom", "loaded_at",
}

// PostGISWriter upserts datasets into a PostGIS table keyed by
// (city_town_key, seq).
type PostGISWriter struct {
	pool      db.Pool
	schema    string
	table     string
	batchSize int
}

// NewPostGISWriter creates a writer. Empty schema and table default to
// popmap.subareas.
func NewPostGISWriter(pool db.Pool, schema, table string, batchSize int) *PostGISWriter {
	if schema == "" {
		schema = "popmap"
	}
	if table == "" {
		table = "subareas"
	}
	return &PostGISWriter{pool: pool, schema: schema, table: table, batchSize: batchSize}
}

// QualifiedTable is schema.table.
func (w *PostGISWriter) QualifiedTable() string {
	return w.schema + "." + w.table
}

// EnsureTable creates the schema, the postgis extension and the table.
func (w *PostGISWriter) EnsureTable(ctx context.Context) error {
	ident := pgx.Identifier{w.schema, w.table}.Sanitize()
	ddl := fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %[1]s;
CREATE EXTENSION IF NOT EXISTS postgis;
CREATE TABLE IF NOT EXISTS %[2]s (
	city_town_key TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	run_id        UUID NOT NULL,
	city          TEXT NOT NULL,
	sub_area      TEXT NOT NULL,
	matched       BOOLEAN NOT NULL,
	attributes    JSONB NOT NULL,
	demographics  JSONB,
	geom          geometry(MultiPolygon, 4326),
	loaded_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (city_town_key, seq)
);
CREATE INDEX IF NOT EXISTS %[3]s ON %[2]s USING GIST (geom);`,
		pgx.Identifier{w.schema}.Sanitize(),
		ident,
		pgx.Identifier{w.table + "_geom_idx"}.Sanitize(),
	)
	if _, err := w.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "export: create %s", w.QualifiedTable())
	}
	return nil
}

// Write ensures the table and upserts every row of the dataset.
func (w *PostGISWriter) Write(ctx context.Context, ds *pipeline.Dataset) (int64, error) {
	if err := w.EnsureTable(ctx); err != nil {
		return 0, err
	}

	rows, err := postgisRows(ds)
	if err != nil {
		return 0, err
	}

	n, err := db.BulkUpsert(ctx, w.pool, db.UpsertConfig{
		Table:        w.QualifiedTable(),
		Columns:      postgisColumns,
		ConflictKeys: []string{"city_town_key", "seq"},
		BatchSize:    w.batchSize,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "export: postgis upsert")
	}

	zap.L().Info("export: postgis written",
		zap.String("table", w.QualifiedTable()),
		zap.Int64("rows", n),
		zap.String("run_id", ds.RunID.String()),
	)
	return n, nil
}

func postgisRows(ds *pipeline.Dataset) ([][]any, error) {
	t := Flatten(ds)
	runID := pgtype.UUID{Bytes: ds.RunID, Valid: true}

	out := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		var geomBytes []byte
		if r.Geometry != nil {
			b, err := ewkb.Marshal(r.Geometry, ewkb.NDR)
			if err != nil {
				return nil, eris.Wrapf(err, "export: encode ewkb of %s", r.Key)
			}
			geomBytes = b
		}

		var demographics any // SQL NULL when unmatched
		if r.Matched {
			m := make(map[string]*float64, len(t.Columns))
			for i, c := range t.Columns {
				m[c] = r.Values[i]
			}
			demographics = m
		}

		out = append(out, []any{
			r.Key.String(), r.Seq, runID, r.City, r.SubArea, r.Matched,
			attrMap(t.Fields, r.Attrs), demographics, geomBytes, ds.LoadedAt,
		})
	}
	return out, nil
}
