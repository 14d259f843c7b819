package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/popmap/internal/pipeline"
)

const sqliteRunsTable = `
CREATE TABLE runs (
	run_id         TEXT PRIMARY KEY,
	municipalities TEXT NOT NULL,
	loaded_at      DATETIME NOT NULL,
	summary        TEXT NOT NULL
);`

// WriteSQLite writes the dataset to a new SQLite file at path, replacing any
// existing file. Geometry is stored as little-endian WKB; every population
// column becomes a REAL column.
func WriteSQLite(ctx context.Context, path string, ds *pipeline.Dataset) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "export: remove %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "export: sqlite open")
	}
	defer func() { _ = db.Close() }()

	t := Flatten(ds)
	if _, err := db.ExecContext(ctx, sqliteRunsTable+subareasDDL(t.Columns)); err != nil {
		return eris.Wrap(err, "export: sqlite create tables")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "export: sqlite begin")
	}
	defer func() { _ = tx.Rollback() }()

	municipalities, err := json.Marshal(ds.Municipalities)
	if err != nil {
		return eris.Wrap(err, "export: marshal municipalities")
	}
	summary, err := json.Marshal(ds.Summary)
	if err != nil {
		return eris.Wrap(err, "export: marshal summary")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, municipalities, loaded_at, summary) VALUES (?, ?, ?, ?)`,
		ds.RunID.String(), string(municipalities), ds.LoadedAt, string(summary),
	); err != nil {
		return eris.Wrap(err, "export: sqlite insert run")
	}

	stmt, err := tx.PrepareContext(ctx, subareasInsert(t.Columns))
	if err != nil {
		return eris.Wrap(err, "export: sqlite prepare")
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range t.Rows {
		attrs, err := json.Marshal(attrMap(t.Fields, r.Attrs))
		if err != nil {
			return eris.Wrapf(err, "export: marshal attributes of %s", r.Key)
		}
		var geomBlob []byte
		if r.Geometry != nil {
			if geomBlob, err = wkb.Marshal(r.Geometry, wkb.NDR); err != nil {
				return eris.Wrapf(err, "export: encode wkb of %s", r.Key)
			}
		}

		args := []any{ds.RunID.String(), r.Key.String(), r.Seq, r.City, r.SubArea, r.Matched, string(attrs), geomBlob}
		for _, v := range r.Values {
			if v == nil {
				args = append(args, nil)
			} else {
				args = append(args, *v)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "export: sqlite insert %s", r.Key)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "export: sqlite commit")
	}
	zap.L().Info("export: sqlite written", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return nil
}

func subareasDDL(columns []string) string {
	var b strings.Builder
	b.WriteString(`
CREATE TABLE subareas (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	city_town_key TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	city          TEXT NOT NULL,
	sub_area      TEXT NOT NULL,
	matched       INTEGER NOT NULL,
	attributes    TEXT NOT NULL,
	geom          BLOB`)
	for _, c := range columns {
		fmt.Fprintf(&b, ",\n\t%s REAL", quoteIdent(c))
	}
	b.WriteString(",\n\tPRIMARY KEY (run_id, city_town_key, seq)\n);")
	return b.String()
}

func subareasInsert(columns []string) string {
	names := []string{"run_id", "city_town_key", "seq", "city", "sub_area", "matched", "attributes", "geom"}
	for _, c := range columns {
		names = append(names, quoteIdent(c))
	}
	return fmt.Sprintf("INSERT INTO subareas (%s) VALUES (%s)",
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "),
	)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func attrMap(fields, values []string) map[string]string {
	m := make(map[string]string, len(fields))
	for i, f := range fields {
		m[f] = values[i]
	}
	return m
}
