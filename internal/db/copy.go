package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultBatchSize is the COPY batch size when none is given.
const DefaultBatchSize = 5000

// Copier is anything that can COPY: a Pool or a pgx.Tx.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyFrom bulk-inserts rows into table with the COPY protocol, batchSize
// rows at a time (0 = DefaultBatchSize). table may be schema-qualified
// ("popmap.subareas"). Rows copied before a failing batch are counted.
func CopyFrom(ctx context.Context, c Copier, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ident := Identifier(table)
	log := zap.L().With(zap.String("component", "db.copy"), zap.String("table", table))

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		n, err := c.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows[i:end]))
		if err != nil {
			return total, eris.Wrapf(err, "db: COPY INTO %s (rows %d-%d)", table, i, end)
		}
		total += n
		log.Debug("db: batch copied", zap.Int("start", i), zap.Int("end", end), zap.Int64("rows", n))
	}
	return total, nil
}

// Identifier splits a possibly schema-qualified table name.
func Identifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}
