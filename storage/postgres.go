package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCopier bulk-loads staged CSV files into the landing table.
type PostgresCopier struct {
	pool *pgxpool.Pool
}

func NewPostgresCopier(ctx context.Context, connString string) (*PostgresCopier, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresCopier{pool: pool}, nil
}

func (c *PostgresCopier) Close() {
	c.pool.Close()
}

// CopyCSV streams r, a CSV file with a header row, into schema.table. The
// header is consumed by the server, so columns must list it in file order.
func (c *PostgresCopier) CopyCSV(ctx context.Context, schema, table string, columns []string, r io.Reader) (int64, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, r, CopyStatement(schema, table, columns))
	if err != nil {
		return 0, fmt.Errorf("copy into %s.%s: %w", schema, table, err)
	}
	return tag.RowsAffected(), nil
}

// CopyStatement builds the COPY ... FROM STDIN command with every identifier
// quoted.
func CopyStatement(schema, table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
	}
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true)",
		pgx.Identifier{schema, table}.Sanitize(), strings.Join(quoted, ", "))
}
