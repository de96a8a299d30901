package postgres

// Package postgres provides a pgx-backed alternate source for the participant
// dataset. Rows are read once at boot into an immutable dataset.Dataset; Seed
// loads a CSV-derived dataset into the participants table.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/chrono/internal/dataset"
)

// OrderColumn keeps file order in the participants table. It is not part of
// the loaded schema.
const OrderColumn = "_ord"

// Table is the table Seed writes to.
const Table = "participants"

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// LoadDataset runs query and turns its result into a dataset. Column names
// form the schema (OrderColumn excluded); every value is rendered as text and
// NULL becomes "".
func (s *Store) LoadDataset(ctx context.Context, query string, opts dataset.Options) (*dataset.Dataset, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var header []string
	var keep []int
	for i, fd := range rows.FieldDescriptions() {
		if fd.Name == OrderColumn {
			continue
		}
		header = append(header, fd.Name)
		keep = append(keep, i)
	}
	b := dataset.NewBuilder(header, opts)
	n := 0
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		n++
		row := make([]string, len(keep))
		for j, i := range keep {
			row[j] = text(vals[i])
		}
		if err := b.Add(n, row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b.Dataset(), nil
}

// Seed recreates the participants table with one text column per schema field
// and bulk-copies ds into it, preserving order in OrderColumn.
func (s *Store) Seed(ctx context.Context, ds *dataset.Dataset) (int64, error) {
	fields := ds.Schema().Fields()
	if len(fields) == 0 {
		return 0, fmt.Errorf("seed: dataset has no columns")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols := make([]string, 0, len(fields)+1)
	defs := make([]string, 0, len(fields)+1)
	cols = append(cols, OrderColumn)
	defs = append(defs, pgx.Identifier{OrderColumn}.Sanitize()+" bigint primary key")
	for _, f := range fields {
		cols = append(cols, f)
		defs = append(defs, pgx.Identifier{f}.Sanitize()+" text not null")
	}
	tbl := pgx.Identifier{Table}.Sanitize()
	if _, err := tx.Exec(ctx, `drop table if exists `+tbl); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `create table `+tbl+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return 0, err
	}

	records := ds.Records()
	n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, cols, pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		row := make([]any, 0, len(fields)+1)
		row = append(row, int64(i))
		for _, f := range fields {
			v, _ := records[i].Get(f)
			row = append(row, v)
		}
		return row, nil
	}))
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
