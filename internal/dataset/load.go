package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tinoosan/chrono/internal/errs"
)

// RowPolicy decides what happens to a data row whose column count does not
// match the header.
type RowPolicy int

const (
	// SkipMalformed drops the row and logs a warning.
	SkipMalformed RowPolicy = iota
	// Strict fails the load with errs.ErrMalformedRow.
	Strict
)

// Options tune how a dataset is built.
type Options struct {
	Policy RowPolicy
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Load reads the delimited file at path. A missing or unreadable file yields
// an error wrapping errs.ErrFileAccess.
func Load(path string, opts Options) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrFileAccess, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errs.ErrFileAccess, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrFileAccess, path, err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses a delimited stream: the first row is the header, every later
// row becomes one Record in stream order. Blank lines are ignored.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	rr := newRowReader(r)
	var b *Builder
	for {
		row, line, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errs.ErrMalformedRow) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrFileAccess, err)
		}
		if row == nil {
			continue
		}
		if b == nil {
			b = NewBuilder(row, opts)
			continue
		}
		if err := b.Add(line, row); err != nil {
			return nil, err
		}
	}
	if b == nil {
		return Empty(), nil
	}
	return b.Dataset(), nil
}

// Builder assembles a Dataset row by row against a fixed header.
type Builder struct {
	schema  *Schema
	opts    Options
	records []Record
	stats   Stats
}

// NewBuilder starts a dataset with the given header.
func NewBuilder(header []string, opts Options) *Builder {
	h := make([]string, len(header))
	copy(h, header)
	return &Builder{schema: NewSchema(h), opts: opts}
}

// Add appends one data row. line is only used for diagnostics.
func (b *Builder) Add(line int, row []string) error {
	if len(row) != b.schema.Columns() {
		if b.opts.Policy == Strict {
			return fmt.Errorf("%w: line %d has %d columns, header has %d", errs.ErrMalformedRow, line, len(row), b.schema.Columns())
		}
		b.stats.Skipped++
		b.opts.logger().Warn("skipping malformed row", "line", line, "columns", len(row), "expected", b.schema.Columns())
		return nil
	}
	values := make([]string, len(row))
	copy(values, row)
	b.records = append(b.records, Record{schema: b.schema, values: values})
	b.stats.Rows++
	return nil
}

// Dataset freezes the builder. The builder must not be used afterwards.
func (b *Builder) Dataset() *Dataset {
	return &Dataset{schema: b.schema, records: b.records, stats: b.stats}
}
