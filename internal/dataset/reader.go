package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tinoosan/chrono/internal/errs"
)

const (
	// Separator splits fields within a row.
	Separator = ';'
	// Quote opens and closes a quoted field; doubled inside one it is literal.
	Quote = '|'
)

// rowReader splits a `;`/`|` delimited stream into rows. A quote is only
// special at the start of a field; quoted fields may span lines.
type rowReader struct {
	r    *bufio.Reader
	line int
}

func newRowReader(r io.Reader) *rowReader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return &rowReader{r: br}
}

// next returns the next row and the line it started on. A blank line comes
// back as a nil row. io.EOF is returned once the stream is exhausted. Bytes
// that are not valid UTF-8 fail with errs.ErrMalformedRow.
func (rr *rowReader) next() ([]string, int, error) {
	var (
		fields  []string
		field   strings.Builder
		quoted  bool
		start   = true
		touched bool
	)
	startLine := rr.line + 1
	endRow := func() ([]string, int, error) {
		if !touched && len(fields) == 0 {
			return nil, startLine, nil
		}
		return append(fields, field.String()), startLine, nil
	}

	for {
		c, size, err := rr.r.ReadRune()
		if errors.Is(err, io.EOF) {
			if !touched {
				return nil, startLine, io.EOF
			}
			return endRow()
		}
		if err != nil {
			return nil, startLine, err
		}
		if c == utf8.RuneError && size == 1 {
			return nil, startLine, fmt.Errorf("%w: line %d: invalid UTF-8", errs.ErrMalformedRow, rr.line+1)
		}

		if quoted {
			if c == Quote {
				if p, err := rr.r.Peek(1); err == nil && p[0] == Quote {
					_, _ = rr.r.Discard(1)
					field.WriteRune(Quote)
					continue
				}
				quoted = false
				continue
			}
			if c == '\n' {
				rr.line++
			}
			field.WriteRune(c)
			continue
		}

		switch c {
		case Separator:
			fields = append(fields, field.String())
			field.Reset()
			start = true
			touched = true
			continue
		case '\r':
			if p, err := rr.r.Peek(1); err == nil && p[0] == '\n' {
				_, _ = rr.r.Discard(1)
			}
			rr.line++
			return endRow()
		case '\n':
			rr.line++
			return endRow()
		case Quote:
			if start {
				quoted = true
				start = false
				touched = true
				continue
			}
		}
		start = false
		touched = true
		field.WriteRune(c)
	}
}
