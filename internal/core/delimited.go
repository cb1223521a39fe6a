package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// TableFile is the issue table name used for file-level row problems.
const TableFile = "file"

// sniffDelimiters are the candidates tried on the header line, in preference order.
var sniffDelimiters = []rune{',', ';', '\t', '|'}

// Table is a 2-D grid of raw cells with the source line of each row.
type Table struct {
	Name  string
	Rows  [][]string
	Lines []int
}

// line returns the 1-based source line of row i.
func (t *Table) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 1
}

// nonEmptyRows counts rows that carry at least one value.
func (t *Table) nonEmptyRows() int {
	n := 0
	for _, row := range t.Rows {
		if !isEmptyRow(row) {
			n++
		}
	}
	return n
}

// sniffDelimiter picks the field delimiter for a delimited text file.
// ".tsv" files are always tab separated; otherwise the candidate occurring most
// often outside quotes on the first line wins, with comma winning ties.
func sniffDelimiter(fileName string, data []byte) rune {
	if strings.EqualFold(filepath.Ext(fileName), ".tsv") {
		return '\t'
	}

	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range sniffDelimiters {
		if n := countOutsideQuotes(string(first), d); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func countOutsideQuotes(line string, delim rune) int {
	n := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			n++
		}
	}
	return n
}

// readDelimited parses quote-aware delimited text.
//
// A record the CSV reader cannot parse is reported as a malformed row and
// skipped; it never aborts the read. A field whose opening quote is never
// closed would swallow the rest of the file, so that record is reported and
// reading resumes on the next physical line.
func readDelimited(ctx context.Context, data []byte, delim rune, opts ParseOptions) (*Table, []RowIssue, error) {
	data = sanitizeText(data)
	starts := lineStarts(data)

	table := &Table{Name: TableFile}
	var malformed []RowIssue
	total := int64(len(data))

	// base is the number of lines before the current reader's input.
	for base := 0; base < len(starts); {
		r := newDelimitedReader(data[starts[base]:], delim)
		resume := -1

		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					malformed = append(malformed, RowIssue{
						Table:    TableFile,
						Line:     base + pe.StartLine,
						Severity: SeverityError,
						Message:  fmt.Sprintf("malformed row: %v", pe.Err),
					})
					continue
				}
				return nil, nil, fmt.Errorf("read delimited: %w", err)
			}

			line, _ := r.FieldPos(0)
			line += base
			if field := unclosedField(r, record, data, starts, base, delim); field >= 0 {
				malformed = append(malformed, RowIssue{
					Table:    TableFile,
					Line:     line,
					Severity: SeverityError,
					Message:  fmt.Sprintf("malformed row: quote opened in field %d is never closed", field+1),
				})
				resume = line
				break
			}

			table.Rows = append(table.Rows, record)
			table.Lines = append(table.Lines, line)

			if n := len(table.Rows); opts.atChunk(n) {
				if err := opts.yield(ctx, ImportProgress{
					Phase:      PhaseReading,
					CurrentRow: n,
					BytesRead:  int64(starts[base]) + r.InputOffset(),
					BytesTotal: total,
				}); err != nil {
					return nil, nil, err
				}
			}
		}

		if resume < 0 {
			break
		}
		base = resume
	}

	return table, malformed, nil
}

func newDelimitedReader(data []byte, delim rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

// lineStarts returns the byte offset of every physical line in data.
func lineStarts(data []byte) []int {
	starts := []int{0}
	for i, c := range data {
		if c == '\n' && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// unclosedField returns the index of the first multi-line field in record
// whose opening quote has no closing quote before the end of the input,
// or -1 when every field is balanced.
func unclosedField(r *csv.Reader, record []string, data []byte, starts []int, base int, delim rune) int {
	for i, field := range record {
		if !strings.ContainsAny(field, "\r\n") {
			continue
		}
		line, col := r.FieldPos(i)
		if base+line-1 >= len(starts) {
			continue
		}
		pos := starts[base+line-1] + col - 1
		if pos < len(data) && data[pos] == '"' && !quoteCloses(data[pos+1:], delim) {
			return i
		}
	}
	return -1
}

// quoteCloses reports whether a quoted field starting at rest is terminated
// by a quote followed by the delimiter, a line break or end of input.
// Doubled quotes are escapes; any other quote is literal.
func quoteCloses(rest []byte, delim rune) bool {
	for i := 0; i < len(rest); i++ {
		if rest[i] != '"' {
			continue
		}
		if i+1 == len(rest) {
			return true
		}
		switch next := rest[i+1]; {
		case next == '"':
			i++
		case next == '\n', next == '\r', rune(next) == delim:
			return true
		}
	}
	return false
}
