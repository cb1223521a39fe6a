package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// File-level errors. Each one fails the whole upload; no entities are produced.
var (
	ErrEmptyFile      = errors.New("empty file")
	ErrTooFewRows     = errors.New("too few rows: a header and at least one data row are required")
	ErrUnreadableFile = errors.New("unreadable file")
	ErrFileTooLarge   = errors.New("file too large")
	ErrMissingHeader  = errors.New("missing required column")
)

// Schema is the parsed form of an upload, resolved once by Detect.
// Downstream code only calls Produce and never branches on the variant again.
type Schema interface {
	Kind() SchemaKind
	Produce(ctx context.Context, opts ParseOptions) (*Batch, error)
}

// FlatSchema is the legacy single-table layout.
type FlatSchema struct {
	Table     *Table
	Malformed []RowIssue // rows the reader could not parse
}

// Kind implements Schema.
func (s *FlatSchema) Kind() SchemaKind { return SchemaFlat }

// RelationalSchema is the four-table template keyed by Client ID.
type RelationalSchema struct {
	Tables map[string]*Table // by sheet key
}

// Kind implements Schema.
func (s *RelationalSchema) Kind() SchemaKind { return SchemaRelational }

// Detect parses raw upload bytes and decides which schema they follow.
//
// Spreadsheets holding every registered relational sheet are relational;
// anything else (first sheet of a workbook, or delimited text) is flat.
func Detect(ctx context.Context, fileName string, data []byte, opts ParseOptions) (Schema, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if strings.EqualFold(filepath.Ext(fileName), ".xls") {
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx", ErrUnreadableFile)
	}

	if isWorkbook(fileName, data) {
		tables, err := readWorkbook(ctx, data, opts)
		if err != nil {
			return nil, err
		}
		return detectWorkbook(tables)
	}

	table, malformed, err := readDelimited(ctx, data, sniffDelimiter(fileName, data), opts)
	if err != nil {
		return nil, err
	}
	if table.nonEmptyRows() < 2 {
		return nil, ErrTooFewRows
	}
	return &FlatSchema{Table: table, Malformed: malformed}, nil
}

func detectWorkbook(tables []*Table) (Schema, error) {
	if len(tables) == 0 {
		return nil, ErrEmptyFile
	}

	if matched := matchRelationalSheets(tables); matched != nil {
		if matched[SheetClients].nonEmptyRows() < 2 {
			return nil, ErrTooFewRows
		}
		return &RelationalSchema{Tables: matched}, nil
	}

	for _, t := range tables {
		if t.nonEmptyRows() == 0 {
			continue
		}
		if t.nonEmptyRows() < 2 {
			return nil, ErrTooFewRows
		}
		padToHeader(t)
		return &FlatSchema{Table: t}, nil
	}
	return nil, ErrEmptyFile
}

// matchRelationalSheets returns the workbook tables keyed by sheet key when
// every registered sheet is present, or nil otherwise.
func matchRelationalSheets(tables []*Table) map[string]*Table {
	defs := All()
	if len(defs) == 0 {
		return nil
	}

	matched := make(map[string]*Table, len(defs))
	for _, def := range defs {
		for _, t := range tables {
			if def.Matches(t.Name) {
				matched[def.Key] = t
				break
			}
		}
		if matched[def.Key] == nil {
			return nil
		}
	}
	return matched
}

// padToHeader extends short rows to the header width. Spreadsheet readers
// drop trailing empty cells, which delimited exports keep.
func padToHeader(t *Table) {
	width := 0
	for _, row := range t.Rows {
		if !isEmptyRow(row) {
			width = len(row)
			break
		}
	}
	for i, row := range t.Rows {
		if len(row) < width && !isEmptyRow(row) {
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		}
	}
}
