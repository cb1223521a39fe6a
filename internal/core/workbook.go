package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// zipMagic prefixes every OOXML workbook.
var zipMagic = []byte("PK\x03\x04")

// workbookExtensions are read as spreadsheets rather than delimited text.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// isWorkbook reports whether the upload should be read as a spreadsheet.
func isWorkbook(fileName string, data []byte) bool {
	if workbookExtensions[strings.ToLower(filepath.Ext(fileName))] {
		return true
	}
	return bytes.HasPrefix(data, zipMagic)
}

// readWorkbook loads every sheet of a workbook as a raw table, in workbook order.
func readWorkbook(ctx context.Context, data []byte, opts ParseOptions) ([]*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	var tables []*Table
	for _, name := range f.GetSheetList() {
		t, err := readSheet(ctx, f, name, opts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func readSheet(ctx context.Context, f *excelize.File, name string, opts ParseOptions) (*Table, error) {
	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, name, err)
	}
	defer rows.Close()

	t := &Table{Name: name}
	n := 0
	for rows.Next() {
		n++
		cols, err := rows.Columns()
		if err != nil {
			// An unreadable row still occupies its line; keep the slot empty.
			cols = nil
		}
		t.Rows = append(t.Rows, cols)
		t.Lines = append(t.Lines, n)

		if opts.atChunk(n) {
			if err := opts.yield(ctx, ImportProgress{Phase: PhaseReading, CurrentRow: n}); err != nil {
				return nil, err
			}
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, name, err)
	}
	return t, nil
}

// templateSheets is the sheet order of the downloadable relational template.
var templateSheets = []string{SheetClients, SheetOwners, SheetExemptions, SheetApplicants}

// WriteRelationalTemplate writes an empty relational workbook with one
// header row per sheet.
func WriteRelationalTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, key := range templateSheets {
		def, ok := Get(key)
		if !ok {
			return fmt.Errorf("sheet %q is not registered", key)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), def.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", def.Name, err)
			}
		} else if _, err := f.NewSheet(def.Name); err != nil {
			return fmt.Errorf("add sheet %q: %w", def.Name, err)
		}
		cols := def.Columns()
		if err := f.SetSheetRow(def.Name, "A1", &cols); err != nil {
			return fmt.Errorf("write header of %q: %w", def.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}
