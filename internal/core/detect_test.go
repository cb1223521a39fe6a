package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_FileLevelErrors(t *testing.T) {
	headerOnly := encodeCSV(t, ',', FlatHeader(LayoutV2))

	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{"empty upload", "clients.csv", nil, ErrEmptyFile},
		{"header only", "clients.csv", headerOnly, ErrTooFewRows},
		{"blank lines only", "clients.csv", []byte("\n\n,,\n"), ErrTooFewRows},
		{"legacy xls", "clients.xls", []byte{0xD0, 0xCF, 0x11, 0xE0}, ErrUnreadableFile},
		{"corrupt xlsx", "clients.xlsx", []byte("PK\x03\x04not really a zip"), ErrUnreadableFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := Detect(context.Background(), tt.file, tt.data, ParseOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, schema)
		})
	}
}

func TestDetect_SchemaKind(t *testing.T) {
	csvData := encodeCSV(t, ',', FlatHeader(LayoutV1), flatRow(t, LayoutV1, map[string]string{"Legal Name": "A"}))
	schema, err := Detect(context.Background(), "clients.csv", csvData, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, SchemaFlat, schema.Kind())

	rel := workbook(t, relationalSheets, relationalFixture())
	schema, err = Detect(context.Background(), "upload.bin", rel, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, SchemaRelational, schema.Kind(), "zip magic identifies a workbook")

	partial := relationalFixture()
	delete(partial, "Exemptions")
	flatBook := workbook(t, []string{"Clients", "Beneficial Owners", "Company Applicants"}, partial)
	schema, err = Detect(context.Background(), "book.xlsx", flatBook, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, SchemaFlat, schema.Kind(), "missing sheet falls back to flat")
}

func TestDetect_RelationalClientTableTooShort(t *testing.T) {
	fixture := relationalFixture()
	fixture["Clients"] = [][]string{header(SheetClients)}

	_, err := Detect(context.Background(), "template.xlsx", workbook(t, relationalSheets, fixture), ParseOptions{})
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want rune
	}{
		{"comma", "a.csv", "a,b,c\n1,2,3", ','},
		{"semicolon", "a.csv", "a;b;c\n", ';'},
		{"tab", "a.txt", "a\tb\tc", '\t'},
		{"pipe", "a.txt", "a|b|c", '|'},
		{"tie goes to comma", "a.csv", "a,b;c", ','},
		{"quoted delimiters ignored", "a.csv", `"x;y;z";"w",b,c`, ','},
		{"tsv extension wins", "a.TSV", "a,b,c", '\t'},
		{"no delimiter", "a.csv", "single", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter(tt.file, []byte(tt.data)))
		})
	}
}

func TestWriteRelationalTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRelationalTemplate(&buf))

	tables, err := readWorkbook(context.Background(), buf.Bytes(), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 4)

	matched := matchRelationalSheets(tables)
	require.NotNil(t, matched, "template carries every registered sheet")
	assert.Equal(t, "Clients", tables[0].Name)
	for key, table := range matched {
		require.Len(t, table.Rows, 1, key)
		assert.Equal(t, header(key), table.Rows[0], key)
	}

	_, err = Detect(context.Background(), "template.xlsx", buf.Bytes(), ParseOptions{})
	assert.ErrorIs(t, err, ErrTooFewRows, "an unfilled template has no clients")
}
