package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// flatRow builds one data row for a flat layout from header names to values.
func flatRow(t *testing.T, variant string, values map[string]string) []string {
	t.Helper()
	header := FlatHeader(variant)
	row := make([]string, len(header))
	for name, v := range values {
		pos := -1
		for i, h := range header {
			if h == name {
				pos = i
				break
			}
		}
		require.GreaterOrEqual(t, pos, 0, "unknown column %q", name)
		row[pos] = v
	}
	return row
}

func encodeCSV(t *testing.T, comma rune, rows ...[]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	require.NoError(t, w.WriteAll(rows))
	return buf.Bytes()
}

func produce(t *testing.T, fileName string, data []byte, opts ParseOptions) *Batch {
	t.Helper()
	schema, err := Detect(context.Background(), fileName, data, opts)
	require.NoError(t, err)
	b, err := schema.Produce(context.Background(), opts)
	require.NoError(t, err)
	return b
}

func completeOwner(prefix string) map[string]string {
	return map[string]string{
		prefix + "Name":                 "Ada Owner",
		prefix + "Date of Birth":        "1980-01-01",
		prefix + "Address":              "1 Main St|Springfield|Illinois|62701|United States",
		prefix + "Ownership %":          "60%",
		prefix + "ID Type":              "Passport",
		prefix + "ID Number":            "P123",
		prefix + "Issuing Jurisdiction": "United States|Illinois",
	}
}

func merge(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func TestFlat_ServiceDerivation(t *testing.T) {
	fixNow(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	data := encodeCSV(t, ',',
		FlatHeader(LayoutV2),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name":           "Acme LLC",
			"Formation Date":       "2020-01-01",
			"Country of Formation": "United States",
		}),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name":           "Maple Corp",
			"Formation Date":       "2019-05-05",
			"Country of Formation": "Canada",
			"Service Level":        "monitoring",
		}),
	)

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 2)
	assert.Equal(t, SchemaFlat, b.Schema)
	assert.Equal(t, LayoutV2, b.Variant)

	acme := b.Entities[0]
	assert.Equal(t, EntityDomestic, acme.EntityType)
	assert.Equal(t, ServiceMonitoring, acme.ServiceType)
	assert.Equal(t, FilingDisclosure, acme.FilingType)
	assert.False(t, acme.DataComplete, "disclosure without owners")

	maple := b.Entities[1]
	assert.Equal(t, EntityForeign, maple.EntityType)
	assert.Equal(t, ServiceFiling, maple.ServiceType)

	assert.Equal(t, ImportStats{Rows: 2, Entities: 2, Imported: 2}, b.Stats)
}

func TestFlat_DomesticFilingAndCaseSensitiveCountry(t *testing.T) {
	data := encodeCSV(t, ',',
		FlatHeader(LayoutV2),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name": "A", "Formation Date": "2020-01-01",
			"Country of Formation": "United States", "Service Level": " FILING ",
		}),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name": "B", "Formation Date": "2020-01-01",
			"Country of Formation": "united states", "Service Level": "monitoring",
		}),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name": "C", "Formation Date": "2020-01-01",
			"Country of Formation": "United States", "Service Level": "premium",
		}),
	)

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 3)
	assert.Equal(t, ServiceFiling, b.Entities[0].ServiceType)
	assert.Equal(t, EntityForeign, b.Entities[1].EntityType)
	assert.Equal(t, ServiceFiling, b.Entities[1].ServiceType)
	assert.Equal(t, ServiceMonitoring, b.Entities[2].ServiceType)
}

func TestFlat_V1OffsetsAndOwners(t *testing.T) {
	fixNow(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	values := merge(
		map[string]string{
			"Legal Name":           "Acme LLC",
			"Formation Date":       "1/2/2020",
			"Country of Formation": "United States",
			"State of Formation":   "delaware",
			"Filing Type":          "Disclosure",
			"Applicant 1 Name":     "Jo Filer",
			"Applicant 1 Address":  "5 Elm|Dover|DE|19901|United States",
		},
		completeOwner("Owner 1 "),
		map[string]string{"Owner 3 Name": "Second Owner"},
	)
	data := encodeCSV(t, ',', FlatHeader(LayoutV1), flatRow(t, LayoutV1, values))

	b := produce(t, "clients.csv", data, ParseOptions{})
	assert.Equal(t, LayoutV1, b.Variant)
	require.Len(t, b.Entities, 1)

	e := b.Entities[0]
	assert.Equal(t, "2020-01-02", e.FormationDate)
	assert.Equal(t, "DE", e.StateOfFormation)
	require.Len(t, e.CompanyApplicants, 1)
	assert.Equal(t, "Dover", e.CompanyApplicants[0].Address.City)

	require.Len(t, e.BeneficialOwners, 2, "empty owner 2 block is skipped")
	o := e.BeneficialOwners[0]
	assert.Equal(t, "Ada Owner", o.Name)
	assert.Equal(t, "IL", o.Address.State)
	assert.Equal(t, "60", o.OwnershipPercentage.Decimal.String())
	assert.Equal(t, Jurisdiction{Country: "United States", State: "IL"}, o.Document.Issuer)
	assert.Equal(t, "Second Owner", e.BeneficialOwners[1].Name)
	assert.False(t, e.DataComplete, "second owner lacks details")
}

func TestFlat_CompleteDisclosure(t *testing.T) {
	fixNow(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	values := merge(map[string]string{
		"Legal Name":           "Acme LLC",
		"Formation Date":       "2020-01-01",
		"Country of Formation": "United States",
	}, completeOwner("Owner 1 "))
	data := encodeCSV(t, ',', FlatHeader(LayoutV2), flatRow(t, LayoutV2, values))

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 1)
	assert.True(t, b.Entities[0].DataComplete)
}

func TestFlat_ExemptionIgnoresOwners(t *testing.T) {
	values := merge(map[string]string{
		"Legal Name":            "Big Bank",
		"Formation Date":        "2001-01-01",
		"Country of Formation":  "United States",
		"Filing Type":           " EXEMPTION ",
		"Exemption Category":    "Bank",
		"Exemption Explanation": "Chartered bank",
		"Applicant 2 Name":      "Jo Filer",
	}, completeOwner("Owner 1 "))
	data := encodeCSV(t, ',', FlatHeader(LayoutV2), flatRow(t, LayoutV2, values))

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 1)

	e := b.Entities[0]
	assert.Equal(t, FilingExemption, e.FilingType)
	assert.Equal(t, "Bank", e.ExemptionCategory)
	assert.Equal(t, "Chartered bank", e.ExemptionExplanation)
	assert.Empty(t, e.BeneficialOwners)
	require.Len(t, e.CompanyApplicants, 1)
	assert.True(t, e.DataComplete)
}

func TestFlat_MalformedAndIncompleteRows(t *testing.T) {
	data := encodeCSV(t, ',',
		FlatHeader(LayoutV2),
		flatRow(t, LayoutV2, map[string]string{"Legal Name": "Good", "Formation Date": "2020-01-01"}),
		[]string{"Short", "row"},
		flatRow(t, LayoutV2, map[string]string{"Fictitious Name": "No Legal Name"}),
		[]string{"", "", ""},
		flatRow(t, LayoutV2, map[string]string{"Legal Name": "Undated", "Formation Date": "someday"}),
	)

	b := produce(t, "clients.csv", data, ParseOptions{})

	require.Len(t, b.Entities, 2)
	assert.False(t, b.Entities[0].Incomplete)
	assert.True(t, b.Entities[1].Incomplete)
	assert.NotEmpty(t, b.Entities[1].ImportIssues)
	assert.Equal(t, "someday", b.Entities[1].FormationDate)

	assert.Equal(t, ImportStats{Rows: 4, Entities: 2, Imported: 1, Incomplete: 3, Malformed: 2}, b.Stats)
	require.Len(t, b.Issues, 2)
	assert.Equal(t, 3, b.Issues[0].Line)
	assert.Equal(t, SeverityError, b.Issues[0].Severity)
	assert.Contains(t, b.Issues[1].Message, "legal name is empty")
}

func TestFlat_QuotedDelimitersAndSniffing(t *testing.T) {
	row := flatRow(t, LayoutV2, map[string]string{
		"Legal Name":     "Acme; Holdings, Inc.",
		"Formation Date": "2020-01-01",
	})

	for _, tc := range []struct {
		name  string
		file  string
		comma rune
	}{
		{"comma", "clients.csv", ','},
		{"semicolon", "clients.csv", ';'},
		{"pipe", "clients.txt", '|'},
		{"tsv extension", "clients.tsv", '\t'},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeCSV(t, tc.comma, FlatHeader(LayoutV2), row)
			b := produce(t, tc.file, data, ParseOptions{})
			require.Len(t, b.Entities, 1)
			assert.Equal(t, "Acme; Holdings, Inc.", b.Entities[0].LegalName)
		})
	}
}

func TestFlat_BOMAndInvalidUTF8(t *testing.T) {
	data := encodeCSV(t, ',',
		FlatHeader(LayoutV2),
		flatRow(t, LayoutV2, map[string]string{"Legal Name": "Caf\xe9", "Formation Date": "2020-01-01"}),
	)
	data = append([]byte{0xEF, 0xBB, 0xBF}, data...)

	b := produce(t, "clients.csv", data, ParseOptions{})
	assert.Equal(t, LayoutV2, b.Variant, "BOM must not hide the header")
	require.Len(t, b.Entities, 1)
	assert.Equal(t, "Caf\uFFFD", b.Entities[0].LegalName)
}

func TestFlat_StrayQuotesAreLiteral(t *testing.T) {
	data := encodeCSV(t, ',', FlatHeader(LayoutV1))
	data = append(data, []byte("Acme \"Best\" LLC,x,y,z,2020-01-01,United States,,,\n")...)

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 1)
	assert.Equal(t, `Acme "Best" LLC`, b.Entities[0].LegalName)
	assert.Equal(t, EntityDomestic, b.Entities[0].EntityType)
	assert.Zero(t, b.Stats.Malformed)
}

func TestFlat_UnclosedQuoteDoesNotSwallowLaterRows(t *testing.T) {
	row := func(name string) []string {
		return flatRow(t, LayoutV1, map[string]string{
			"Legal Name": name, "Formation Date": "2020-01-01", "Country of Formation": "United States",
		})
	}
	data := encodeCSV(t, ',', FlatHeader(LayoutV1))
	data = append(data, '"')
	data = append(data, encodeCSV(t, ',', row("Acme LLC"), row("Beta LLC"), row("Gamma LLC"))...)

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 2)
	assert.Equal(t, "Beta LLC", b.Entities[0].LegalName)
	assert.Equal(t, 3, b.Entities[0].SourceRow)
	assert.Equal(t, "Gamma LLC", b.Entities[1].LegalName)
	assert.Equal(t, 4, b.Entities[1].SourceRow)

	assert.Equal(t, 3, b.Stats.Rows)
	assert.Equal(t, 1, b.Stats.Malformed)
	require.Len(t, b.Issues, 1)
	assert.Equal(t, 2, b.Issues[0].Line)
	assert.Contains(t, b.Issues[0].Message, "never closed")
}

func TestFlat_QuotedMultilineFieldIsKept(t *testing.T) {
	data := encodeCSV(t, ',',
		FlatHeader(LayoutV1),
		flatRow(t, LayoutV1, map[string]string{"Legal Name": "Acme\nHoldings", "Formation Date": "2020-01-01"}),
		flatRow(t, LayoutV1, map[string]string{"Legal Name": "Beta LLC", "Formation Date": "2020-01-01"}),
	)

	b := produce(t, "clients.csv", data, ParseOptions{})
	require.Len(t, b.Entities, 2)
	assert.Equal(t, "Acme\nHoldings", b.Entities[0].LegalName)
	assert.Zero(t, b.Stats.Malformed)
}

func TestFlat_ReaderIssuesAreCounted(t *testing.T) {
	schema := &FlatSchema{
		Table: &Table{Name: TableFile, Rows: [][]string{
			FlatHeader(LayoutV1),
			flatRow(t, LayoutV1, map[string]string{"Legal Name": "Kept", "Formation Date": "2020-01-01"}),
		}},
		Malformed: []RowIssue{{Table: TableFile, Line: 7, Severity: SeverityError, Message: "malformed row"}},
	}

	b, err := schema.Produce(context.Background(), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, b.Entities, 1)
	assert.Equal(t, ImportStats{Rows: 2, Entities: 1, Imported: 1, Incomplete: 1, Malformed: 1}, b.Stats)
	require.Len(t, b.Issues, 1)
	assert.Equal(t, 7, b.Issues[0].Line)
}

func TestFlat_FirmUserMatching(t *testing.T) {
	data := encodeCSV(t, ',',
		FlatHeader(LayoutV2),
		flatRow(t, LayoutV2, map[string]string{
			"Legal Name":       "Acme",
			"Applicant 1 Name": "  jo FILER ",
			"Applicant 2 Name": "Stranger",
		}),
	)

	b := produce(t, "clients.csv", data, ParseOptions{FirmUsers: []FirmUser{{ID: "u-1", Name: "Jo Filer"}}})
	require.Len(t, b.Entities, 1)
	apps := b.Entities[0].CompanyApplicants
	require.Len(t, apps, 2)
	assert.Equal(t, "u-1", apps[0].FirmUserID)
	assert.Empty(t, apps[1].FirmUserID)
}

func TestFlat_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := FlatHeader(LayoutV2)
	row := flatRow(t, LayoutV2, map[string]string{"Legal Name": "Sheet Co", "Formation Date": "2020-01-01"})
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	b := produce(t, "clients.xlsx", buf.Bytes(), ParseOptions{})
	assert.Equal(t, SchemaFlat, b.Schema)
	require.Len(t, b.Entities, 1)
	assert.Equal(t, "Sheet Co", b.Entities[0].LegalName)
}

func TestFlat_ProgressAndCancellation(t *testing.T) {
	rows := [][]string{FlatHeader(LayoutV2)}
	for i := 0; i < 10; i++ {
		rows = append(rows, flatRow(t, LayoutV2, map[string]string{"Legal Name": "Row", "Formation Date": "2020-01-01"}))
	}
	data := encodeCSV(t, ',', rows...)

	var phases []ImportPhase
	opts := ParseOptions{FileName: "clients.csv", ChunkSize: 2, Progress: func(p ImportProgress) {
		phases = append(phases, p.Phase)
		assert.Equal(t, "clients.csv", p.FileName)
	}}
	produce(t, "clients.csv", data, opts)
	assert.Contains(t, phases, PhaseReading)
	assert.Contains(t, phases, PhaseNormalizing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Detect(ctx, "clients.csv", data, ParseOptions{ChunkSize: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
