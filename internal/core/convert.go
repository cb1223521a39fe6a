package core

// convert.go turns raw spreadsheet cells into canonical field values.
//
// Bulk uploads come from many hands, so these helpers accept the usual mess:
//   - Multiple date formats (US, EU, ISO, spelled-out months)
//   - Percent signs and thousands separators in numbers
//   - Excel formula prefixes (="value") and stray quotes
//   - Full US state names where a postal code is expected
//
// None of these functions fail; unusable input yields an empty or invalid value
// which the completeness evaluator later reports.

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// IsoDate is the layout every parseable date is normalized to.
const IsoDate = "2006-01-02"

// now is replaced in tests.
var now = time.Now

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"20060102",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
	}
)

// ParseDate parses a date cell in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// NormalizeDate returns the ISO form of a parseable date, or the trimmed
// input unchanged so the user can still see and fix what they uploaded.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := ParseDate(s); ok {
		return t.Format(IsoDate)
	}
	return s
}

// IsValidBirthDate reports whether s parses and is not in the future.
func IsValidBirthDate(s string) bool {
	t, ok := ParseDate(s)
	if !ok {
		return false
	}
	return !t.After(now())
}

// ParsePercent converts a percentage cell to a decimal.
// "25", "25%", " 25.5 % " and "1,000" are accepted. Empty or unparseable
// input yields an invalid NullDecimal.
func ParsePercent(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// AddressSeparator splits the components of a composite address cell.
const AddressSeparator = "|"

// ParseAddress splits a "street|city|state|zip|country" cell into an Address.
// Missing trailing components are left empty.
func ParseAddress(cell string) Address {
	parts := splitComposite(cell, 5)
	return Address{
		Street:  parts[0],
		City:    parts[1],
		State:   NormalizeUsState(parts[2]),
		Zip:     parts[3],
		Country: parts[4],
	}
}

// FormatAddress is the inverse of ParseAddress.
func FormatAddress(a Address) string {
	return strings.Join([]string{a.Street, a.City, a.State, a.Zip, a.Country}, AddressSeparator)
}

// ParseJurisdiction splits a "country" or "country|state" cell.
func ParseJurisdiction(cell string) Jurisdiction {
	parts := splitComposite(cell, 2)
	return Jurisdiction{Country: parts[0], State: NormalizeUsState(parts[1])}
}

func splitComposite(cell string, n int) []string {
	out := make([]string, n)
	cell = CleanCell(cell)
	if cell == "" {
		return out
	}
	for i, p := range strings.SplitN(cell, AddressSeparator, n) {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. The first occurrence
// of a duplicated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Cell returns the cleaned value of the named column, or "" when the
// column is unknown or the row is short.
func (h HeaderIndex) Cell(row []string, name string) string {
	pos, ok := h[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return cellAt(row, pos)
}

// Has reports whether the named column exists.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// cellAt returns the cleaned cell at pos, tolerating short rows.
func cellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes one matched pair of surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// UsStates maps US state full names to their abbreviations.
var UsStates = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

// NormalizeUsState converts US state names to their 2-letter abbreviations.
// If the input is already an abbreviation or not recognized, returns it trimmed.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)

	if code, ok := UsStates[strings.ToLower(s)]; ok {
		return code
	}

	upper := strings.ToUpper(s)
	for _, code := range UsStates {
		if upper == code {
			return code
		}
	}

	return s
}
