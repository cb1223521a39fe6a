package core

import (
	"fmt"
	"strings"
)

// Flat template variants. v2 inserts a "Service Level" column after
// "Filing Type", shifting every later column right by one.
const (
	LayoutV1 = "v1"
	LayoutV2 = "v2"
)

// Section keys of the flat layout.
const (
	SectionEntity     = "entity"
	SectionExemption  = "exemption"
	SectionApplicants = "applicants"
	SectionOwners     = "owners"
)

// MinFlatCells is the fewest cells a flat data row may carry and still
// produce an entity.
const MinFlatCells = 9

// MaxFlatOwners is how many owner blocks the flat template has room for.
const MaxFlatOwners = 4

// ColExemptionExplanation is the flat template's explanation column.
// The relational exemption sheet calls it ColExplanation.
const ColExemptionExplanation = "Exemption Explanation"

// Field names inside applicant and owner blocks.
const (
	BlockName        = "Name"
	BlockDateOfBirth = "Date of Birth"
	BlockAddress     = "Address"
	BlockAddressType = "Address Type"
	BlockIDType      = "ID Type"
	BlockIDNumber    = "ID Number"
	BlockIssuer      = "Issuing Jurisdiction"
	BlockRole        = "Role"
	BlockOwnership   = "Ownership %"
	BlockPosition    = "Position"
)

// BlockSpec describes one section of the flat layout: a run of Fields,
// repeated Repeat times. Sections with a Label are numbered in the header
// ("Applicant 1 Name"); sections without one use the field names as-is.
type BlockSpec struct {
	Key    string
	Label  string
	Fields []string
	Repeat int
}

func (s BlockSpec) repeat() int {
	if s.Repeat < 1 {
		return 1
	}
	return s.Repeat
}

// Width is the number of columns the section occupies.
func (s BlockSpec) Width() int {
	return len(s.Fields) * s.repeat()
}

func (s BlockSpec) fieldPos(name string) int {
	for i, f := range s.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Layout is an ordered list of sections. A section starts where the
// previous one ends.
type Layout struct {
	Variant  string
	Sections []BlockSpec
}

var (
	leadingV1 = []string{
		ColLegalName, ColFictitiousName, ColRegistryID, ColTaxID, ColFormationDate,
		ColCountryOfFormation, ColStateOfFormation, ColForeignFilingDate, ColFilingType,
	}
	applicantFields = []string{
		BlockName, BlockDateOfBirth, BlockAddress, BlockAddressType,
		BlockIDType, BlockIDNumber, BlockIssuer, BlockRole,
	}
	ownerFields = []string{
		BlockName, BlockDateOfBirth, BlockAddress, BlockOwnership,
		BlockIDType, BlockIDNumber, BlockIssuer, BlockPosition,
	}
)

// FlatLayout returns the layout for a variant. Unknown variants get v1.
func FlatLayout(variant string) Layout {
	leading := leadingV1
	if variant == LayoutV2 {
		leading = append(append([]string{}, leadingV1...), ColServiceLevel)
	} else {
		variant = LayoutV1
	}
	return Layout{
		Variant: variant,
		Sections: []BlockSpec{
			{Key: SectionEntity, Fields: leading},
			{Key: SectionExemption, Fields: []string{ColExemptionCategory, ColExemptionExplanation}},
			{Key: SectionApplicants, Label: "Applicant", Fields: applicantFields, Repeat: MaxCompanyApplicants},
			{Key: SectionOwners, Label: "Owner", Fields: ownerFields, Repeat: MaxFlatOwners},
		},
	}
}

// DetectVariant picks the layout variant from a header row.
func DetectVariant(header []string) string {
	if len(header) > len(leadingV1) && strings.EqualFold(CleanCell(header[len(leadingV1)]), ColServiceLevel) {
		return LayoutV2
	}
	return LayoutV1
}

// Width is the total number of columns in the layout.
func (l Layout) Width() int {
	n := 0
	for _, s := range l.Sections {
		n += s.Width()
	}
	return n
}

// Header generates the template header row for the layout.
func (l Layout) Header() []string {
	header := make([]string, 0, l.Width())
	for _, s := range l.Sections {
		for n := 1; n <= s.repeat(); n++ {
			for _, f := range s.Fields {
				if s.Label == "" {
					header = append(header, f)
				} else {
					header = append(header, fmt.Sprintf("%s %d %s", s.Label, n, f))
				}
			}
		}
	}
	return header
}

// FlatHeader is the header row of the downloadable flat template.
func FlatHeader(variant string) []string {
	return FlatLayout(variant).Header()
}

// section returns a section and its starting column.
func (l Layout) section(key string) (BlockSpec, int, bool) {
	offset := 0
	for _, s := range l.Sections {
		if s.Key == key {
			return s, offset, true
		}
		offset += s.Width()
	}
	return BlockSpec{}, 0, false
}

// Block is a read-only view of one block instance inside a row.
type Block struct {
	spec  BlockSpec
	row   []string
	start int
}

// Get returns the cleaned value of a named field, or "" when the field is
// not part of the block or the row is too short.
func (b Block) Get(field string) string {
	i := b.spec.fieldPos(field)
	if i < 0 {
		return ""
	}
	return cellAt(b.row, b.start+i)
}

// Blocks returns every instance of a section in the row.
func (l Layout) Blocks(row []string, key string) []Block {
	spec, offset, ok := l.section(key)
	if !ok {
		return nil
	}
	blocks := make([]Block, spec.repeat())
	for n := range blocks {
		blocks[n] = Block{spec: spec, row: row, start: offset + n*len(spec.Fields)}
	}
	return blocks
}

// Block returns the first instance of a section.
func (l Layout) Block(row []string, key string) Block {
	if blocks := l.Blocks(row, key); len(blocks) > 0 {
		return blocks[0]
	}
	return Block{}
}
