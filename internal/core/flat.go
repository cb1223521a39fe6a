package core

import (
	"context"
	"fmt"
	"strings"
)

// Produce normalizes every data row of the flat table into an entity.
//
// The first non-empty row is the header and selects the layout variant.
// Rows that cannot produce an entity are reported as malformed issues.
func (s *FlatSchema) Produce(ctx context.Context, opts ParseOptions) (*Batch, error) {
	log := opts.logger(ctx).With("schema", SchemaFlat, "file", opts.FileName)
	rows := s.Table.Rows

	headerPos := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			headerPos = i
			break
		}
	}
	if headerPos < 0 || s.Table.nonEmptyRows() < 2 {
		return nil, ErrTooFewRows
	}

	layout := FlatLayout(DetectVariant(rows[headerPos]))
	b := &Batch{Schema: SchemaFlat, Variant: layout.Variant}
	log.Debug("flat layout detected", "variant", layout.Variant, "rows", len(rows)-headerPos-1)

	for _, issue := range s.Malformed {
		b.Issues = append(b.Issues, issue)
		b.Stats.Rows++
		b.Stats.Malformed++
	}

	for i := headerPos + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		b.Stats.Rows++
		line := s.Table.line(i)

		e, reason := layout.normalizeRow(row)
		if e == nil {
			b.Stats.Malformed++
			b.addIssue(s.Table.Name, line, SeverityError, "malformed row: %s", reason)
		} else {
			e.SourceRow = line
			b.Entities = append(b.Entities, e)
		}

		if opts.atChunk(i) {
			if err := opts.yield(ctx, ImportProgress{
				Phase:      PhaseNormalizing,
				TotalRows:  len(rows),
				CurrentRow: i,
			}); err != nil {
				return nil, err
			}
		}
	}

	MatchFirmUsers(b.Entities, opts.FirmUsers)
	b.tally()
	return b, nil
}

// normalizeRow maps one flat row to an entity. A nil entity comes with the
// reason the row was rejected.
func (l Layout) normalizeRow(row []string) (*Entity, string) {
	if len(row) < MinFlatCells {
		return nil, fmt.Sprintf("row has %d cells, at least %d are required", len(row), MinFlatCells)
	}

	head := l.Block(row, SectionEntity)
	name := head.Get(ColLegalName)
	if name == "" {
		return nil, "legal name is empty"
	}

	e := NewEntity(name, head.Get(ColCountryOfFormation), head.Get(ColServiceLevel), ParseFilingType(head.Get(ColFilingType)))
	e.FictitiousName = head.Get(ColFictitiousName)
	e.RegistryID = head.Get(ColRegistryID)
	e.TaxID = head.Get(ColTaxID)
	e.StateOfFormation = NormalizeUsState(head.Get(ColStateOfFormation))
	e.ForeignAuthorityFiledDate = NormalizeDate(head.Get(ColForeignFilingDate))
	e.FormationDate = NormalizeDate(head.Get(ColFormationDate))
	if _, ok := ParseDate(e.FormationDate); !ok {
		e.flagIncomplete("formation date %q is missing or invalid", e.FormationDate)
	}

	var applicants []CompanyApplicant
	for _, blk := range l.Blocks(row, SectionApplicants) {
		if blk.Get(BlockName) != "" {
			applicants = append(applicants, applicantFromBlock(blk))
		}
	}

	if e.FilingType == FilingExemption {
		ex := l.Block(row, SectionExemption)
		e.ExemptionCategory = ex.Get(ColExemptionCategory)
		e.ExemptionExplanation = ex.Get(ColExemptionExplanation)
	} else {
		var owners []BeneficialOwner
		for _, blk := range l.Blocks(row, SectionOwners) {
			if blk.Get(BlockName) != "" {
				owners = append(owners, ownerFromBlock(blk))
			}
		}
		e.BeneficialOwners = owners
	}

	e.SetApplicants(applicants)
	return e, ""
}

func applicantFromBlock(b Block) CompanyApplicant {
	return CompanyApplicant{
		Name:        b.Get(BlockName),
		DateOfBirth: NormalizeDate(b.Get(BlockDateOfBirth)),
		Address:     ParseAddress(b.Get(BlockAddress)),
		AddressType: strings.ToLower(b.Get(BlockAddressType)),
		Document: IdentityDocument{
			Type:   b.Get(BlockIDType),
			Number: b.Get(BlockIDNumber),
			Issuer: ParseJurisdiction(b.Get(BlockIssuer)),
		},
		Role: b.Get(BlockRole),
	}
}

func ownerFromBlock(b Block) BeneficialOwner {
	return BeneficialOwner{
		Name:                b.Get(BlockName),
		DateOfBirth:         NormalizeDate(b.Get(BlockDateOfBirth)),
		Address:             ParseAddress(b.Get(BlockAddress)),
		OwnershipPercentage: ParsePercent(b.Get(BlockOwnership)),
		Document: IdentityDocument{
			Type:   b.Get(BlockIDType),
			Number: b.Get(BlockIDNumber),
			Issuer: ParseJurisdiction(b.Get(BlockIssuer)),
		},
		Position: b.Get(BlockPosition),
	}
}

// tally fills the entity counters from the produced entities. Rows and
// Malformed are counted while producing.
func (b *Batch) tally() {
	b.Stats.Entities = len(b.Entities)
	b.Stats.Imported = 0
	b.Stats.Incomplete = b.Stats.Malformed
	for _, e := range b.Entities {
		if e.Incomplete {
			b.Stats.Incomplete++
		} else {
			b.Stats.Imported++
		}
	}
}

// MatchFirmUsers tags company applicants whose name matches an authorized
// firm user. Names are compared trimmed and case-folded.
func MatchFirmUsers(entities []*Entity, users []FirmUser) {
	if len(users) == 0 {
		return
	}
	byName := make(map[string]string, len(users))
	for _, u := range users {
		key := strings.ToLower(strings.TrimSpace(u.Name))
		if _, dup := byName[key]; key != "" && !dup {
			byName[key] = u.ID
		}
	}
	for _, e := range entities {
		for i := range e.CompanyApplicants {
			a := &e.CompanyApplicants[i]
			if id, ok := byName[strings.ToLower(strings.TrimSpace(a.Name))]; ok {
				a.FirmUserID = id
			}
		}
	}
}
