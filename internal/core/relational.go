package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// MaxHeaderSearchRows bounds how far down a sheet the header row may sit.
// Templates often carry a title or instructions above it.
const MaxHeaderSearchRows = 20

// sheetRow is one data row of a relational sheet.
type sheetRow struct {
	line  int
	id    string
	cells []string
}

// sheetData is a relational sheet with its header resolved.
type sheetData struct {
	name string
	idx  HeaderIndex
	rows []sheetRow
}

// byClient groups rows by Client ID, keeping table order within each group.
func (d *sheetData) byClient() map[string][]sheetRow {
	groups := make(map[string][]sheetRow)
	for _, r := range d.rows {
		groups[r.id] = append(groups[r.id], r)
	}
	return groups
}

// Produce assembles entities from the client sheet and attaches owner,
// exemption and applicant rows to them by Client ID.
//
// Child rows whose id matches no client are counted as orphans and dropped.
// They never create an entity.
func (s *RelationalSchema) Produce(ctx context.Context, opts ParseOptions) (*Batch, error) {
	log := opts.logger(ctx).With("schema", SchemaRelational, "file", opts.FileName)
	b := &Batch{Schema: SchemaRelational}

	clients, err := s.load(b, SheetClients)
	if err != nil {
		return nil, err
	}
	if len(clients.rows) == 0 {
		return nil, ErrTooFewRows
	}

	owners := s.loadChild(b, SheetOwners, log)
	exemptions := s.loadChild(b, SheetExemptions, log)
	applicants := s.loadChild(b, SheetApplicants, log)

	ownersByID := owners.byClient()
	exemptionsByID := exemptions.byClient()
	applicantsByID := applicants.byClient()

	known := make(map[string]bool, len(clients.rows))
	for n, r := range clients.rows {
		b.Stats.Rows++
		name := clients.idx.Cell(r.cells, ColLegalName)
		if r.id == "" || name == "" {
			b.Stats.Malformed++
			b.addIssue(clients.name, r.line, SeverityError, "malformed row: %s", missingIdentity(r.id, name))
			continue
		}
		if known[r.id] {
			b.addIssue(clients.name, r.line, SeverityWarning, "duplicate Client ID %q; child rows attach to every client sharing it", r.id)
		}
		known[r.id] = true

		e := clientEntity(clients.idx, r)

		switch e.FilingType {
		case FilingDisclosure:
			list := named(ownersByID[r.id], owners.idx)
			if len(list) > MaxBeneficialOwners {
				b.addIssue(owners.name, list[MaxBeneficialOwners].line, SeverityWarning,
					"client %q has %d beneficial owners; only the first %d are kept", r.id, len(list), MaxBeneficialOwners)
				list = list[:MaxBeneficialOwners]
			}
			owned := make([]BeneficialOwner, 0, len(list))
			for _, row := range list {
				owned = append(owned, ownerFromRow(owners.idx, row.cells))
			}
			e.BeneficialOwners = owned

		case FilingExemption:
			if list := exemptionsByID[r.id]; len(list) > 0 {
				e.ExemptionCategory = exemptions.idx.Cell(list[0].cells, ColExemptionCategory)
				e.ExemptionExplanation = exemptions.idx.Cell(list[0].cells, ColExplanation)
				for _, dup := range list[1:] {
					log.Debug("ignoring duplicate exemption row", "client_id", r.id, "line", dup.line)
				}
			}
		}

		var apps []CompanyApplicant
		for _, row := range applicantsByID[r.id] {
			apps = append(apps, applicantFromRow(applicants.idx, row.cells))
		}
		if len(apps) != MaxCompanyApplicants {
			log.Warn("unexpected company applicant count",
				"client_id", r.id, "count", len(apps), "expected", MaxCompanyApplicants)
		}
		e.SetApplicants(apps)

		b.Entities = append(b.Entities, e)

		if opts.atChunk(n + 1) {
			if err := opts.yield(ctx, ImportProgress{
				Phase:      PhaseAssembling,
				TotalRows:  len(clients.rows),
				CurrentRow: n + 1,
			}); err != nil {
				return nil, err
			}
		}
	}

	for _, child := range []*sheetData{owners, exemptions, applicants} {
		for _, r := range child.rows {
			if !known[r.id] {
				b.Stats.Orphans++
				log.Debug("orphan row", "sheet", child.name, "line", r.line, "client_id", r.id)
			}
		}
	}
	if b.Stats.Orphans > 0 {
		log.Warn("rows reference unknown clients", "orphans", b.Stats.Orphans)
	}

	MatchFirmUsers(b.Entities, opts.FirmUsers)
	b.tally()
	return b, nil
}

// load resolves a sheet's header and collects its non-empty data rows.
// Row-level field problems are added to the batch as warnings.
func (s *RelationalSchema) load(b *Batch, key string) (*sheetData, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("sheet %q is not registered", key)
	}
	t := s.Tables[key]
	if t == nil {
		return nil, fmt.Errorf("%w: sheet %q not found", ErrMissingHeader, def.Name)
	}

	headerPos, idx, err := findHeader(t, def)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", t.Name, err)
	}

	d := &sheetData{name: t.Name, idx: idx}
	v := NewRowValidator(def.FieldSpecs, idx)
	for i := headerPos + 1; i < len(t.Rows); i++ {
		row := t.Rows[i]
		if isEmptyRow(row) {
			continue
		}
		line := t.line(i)
		for _, verr := range v.ValidateRow(row) {
			b.addIssue(t.Name, line, SeverityWarning, "%s", verr.Error())
		}
		d.rows = append(d.rows, sheetRow{line: line, id: idx.Cell(row, ColClientID), cells: row})
	}
	return d, nil
}

// loadChild is load for owner, exemption and applicant sheets. A child sheet
// without a usable header is reported and treated as empty.
func (s *RelationalSchema) loadChild(b *Batch, key string, log *slog.Logger) *sheetData {
	d, err := s.load(b, key)
	if err != nil {
		log.Warn("skipping sheet", "sheet", key, "error", err)
		b.addIssue(key, 0, SeverityError, "%v", err)
		return &sheetData{name: key, idx: HeaderIndex{}}
	}
	return d
}

// findHeader returns the first row within MaxHeaderSearchRows that holds
// every required column.
func findHeader(t *Table, def SheetDefinition) (int, HeaderIndex, error) {
	var firstErr error
	for i := 0; i < len(t.Rows) && i < MaxHeaderSearchRows; i++ {
		if isEmptyRow(t.Rows[i]) {
			continue
		}
		idx, err := ValidateHeaders(t.Rows[i], def.FieldSpecs)
		if err == nil {
			return i, idx, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("%w: %s", ErrMissingHeader, strings.Join(def.RequiredColumns(), ", "))
	}
	return 0, nil, firstErr
}

// named drops owner rows without a name.
func named(rows []sheetRow, idx HeaderIndex) []sheetRow {
	out := rows[:0:0]
	for _, r := range rows {
		if idx.Cell(r.cells, ColFullName) != "" {
			out = append(out, r)
		}
	}
	return out
}

func missingIdentity(id, name string) string {
	switch {
	case id == "" && name == "":
		return "Client ID and legal name are empty"
	case id == "":
		return "Client ID is empty"
	default:
		return "legal name is empty"
	}
}

func clientEntity(idx HeaderIndex, r sheetRow) *Entity {
	e := NewEntity(
		idx.Cell(r.cells, ColLegalName),
		idx.Cell(r.cells, ColCountryOfFormation),
		idx.Cell(r.cells, ColServiceLevel),
		ParseFilingType(idx.Cell(r.cells, ColFilingType)),
	)
	e.SourceRow = r.line
	e.FictitiousName = idx.Cell(r.cells, ColFictitiousName)
	e.RegistryID = idx.Cell(r.cells, ColRegistryID)
	e.TaxID = idx.Cell(r.cells, ColTaxID)
	e.StateOfFormation = NormalizeUsState(idx.Cell(r.cells, ColStateOfFormation))
	e.ForeignAuthorityFiledDate = NormalizeDate(idx.Cell(r.cells, ColForeignFilingDate))
	e.FormationDate = NormalizeDate(idx.Cell(r.cells, ColFormationDate))
	if _, ok := ParseDate(e.FormationDate); !ok {
		e.flagIncomplete("formation date %q is missing or invalid", e.FormationDate)
	}
	return e
}

func addressFromRow(idx HeaderIndex, row []string) Address {
	return Address{
		Street:  idx.Cell(row, ColStreet),
		City:    idx.Cell(row, ColCity),
		State:   NormalizeUsState(idx.Cell(row, ColState)),
		Zip:     idx.Cell(row, ColZip),
		Country: idx.Cell(row, ColCountry),
	}
}

func documentFromRow(idx HeaderIndex, row []string) IdentityDocument {
	return IdentityDocument{
		Type:   idx.Cell(row, ColIDType),
		Number: idx.Cell(row, ColIDNumber),
		Issuer: Jurisdiction{
			Country: idx.Cell(row, ColIssuingCountry),
			State:   NormalizeUsState(idx.Cell(row, ColIssuingState)),
		},
	}
}

func ownerFromRow(idx HeaderIndex, row []string) BeneficialOwner {
	return BeneficialOwner{
		Name:                idx.Cell(row, ColFullName),
		DateOfBirth:         NormalizeDate(idx.Cell(row, ColDateOfBirth)),
		Address:             addressFromRow(idx, row),
		OwnershipPercentage: ParsePercent(idx.Cell(row, ColOwnershipPercentage)),
		Document:            documentFromRow(idx, row),
		Position:            idx.Cell(row, ColPosition),
	}
}

func applicantFromRow(idx HeaderIndex, row []string) CompanyApplicant {
	return CompanyApplicant{
		Name:        idx.Cell(row, ColFullName),
		DateOfBirth: NormalizeDate(idx.Cell(row, ColDateOfBirth)),
		Address:     addressFromRow(idx, row),
		AddressType: strings.ToLower(idx.Cell(row, ColAddressType)),
		Document:    documentFromRow(idx, row),
		Role:        idx.Cell(row, ColRole),
	}
}
