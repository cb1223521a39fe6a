package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityType classifies an entity by where it was formed.
// It is always derived from CountryOfFormation, never chosen.
type EntityType string

const (
	EntityDomestic EntityType = "domestic"
	EntityForeign  EntityType = "foreign"
)

// ServiceType is the service level purchased for an entity.
type ServiceType string

const (
	ServiceMonitoring ServiceType = "monitoring"
	ServiceFiling     ServiceType = "filing"
)

// FilingType decides which child records an entity must carry.
type FilingType string

const (
	FilingDisclosure FilingType = "disclosure"
	FilingExemption  FilingType = "exemption"
)

// DomesticCountry is the only country of formation classified as domestic.
// The comparison is exact and case-sensitive.
const DomesticCountry = "United States"

// Child collection limits.
const (
	MaxCompanyApplicants = 2
	MaxBeneficialOwners  = 9
)

// Address is a structured postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// IsComplete reports whether every address component is populated.
func (a Address) IsComplete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.Zip != "" && a.Country != ""
}

// Jurisdiction identifies the authority that issued an identity document.
type Jurisdiction struct {
	Country string `json:"country"`
	State   string `json:"state,omitempty"`
}

// IdentityDocument describes the document used to identify an individual.
type IdentityDocument struct {
	Type   string       `json:"type"`
	Number string       `json:"number"`
	Issuer Jurisdiction `json:"issuer"`
}

// CompanyApplicant is the individual responsible for submitting the filing.
type CompanyApplicant struct {
	Name        string           `json:"name"`
	DateOfBirth string           `json:"dateOfBirth"`
	Address     Address          `json:"address"`
	AddressType string           `json:"addressType,omitempty"`
	Document    IdentityDocument `json:"document"`
	Role        string           `json:"role,omitempty"`

	// FirmUserID is set when the applicant matches a user registered with the firm.
	// Informational only; it never affects validation.
	FirmUserID string `json:"firmUserId,omitempty"`
}

// BeneficialOwner is an individual reported under a disclosure filing.
type BeneficialOwner struct {
	Name                string              `json:"name"`
	DateOfBirth         string              `json:"dateOfBirth"`
	Address             Address             `json:"address"`
	OwnershipPercentage decimal.NullDecimal `json:"ownershipPercentage"`
	Document            IdentityDocument    `json:"document"`
	Position            string              `json:"position,omitempty"`
}

// Entity is the canonical record for one client company.
//
// EntityType, ServiceType and DataComplete are derived. Mutate the record
// through its methods so they stay consistent.
type Entity struct {
	ID                        uuid.UUID   `json:"id"`
	LegalName                 string      `json:"legalName"`
	FictitiousName            string      `json:"fictitiousName,omitempty"`
	RegistryID                string      `json:"registryId"`
	TaxID                     string      `json:"taxId,omitempty"`
	FormationDate             string      `json:"formationDate"`
	CountryOfFormation        string      `json:"countryOfFormation"`
	StateOfFormation          string      `json:"stateOfFormation,omitempty"`
	ForeignAuthorityFiledDate string      `json:"foreignAuthorityFiledDate,omitempty"`
	EntityType                EntityType  `json:"entityType"`
	ServiceType               ServiceType `json:"serviceType"`
	FilingType                FilingType  `json:"filingType"`
	ExemptionCategory         string      `json:"exemptionCategory,omitempty"`
	ExemptionExplanation      string      `json:"exemptionExplanation,omitempty"`

	CompanyApplicants []CompanyApplicant `json:"companyApplicants"`
	BeneficialOwners  []BeneficialOwner  `json:"beneficialOwners"`

	DataComplete bool `json:"dataComplete"`

	// Import bookkeeping.
	SourceRow    int      `json:"sourceRow,omitempty"`
	Incomplete   bool     `json:"incomplete"`
	ImportIssues []string `json:"importIssues,omitempty"`
}

// FirmUser is an authorized user pre-registered by the filing firm.
type FirmUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SchemaKind names the input schema a file was detected as.
type SchemaKind string

const (
	SchemaFlat       SchemaKind = "flat"
	SchemaRelational SchemaKind = "relational"
)

// Severity of a row issue.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// RowIssue reports a problem with a single input row.
// Issues never abort an import; they are surfaced next to the entities.
type RowIssue struct {
	Table    string `json:"table"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ImportStats summarizes one import.
//
// Incomplete counts every row that was not successfully imported: entities
// flagged Incomplete plus malformed rows. Malformed is the subset that
// produced no entity at all.
type ImportStats struct {
	Rows       int `json:"rows"`
	Entities   int `json:"entities"`
	Imported   int `json:"imported"`
	Incomplete int `json:"incomplete"`
	Malformed  int `json:"malformed"`
	Orphans    int `json:"orphans"`
}

// Batch is the output of producing entities from a parsed schema.
type Batch struct {
	Schema   SchemaKind  `json:"schema"`
	Variant  string      `json:"variant,omitempty"`
	Entities []*Entity   `json:"entities"`
	Stats    ImportStats `json:"stats"`
	Issues   []RowIssue  `json:"issues"`
}

func (b *Batch) addIssue(table string, line int, severity, format string, args ...any) {
	b.Issues = append(b.Issues, RowIssue{
		Table:    table,
		Line:     line,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ImportPhase indicates the current stage of import processing.
type ImportPhase string

const (
	PhaseStarting    ImportPhase = "starting"
	PhaseReading     ImportPhase = "reading"
	PhaseNormalizing ImportPhase = "normalizing"
	PhaseAssembling  ImportPhase = "assembling"
	PhaseComplete    ImportPhase = "complete"
	PhaseFailed      ImportPhase = "failed"
)

// ImportProgress represents the current state of an import.
type ImportProgress struct {
	FileName   string      `json:"fileName"`
	Phase      ImportPhase `json:"phase"`
	TotalRows  int         `json:"totalRows"`
	CurrentRow int         `json:"currentRow"`
	BytesRead  int64       `json:"bytesRead"`
	BytesTotal int64       `json:"bytesTotal"`
	Error      string      `json:"error,omitempty"`
}

// Percent returns the progress as a percentage (0-100).
// Uses row-based progress if TotalRows is known, otherwise falls back to byte-based.
func (p ImportProgress) Percent() int {
	if p.TotalRows > 0 {
		return (p.CurrentRow * 100) / p.TotalRows
	}
	if p.BytesTotal > 0 {
		return int((p.BytesRead * 100) / p.BytesTotal)
	}
	return 0
}

// ProgressCallback is called at every yield point of a long import.
type ProgressCallback func(ImportProgress)

// ImportResult is what the service hands to the rest of the application.
type ImportResult struct {
	ImportID string `json:"importId"`
	FileName string `json:"fileName"`
	Batch
	Duration time.Duration `json:"duration"`
}
