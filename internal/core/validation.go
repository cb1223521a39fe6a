package core

// validation.go provides row-level checks for relational sheets and the
// review-step gate that runs before an order can move to payment.
//
// Neither level rejects data during import. Row problems become warnings
// next to the imported entities; review problems block the wizard from
// advancing until the user fixes them.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	EntityID string `json:"entityId,omitempty"`
	Field    string `json:"field"`
	Value    string `json:"value,omitempty"`
	Message  string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowValidator validates sheet rows against their field specifications.
type RowValidator struct {
	specs     []FieldSpec
	headerIdx HeaderIndex
}

// NewRowValidator creates a validator for the given specs and header index.
func NewRowValidator(specs []FieldSpec, headerIdx HeaderIndex) *RowValidator {
	return &RowValidator{
		specs:     specs,
		headerIdx: headerIdx,
	}
}

// ValidateRow checks a single row and returns every problem found.
func (v *RowValidator) ValidateRow(row []string) []ValidationError {
	var errs []ValidationError

	for _, spec := range v.specs {
		if !v.headerIdx.Has(spec.Name) {
			continue // header validation already reported it
		}

		raw := v.headerIdx.Cell(row, spec.Name)
		if raw == "" {
			if spec.Required && !spec.AllowEmpty {
				errs = append(errs, ValidationError{Field: spec.Name, Message: "required field is empty"})
			}
			continue
		}

		if err := ValidateCell(raw, spec); err != nil {
			errs = append(errs, ValidationError{Field: spec.Name, Value: raw, Message: err.Error()})
		}
	}

	return errs
}

// ValidateCell validates a single non-empty cell against a field specification.
func ValidateCell(value string, spec FieldSpec) error {
	if value == "" {
		return nil
	}

	switch spec.Type {
	case FieldPercent:
		if !ParsePercent(value).Valid {
			return fmt.Errorf("invalid number format")
		}
	case FieldDate:
		if _, ok := ParseDate(value); !ok {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD or similar)")
		}
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, value) {
				return nil
			}
		}
		return fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
	}
	return nil
}

// ValidateHeaders checks that every required column exists in the header row.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range specs {
		if spec.Required && !idx.Has(spec.Name) {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, strings.Join(missing, ", "))
	}

	return idx, nil
}

// ValidateForReview runs the review-step gate over a set of entities.
//
// On top of completeness it requires an exemption explanation and a foreign
// filing date for foreign entities. An empty result means the review step
// may advance.
func ValidateForReview(entities []*Entity) []ValidationError {
	var errs []ValidationError
	add := func(e *Entity, field, msg string) {
		errs = append(errs, ValidationError{EntityID: e.ID.String(), Field: field, Message: msg})
	}

	for _, e := range entities {
		if strings.TrimSpace(e.LegalName) == "" {
			add(e, "legalName", "legal name is required")
		}
		if _, ok := ParseDate(e.FormationDate); !ok {
			add(e, "formationDate", "valid formation date is required")
		}
		if e.EntityType == EntityForeign && strings.TrimSpace(e.ForeignAuthorityFiledDate) == "" {
			add(e, "foreignAuthorityFiledDate", "foreign entities need the date they first registered in the US")
		}

		switch e.FilingType {
		case FilingExemption:
			if strings.TrimSpace(e.ExemptionCategory) == "" {
				add(e, "exemptionCategory", "exemption category is required")
			}
			if strings.TrimSpace(e.ExemptionExplanation) == "" {
				add(e, "exemptionExplanation", "exemption explanation is required")
			}
		default:
			if len(e.BeneficialOwners) == 0 {
				add(e, "beneficialOwners", "at least one beneficial owner is required")
			}
			for i, o := range e.BeneficialOwners {
				for _, issue := range OwnerIssues(o) {
					add(e, fmt.Sprintf("beneficialOwners[%d]", i), issue)
				}
			}
		}
	}

	return errs
}
