package core

import "strings"

// EvaluateCompleteness reports whether an entity is ready to submit.
//
// It is a pure function of the filing type, the exemption category and the
// beneficial owners. Nothing is cached; call it whenever those change.
func EvaluateCompleteness(e *Entity) bool {
	if e == nil {
		return false
	}
	switch e.FilingType {
	case FilingExemption:
		return strings.TrimSpace(e.ExemptionCategory) != ""
	default:
		if len(e.BeneficialOwners) == 0 {
			return false
		}
		for i := range e.BeneficialOwners {
			if len(OwnerIssues(e.BeneficialOwners[i])) > 0 {
				return false
			}
		}
		return true
	}
}

// OwnerIssues lists every reason an owner record is not submittable.
// An empty result means the owner is complete.
func OwnerIssues(o BeneficialOwner) []string {
	var issues []string
	if strings.TrimSpace(o.Name) == "" {
		issues = append(issues, "name is required")
	}
	if !IsValidBirthDate(o.DateOfBirth) {
		issues = append(issues, "valid date of birth is required")
	}
	if !o.Address.IsComplete() {
		issues = append(issues, "full address (street, city, state, zip, country) is required")
	}
	if strings.TrimSpace(o.Document.Type) == "" {
		issues = append(issues, "identity document type is required")
	}
	if strings.TrimSpace(o.Document.Number) == "" {
		issues = append(issues, "identity document number is required")
	}
	switch issuer := o.Document.Issuer; {
	case strings.TrimSpace(issuer.Country) == "":
		issues = append(issues, "issuing country is required")
	case issuer.Country == DomesticCountry && strings.TrimSpace(issuer.State) == "":
		issues = append(issues, "issuing state is required for US documents")
	}
	if !o.OwnershipPercentage.Valid {
		issues = append(issues, "ownership percentage is required")
	} else if !o.OwnershipPercentage.Decimal.IsPositive() {
		issues = append(issues, "ownership percentage must be greater than zero")
	}
	return issues
}
