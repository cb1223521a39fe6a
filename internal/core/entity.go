package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrServiceNotAllowed is returned when a foreign entity is moved off the filing service.
var ErrServiceNotAllowed = errors.New("foreign entities must use the filing service")

// ErrOwnerIndex is returned for an owner position that does not exist.
var ErrOwnerIndex = errors.New("beneficial owner index out of range")

// ErrTooManyOwners is returned when an entity already holds MaxBeneficialOwners.
var ErrTooManyOwners = errors.New("too many beneficial owners")

// NewEntity creates an entity with a fresh id and derived fields populated.
func NewEntity(legalName, countryOfFormation, serviceHint string, filing FilingType) *Entity {
	e := &Entity{
		ID:                 uuid.New(),
		LegalName:          legalName,
		CountryOfFormation: countryOfFormation,
		FilingType:         filing,
	}
	e.EntityType, e.ServiceType = DeriveClassification(countryOfFormation, serviceHint)
	e.Refresh()
	return e
}

// Refresh re-derives classification and completeness from the current fields.
// Use it after decoding an entity from an untrusted source.
func (e *Entity) Refresh() {
	if e.FilingType != FilingExemption {
		e.FilingType = FilingDisclosure
	}
	e.EntityType = ClassifyEntity(e.CountryOfFormation)
	e.ServiceType = ResolveServiceType(e.EntityType, string(e.ServiceType))
	e.DataComplete = EvaluateCompleteness(e)
}

// SetCountryOfFormation changes the country and re-derives the entity type.
// A domestic entity that becomes foreign is moved to the filing service.
func (e *Entity) SetCountryOfFormation(country string) {
	e.CountryOfFormation = country
	e.Refresh()
}

// SetServiceType selects the service level. Foreign entities only accept filing.
func (e *Entity) SetServiceType(st ServiceType) error {
	if st != ServiceMonitoring && st != ServiceFiling {
		return fmt.Errorf("unknown service type %q", st)
	}
	if e.EntityType == EntityForeign && st != ServiceFiling {
		return ErrServiceNotAllowed
	}
	e.ServiceType = st
	return nil
}

// SetFilingType changes the filing intent and recomputes completeness.
func (e *Entity) SetFilingType(ft FilingType) {
	e.FilingType = ft
	e.Refresh()
}

// SetExemption records the exemption category and explanation.
func (e *Entity) SetExemption(category, explanation string) {
	e.ExemptionCategory = category
	e.ExemptionExplanation = explanation
	e.DataComplete = EvaluateCompleteness(e)
}

// AddOwner appends a beneficial owner.
func (e *Entity) AddOwner(o BeneficialOwner) error {
	if len(e.BeneficialOwners) >= MaxBeneficialOwners {
		return ErrTooManyOwners
	}
	e.BeneficialOwners = append(e.BeneficialOwners, o)
	e.DataComplete = EvaluateCompleteness(e)
	return nil
}

// UpdateOwner replaces the owner at index i.
func (e *Entity) UpdateOwner(i int, o BeneficialOwner) error {
	if i < 0 || i >= len(e.BeneficialOwners) {
		return ErrOwnerIndex
	}
	e.BeneficialOwners[i] = o
	e.DataComplete = EvaluateCompleteness(e)
	return nil
}

// RemoveOwner deletes the owner at index i, preserving order.
func (e *Entity) RemoveOwner(i int) error {
	if i < 0 || i >= len(e.BeneficialOwners) {
		return ErrOwnerIndex
	}
	e.BeneficialOwners = append(e.BeneficialOwners[:i], e.BeneficialOwners[i+1:]...)
	e.DataComplete = EvaluateCompleteness(e)
	return nil
}

// SetOwners replaces the whole owner list.
func (e *Entity) SetOwners(owners []BeneficialOwner) error {
	if len(owners) > MaxBeneficialOwners {
		return ErrTooManyOwners
	}
	e.BeneficialOwners = owners
	e.DataComplete = EvaluateCompleteness(e)
	return nil
}

// SetApplicants replaces the company applicants.
func (e *Entity) SetApplicants(applicants []CompanyApplicant) {
	e.CompanyApplicants = applicants
	e.DataComplete = EvaluateCompleteness(e)
}

func (e *Entity) flagIncomplete(format string, args ...any) {
	e.Incomplete = true
	e.ImportIssues = append(e.ImportIssues, fmt.Sprintf(format, args...))
}
