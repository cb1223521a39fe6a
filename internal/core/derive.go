package core

import "strings"

// ClassifyEntity derives the entity type from the country of formation.
// Only an exact, case-sensitive "United States" is domestic.
func ClassifyEntity(countryOfFormation string) EntityType {
	if countryOfFormation == DomesticCountry {
		return EntityDomestic
	}
	return EntityForeign
}

// ParseFilingType reads a filing-type cell. Only "exemption" (any case) is
// recognized; every other value, including empty, is a disclosure.
func ParseFilingType(cell string) FilingType {
	if strings.ToLower(strings.TrimSpace(cell)) == string(FilingExemption) {
		return FilingExemption
	}
	return FilingDisclosure
}

// ResolveServiceType applies the service selection rules.
// Foreign entities always file; the hint is ignored. Domestic entities accept
// "monitoring" or "filing" (any case) and default to monitoring.
func ResolveServiceType(et EntityType, hint string) ServiceType {
	if et == EntityForeign {
		return ServiceFiling
	}
	switch ServiceType(strings.ToLower(strings.TrimSpace(hint))) {
	case ServiceFiling:
		return ServiceFiling
	default:
		return ServiceMonitoring
	}
}

// DeriveClassification is the shared rule set used by both schema parsers.
func DeriveClassification(countryOfFormation, serviceHint string) (EntityType, ServiceType) {
	et := ClassifyEntity(countryOfFormation)
	return et, ResolveServiceType(et, serviceHint)
}
