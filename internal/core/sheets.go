package core

// Sheet keys of the relational template.
const (
	SheetClients    = "clients"
	SheetOwners     = "owners"
	SheetExemptions = "exemptions"
	SheetApplicants = "applicants"
)

// Column names shared by the relational sheets.
const (
	ColClientID            = "Client ID"
	ColLegalName           = "Legal Name"
	ColFictitiousName      = "Fictitious Name"
	ColRegistryID          = "Registry ID"
	ColTaxID               = "Tax ID"
	ColFormationDate       = "Formation Date"
	ColCountryOfFormation  = "Country of Formation"
	ColStateOfFormation    = "State of Formation"
	ColForeignFilingDate   = "Foreign Filing Date"
	ColFilingType          = "Filing Type"
	ColServiceLevel        = "Service Level"
	ColFullName            = "Full Name"
	ColDateOfBirth         = "Date of Birth"
	ColStreet              = "Street"
	ColCity                = "City"
	ColState               = "State"
	ColZip                 = "Zip"
	ColCountry             = "Country"
	ColAddressType         = "Address Type"
	ColIDType              = "ID Type"
	ColIDNumber            = "ID Number"
	ColIssuingCountry      = "Issuing Country"
	ColIssuingState        = "Issuing State"
	ColOwnershipPercentage = "Ownership Percentage"
	ColPosition            = "Position"
	ColRole                = "Role"
	ColExemptionCategory   = "Exemption Category"
	ColExplanation         = "Explanation"
)

func init() {
	registerClients()
	registerOwners()
	registerExemptions()
	registerApplicants()
}

func registerClients() {
	Register(SheetDefinition{
		Key:     SheetClients,
		Name:    "Clients",
		Aliases: []string{"Companies", "Entities"},
		FieldSpecs: []FieldSpec{
			{Name: ColClientID, Type: FieldText, Required: true},
			{Name: ColLegalName, Type: FieldText, Required: true, AllowEmpty: true},
			{Name: ColFictitiousName, Type: FieldText},
			{Name: ColRegistryID, Type: FieldText},
			{Name: ColTaxID, Type: FieldText},
			{Name: ColFormationDate, Type: FieldDate},
			{Name: ColCountryOfFormation, Type: FieldText},
			{Name: ColStateOfFormation, Type: FieldText},
			{Name: ColForeignFilingDate, Type: FieldDate},
			{Name: ColFilingType, Type: FieldText},
			{Name: ColServiceLevel, Type: FieldText},
		},
	})
}

func registerOwners() {
	Register(SheetDefinition{
		Key:     SheetOwners,
		Name:    "Beneficial Owners",
		Aliases: []string{"Owners"},
		FieldSpecs: []FieldSpec{
			{Name: ColClientID, Type: FieldText, Required: true},
			{Name: ColFullName, Type: FieldText, Required: true, AllowEmpty: true},
			{Name: ColDateOfBirth, Type: FieldDate},
			{Name: ColStreet, Type: FieldText},
			{Name: ColCity, Type: FieldText},
			{Name: ColState, Type: FieldText},
			{Name: ColZip, Type: FieldText},
			{Name: ColCountry, Type: FieldText},
			{Name: ColIDType, Type: FieldText},
			{Name: ColIDNumber, Type: FieldText},
			{Name: ColIssuingCountry, Type: FieldText},
			{Name: ColIssuingState, Type: FieldText},
			{Name: ColOwnershipPercentage, Type: FieldPercent},
			{Name: ColPosition, Type: FieldText},
		},
	})
}

func registerExemptions() {
	Register(SheetDefinition{
		Key:     SheetExemptions,
		Name:    "Exemptions",
		Aliases: []string{"Exemption"},
		FieldSpecs: []FieldSpec{
			{Name: ColClientID, Type: FieldText, Required: true},
			{Name: ColExemptionCategory, Type: FieldText, Required: true, AllowEmpty: true},
			{Name: ColExplanation, Type: FieldText},
		},
	})
}

func registerApplicants() {
	Register(SheetDefinition{
		Key:     SheetApplicants,
		Name:    "Company Applicants",
		Aliases: []string{"Applicants"},
		FieldSpecs: []FieldSpec{
			{Name: ColClientID, Type: FieldText, Required: true},
			{Name: ColFullName, Type: FieldText, Required: true, AllowEmpty: true},
			{Name: ColDateOfBirth, Type: FieldDate},
			{Name: ColStreet, Type: FieldText},
			{Name: ColCity, Type: FieldText},
			{Name: ColState, Type: FieldText},
			{Name: ColZip, Type: FieldText},
			{Name: ColCountry, Type: FieldText},
			{Name: ColAddressType, Type: FieldEnum, EnumValues: []string{"business", "residential"}},
			{Name: ColIDType, Type: FieldText},
			{Name: ColIDNumber, Type: FieldText},
			{Name: ColIssuingCountry, Type: FieldText},
			{Name: ColIssuingState, Type: FieldText},
			{Name: ColRole, Type: FieldText},
		},
	})
}
