package domain

// ContractType enumerates the supported contract categories.
type ContractType string

const (
	ContractTypeSupplier   ContractType = "SUPPLIER_CONTRACT"
	ContractTypeNDA        ContractType = "NDA_CONTRACT"
	ContractTypeEmployment ContractType = "EMPLOYMENT_CONTRACT"
)

// RenewalType enumerates contract renewal behaviors.
type RenewalType string

const (
	RenewalAutomatic    RenewalType = "AUTOMATIC"
	RenewalManual       RenewalType = "MANUAL"
	RenewalNonRenewable RenewalType = "NON_RENEWABLE"
)

// Currency enumerates supported payment currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyAUD Currency = "AUD"
	CurrencyINR Currency = "INR"
)

// PaymentMode enumerates how payments are made.
type PaymentMode string

const (
	PaymentModeBankTransfer PaymentMode = "ELECTRONIC_BANK_TRANSFER"
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeCheque       PaymentMode = "CHEQUE"
)

// PaymentFrequency enumerates how often payments recur.
type PaymentFrequency string

const (
	PaymentFreqOneTime   PaymentFrequency = "ONE_TIME"
	PaymentFreqMonthly   PaymentFrequency = "MONTHLY"
	PaymentFreqQuarterly PaymentFrequency = "QUARTERLY"
	PaymentFreqAnnually  PaymentFrequency = "ANNUALLY"
)

// PaymentType enumerates the payment structure.
type PaymentType string

const (
	PaymentTypeOneTime      PaymentType = "ONE_TIME"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
	PaymentTypeEMI          PaymentType = "EMI"
)

// Address is a postal address attached to a contracting party.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// Contact is a point of contact for a contracting party.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Party is one legal entity named in a contract.
type Party struct {
	LegalName       string  `json:"legal_name"`
	Address         Address `json:"address"`
	PrimaryContact  Contact `json:"primary_contact"`
	DisclosingParty bool    `json:"disclosing_party,omitempty"`
}

// PaymentTerms describes the payment obligations of a supplier contract.
type PaymentTerms struct {
	Currency    Currency         `json:"currency"`
	DuePeriod   int              `json:"due_period"`
	PaymentMode PaymentMode      `json:"payment_mode"`
	PaymentFreq PaymentFrequency `json:"payment_freq"`
	PaymentType PaymentType      `json:"payment_type"`
}

// LegalCompliance lists the governing jurisdictions of a contract.
type LegalCompliance struct {
	GoverningLaws []string `json:"governing_laws"`
}

// CTC is the cost-to-company breakdown of an employment contract.
type CTC struct {
	Currency         Currency `json:"currency"`
	BaseSalary       float64  `json:"base_salary"`
	HouseAllowance   float64  `json:"house_allowance,omitempty"`
	MedicalAllowance float64  `json:"medical_allowance,omitempty"`
	TravelAllowance  float64  `json:"travel_allowance,omitempty"`
	PerformanceBonus float64  `json:"performance_bonus,omitempty"`
	Gratuity         float64  `json:"gratuity,omitempty"`
	ProvidentFund    float64  `json:"provident_fund,omitempty"`
	TotalCTC         float64  `json:"total_ctc"`
}

// ContractBase is an uploaded document before structured extraction.
type ContractBase struct {
	UserID       string       `json:"user_id"`
	ContractID   string       `json:"contract_id"`
	ContractName string       `json:"contract_name,omitempty"`
	ContractType ContractType `json:"contract_type,omitempty"`
	PDFURI       string       `json:"pdf_uri,omitempty"`
	MDURI        string       `json:"md_uri,omitempty"`
}

// Contract is a contract document with its extracted structured payload.
// The payload fields are flat on the wire; which of them are populated
// depends on ContractType.
type Contract struct {
	ContractBase

	// Shared extracted fields
	EffectiveDate   string           `json:"effective_date,omitempty"`
	ExecutionDate   string           `json:"execution_date,omitempty"`
	ExpirationDate  string           `json:"expiration_date,omitempty"`
	ContractTerm    int              `json:"contract_term,omitempty"`
	RenewalType     RenewalType      `json:"renewal_type,omitempty"`
	LegalCompliance *LegalCompliance `json:"legal_compliance,omitempty"`

	// Supplier contract
	Supplier    *Party        `json:"supplier,omitempty"`
	Client      *Party        `json:"client,omitempty"`
	PaymentTerm *PaymentTerms `json:"payment_term,omitempty"`

	// NDA contract
	Parties               []Party `json:"parties,omitempty"`
	ConfidentialityClause string  `json:"confidentiality_clause,omitempty"`

	// Employment contract
	Employee *Party `json:"employee,omitempty"`
	Employer *Party `json:"employer,omitempty"`
	JobTitle string `json:"job_title,omitempty"`
	CTC      *CTC   `json:"ctc,omitempty"`
}

// Filled reports whether the structured payload has been extracted yet.
func (c *Contract) Filled() bool {
	switch c.ContractType {
	case ContractTypeSupplier:
		return c.Supplier != nil && c.Client != nil
	case ContractTypeNDA:
		return len(c.Parties) > 0
	case ContractTypeEmployment:
		return c.Employee != nil && c.Employer != nil
	default:
		return false
	}
}

// ValidationCheck is the result of a single validation pass over a contract.
type ValidationCheck struct {
	// Score is on a scale of 1 to 10.
	Score  int      `json:"score"`
	Errors []string `json:"errors"`
}

// ValidationReport is the full validation result for one contract. It is a
// derived resource keyed by the contract id and cached independently.
type ValidationReport struct {
	DateVerification         ValidationCheck `json:"date_verification"`
	MissingClausesCompliance ValidationCheck `json:"missing_clauses_compliance"`
	SpellingMistakes         ValidationCheck `json:"spelling_mistakes"`
	LanguageAmbiguities      ValidationCheck `json:"language_ambiguities"`
}
