package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a ledger event in a CAS statement.
type TransactionType string

const (
	TxPurchase             TransactionType = "purchase"
	TxRedemption           TransactionType = "redemption"
	TxSIP                  TransactionType = "sip"
	TxSwitchIn             TransactionType = "switch_in"
	TxSwitchOut            TransactionType = "switch_out"
	TxSTPIn                TransactionType = "stp_in"
	TxSTPOut               TransactionType = "stp_out"
	TxDividendPayout       TransactionType = "dividend_payout"
	TxDividendReinvestment TransactionType = "dividend_reinvestment"
	TxStampDuty            TransactionType = "stamp_duty"
	TxSTT                  TransactionType = "stt"
	TxCharges              TransactionType = "charges"
	TxUnknown              TransactionType = "unknown"
)

// Date is a calendar date that marshals as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"2006-01-02"`, s)
	if err != nil {
		return err
	}
	*d = Date{t}
	return nil
}

// Investor identifies the statement owner. Created once per statement.
type Investor struct {
	Name     string `json:"name"`
	PAN      string `json:"pan"`
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	DPID     string `json:"dp_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// Holding is one mutual-fund position as of the statement date.
// Units, NAV and CurrentValue are exact decimals; units × nav should
// approximate current_value within 1% (checked by the validator, never
// corrected here).
type Holding struct {
	SchemeName   string          `json:"scheme_name"`
	ISIN         string          `json:"isin"`
	Folio        string          `json:"folio"`
	Units        decimal.Decimal `json:"units"`
	NAV          decimal.Decimal `json:"nav"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Segregated   bool            `json:"segregated"`
}

// Transaction is one ledger event against a folio. Units is signed:
// redemptions and switch-outs are negative, charge-type rows are zero.
// Description keeps the statement text verbatim for audit and type
// inference.
type Transaction struct {
	Date         Date            `json:"date"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	Units        decimal.Decimal `json:"units"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceUnits decimal.Decimal `json:"balance_units"`
	Folio        string          `json:"folio"`
	ISIN         string          `json:"isin"`
	Segregated   bool            `json:"segregated"`
}

// Severity of a validation finding. Errors block the statement's valid
// status; warnings are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueCategory groups validation findings.
type IssueCategory string

const (
	CategoryValueMismatch IssueCategory = "value_mismatch"
	CategoryUnitBalance   IssueCategory = "unit_balance"
	CategoryBadISIN       IssueCategory = "bad_isin"
	CategoryBadPAN        IssueCategory = "bad_pan"
	CategoryMissingField  IssueCategory = "missing_field"
	CategoryBadRow        IssueCategory = "bad_row"
	CategoryConsistency   IssueCategory = "consistency"
)

// ValidationIssue is a single finding. Ref points at the affected entity
// (an ISIN, a folio, or a raw source line for dropped rows).
type ValidationIssue struct {
	Severity Severity      `json:"severity"`
	Category IssueCategory `json:"category"`
	Message  string        `json:"message"`
	Ref      string        `json:"ref,omitempty"`
}

// ValidationReport is the ordered sequence of findings for a statement.
// IsValid is derived: true iff no error-severity issue is present.
type ValidationReport struct {
	IsValid bool              `json:"is_valid"`
	Issues  []ValidationIssue `json:"issues"`
}

// NewValidationReport returns an empty, valid report.
func NewValidationReport() ValidationReport {
	return ValidationReport{IsValid: true, Issues: []ValidationIssue{}}
}

// Add appends an issue and recomputes validity.
func (r *ValidationReport) Add(sev Severity, cat IssueCategory, msg, ref string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: sev, Category: cat, Message: msg, Ref: ref})
	if sev == SeverityError {
		r.IsValid = false
	}
}

// Merge appends all issues from another report.
func (r *ValidationReport) Merge(other ValidationReport) {
	r.Issues = append(r.Issues, other.Issues...)
	if !other.IsValid {
		r.IsValid = false
	}
}

// Errors returns the error-severity issues.
func (r *ValidationReport) Errors() []ValidationIssue {
	var out []ValidationIssue
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			out = append(out, is)
		}
	}
	return out
}

// Warnings returns the warning-severity issues.
func (r *ValidationReport) Warnings() []ValidationIssue {
	var out []ValidationIssue
	for _, is := range r.Issues {
		if is.Severity == SeverityWarning {
			out = append(out, is)
		}
	}
	return out
}

// CASStatement is the root aggregate: one investor, holdings and
// transactions in document order, and the validation report. Immutable
// once returned by the parser.
type CASStatement struct {
	Investor      Investor         `json:"investor"`
	StatementDate *Date            `json:"statement_date,omitempty"`
	Holdings      []Holding        `json:"holdings"`
	Transactions  []Transaction    `json:"transactions"`
	Validation    ValidationReport `json:"validation"`
}

// HoldingsForFolio returns the holdings recorded under a folio number.
func (s *CASStatement) HoldingsForFolio(folio string) []Holding {
	var out []Holding
	for _, h := range s.Holdings {
		if h.Folio == folio {
			out = append(out, h)
		}
	}
	return out
}

// TransactionsForISIN returns the transactions referencing an ISIN.
func (s *CASStatement) TransactionsForISIN(isin string) []Transaction {
	var out []Transaction
	for _, t := range s.Transactions {
		if t.ISIN == isin {
			out = append(out, t)
		}
	}
	return out
}
