// Package validator runs post-extraction consistency checks over an
// assembled CAS statement. It is pure: the statement is never mutated,
// every check runs regardless of earlier findings, and the result is a
// report the caller attaches to the statement.
package validator

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/fundlens/cas-parser/internal/models"
)

var (
	isinFormat = regexp.MustCompile(`^INF[A-Z0-9]{9}$`)
	panFormat  = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

	// valueTolerance bounds |units×nav − value| relative to value.
	valueTolerance = decimal.NewFromFloat(0.01)
	// unitsTolerance bounds transaction-sum drift against holding units.
	unitsTolerance = decimal.NewFromFloat(0.001)
)

// Validate checks the whole statement and returns the findings. Overall
// validity is derived: any error-severity issue clears it; warnings never
// do.
func Validate(s *models.CASStatement) models.ValidationReport {
	report := models.NewValidationReport()

	checkInvestor(&report, s.Investor)
	for _, h := range s.Holdings {
		checkHolding(&report, h)
	}
	for _, t := range s.Transactions {
		checkTransaction(&report, t)
	}
	checkUnitBalances(&report, s)
	checkOrphans(&report, s)

	return report
}

func checkInvestor(r *models.ValidationReport, inv models.Investor) {
	if inv.Name == "" {
		r.Add(models.SeverityError, models.CategoryMissingField, "investor name is missing", "investor")
	}
	if inv.PAN == "" {
		r.Add(models.SeverityError, models.CategoryMissingField, "investor PAN is missing", "investor")
	} else if !panFormat.MatchString(inv.PAN) {
		r.Add(models.SeverityError, models.CategoryBadPAN,
			fmt.Sprintf("invalid PAN format: %s", inv.PAN), "investor")
	}
}

func checkHolding(r *models.ValidationReport, h models.Holding) {
	ref := h.ISIN
	if ref == "" {
		ref = h.SchemeName
	}

	if h.ISIN == "" {
		r.Add(models.SeverityError, models.CategoryBadISIN,
			fmt.Sprintf("missing ISIN for holding %q", h.SchemeName), ref)
	} else if !isinFormat.MatchString(h.ISIN) {
		r.Add(models.SeverityError, models.CategoryBadISIN,
			fmt.Sprintf("invalid ISIN format: %s", h.ISIN), ref)
	}

	if h.Folio == "" {
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("missing folio for holding %q", h.SchemeName), ref)
	}

	if h.NAV.Sign() <= 0 {
		r.Add(models.SeverityError, models.CategoryConsistency,
			fmt.Sprintf("non-positive NAV for holding %q", h.SchemeName), ref)
	}
	if h.Units.Sign() < 0 && !h.Segregated {
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("negative units for non-segregated holding %q", h.SchemeName), ref)
	}

	// units × nav must approximate the stated value within the relative
	// tolerance. Mismatches are reported, never corrected.
	if h.Units.Sign() > 0 && h.NAV.Sign() > 0 && h.CurrentValue.Sign() > 0 {
		calculated := h.Units.Mul(h.NAV)
		diff := calculated.Sub(h.CurrentValue).Abs()
		if diff.Cmp(valueTolerance.Mul(h.CurrentValue)) > 0 {
			r.Add(models.SeverityError, models.CategoryValueMismatch,
				fmt.Sprintf("value mismatch for %q: units×nav=%s, stated=%s",
					h.SchemeName, calculated.StringFixed(2), h.CurrentValue.StringFixed(2)),
				ref)
		}
	}
}

// Types whose unit deltas must be negative or positive. Sign anomalies
// are advisory: the extractor's sign policy should already have applied.
var (
	wantNegative = map[models.TransactionType]bool{
		models.TxRedemption: true,
		models.TxSwitchOut:  true,
		models.TxSTPOut:     true,
	}
	wantPositive = map[models.TransactionType]bool{
		models.TxPurchase:             true,
		models.TxSIP:                  true,
		models.TxSwitchIn:             true,
		models.TxSTPIn:                true,
		models.TxDividendReinvestment: true,
	}
	chargeType = map[models.TransactionType]bool{
		models.TxSTT:       true,
		models.TxStampDuty: true,
		models.TxCharges:   true,
	}
)

func checkTransaction(r *models.ValidationReport, t models.Transaction) {
	ref := t.ISIN
	if ref == "" {
		ref = t.Folio
	}

	if t.ISIN != "" && !isinFormat.MatchString(t.ISIN) {
		r.Add(models.SeverityWarning, models.CategoryBadISIN,
			fmt.Sprintf("invalid ISIN in transaction on %s: %s", t.Date.Format("2006-01-02"), t.ISIN), ref)
	}
	if t.Folio == "" {
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("missing folio for transaction on %s", t.Date.Format("2006-01-02")), ref)
	}

	switch {
	case wantNegative[t.Type] && t.Units.Sign() > 0:
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("expected negative units for %s on %s, got %s",
				t.Type, t.Date.Format("2006-01-02"), t.Units), ref)
	case wantPositive[t.Type] && t.Units.Sign() < 0:
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("expected positive units for %s on %s, got %s",
				t.Type, t.Date.Format("2006-01-02"), t.Units), ref)
	case chargeType[t.Type] && !t.Units.IsZero():
		r.Add(models.SeverityWarning, models.CategoryConsistency,
			fmt.Sprintf("charge-type transaction on %s carries nonzero units %s",
				t.Date.Format("2006-01-02"), t.Units), ref)
	}
}

// checkUnitBalances verifies that the signed sum of transaction unit
// deltas for each folio+ISIN group approximates the holding's units.
// Statement transaction history is often truncated, so a mismatch is
// advisory, not fatal.
func checkUnitBalances(r *models.ValidationReport, s *models.CASStatement) {
	sums := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	for _, t := range s.Transactions {
		key := t.Folio + "|" + t.ISIN
		sums[key] = sums[key].Add(t.Units)
		seen[key] = true
	}

	for _, h := range s.Holdings {
		key := h.Folio + "|" + h.ISIN
		if !seen[key] {
			r.Add(models.SeverityWarning, models.CategoryUnitBalance,
				fmt.Sprintf("no transactions found for holding %q (folio %s)", h.SchemeName, h.Folio),
				h.ISIN)
			continue
		}
		diff := sums[key].Sub(h.Units).Abs()
		if diff.Cmp(unitsTolerance) > 0 {
			r.Add(models.SeverityWarning, models.CategoryUnitBalance,
				fmt.Sprintf("unit balance mismatch for %q: transactions sum to %s, holding has %s",
					h.SchemeName, sums[key], h.Units),
				h.ISIN)
		}
	}
}

// checkOrphans flags transactions whose folio+ISIN never appears among
// the holdings.
func checkOrphans(r *models.ValidationReport, s *models.CASStatement) {
	held := make(map[string]bool)
	for _, h := range s.Holdings {
		held[h.Folio+"|"+h.ISIN] = true
	}

	flagged := make(map[string]bool)
	for _, t := range s.Transactions {
		if t.ISIN == "" {
			continue
		}
		key := t.Folio + "|" + t.ISIN
		if !held[key] && !flagged[key] {
			flagged[key] = true
			r.Add(models.SeverityWarning, models.CategoryConsistency,
				fmt.Sprintf("transactions reference ISIN %s with no corresponding holding", t.ISIN),
				t.ISIN)
		}
	}
}

// ValidISIN reports whether isin matches the INF + 9 alphanumeric format.
func ValidISIN(isin string) bool {
	return isinFormat.MatchString(isin)
}

// ValidPAN reports whether pan matches the 5-letter 4-digit 1-letter format.
func ValidPAN(pan string) bool {
	return panFormat.MatchString(pan)
}
