package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fundlens/cas-parser/internal/models"
)

// typeRule maps a description phrase to a transaction type. Rules are
// evaluated in order, most specific phrase first, so that "switch in"
// is never shadowed by a bare "in" and "dividend reinvest" is never
// mis-routed to the payout or redemption rules.
type typeRule struct {
	txType models.TransactionType
	re     *regexp.Regexp
}

var typeRules = []typeRule{
	{models.TxSIP, regexp.MustCompile(`(?i)systematic\s*investment`)},
	{models.TxSIP, regexp.MustCompile(`(?i)\bSIP\b`)},
	{models.TxSTPIn, regexp.MustCompile(`(?i)STP\s*-?\s*in`)},
	{models.TxSTPIn, regexp.MustCompile(`(?i)systematic\s*transfer.*\bin\b`)},
	{models.TxSTPOut, regexp.MustCompile(`(?i)STP\s*-?\s*out`)},
	{models.TxSTPOut, regexp.MustCompile(`(?i)systematic\s*transfer.*\bout\b`)},
	{models.TxSwitchIn, regexp.MustCompile(`(?i)switch\s*-?\s*in`)},
	{models.TxSwitchIn, regexp.MustCompile(`(?i)switched\s*in`)},
	{models.TxSwitchIn, regexp.MustCompile(`(?i)switch\s*from`)},
	{models.TxSwitchOut, regexp.MustCompile(`(?i)switch\s*-?\s*out`)},
	{models.TxSwitchOut, regexp.MustCompile(`(?i)switched\s*out`)},
	{models.TxSwitchOut, regexp.MustCompile(`(?i)switch\s*to`)},
	{models.TxDividendReinvestment, regexp.MustCompile(`(?i)dividend\s*reinvest`)},
	{models.TxDividendReinvestment, regexp.MustCompile(`(?i)reinvest.*dividend`)},
	{models.TxDividendReinvestment, regexp.MustCompile(`(?i)div\.?\s*reinv`)},
	{models.TxDividendPayout, regexp.MustCompile(`(?i)dividend\s*pay`)},
	{models.TxDividendPayout, regexp.MustCompile(`(?i)div\.?\s*payout`)},
	{models.TxSTT, regexp.MustCompile(`(?i)\bSTT\b`)},
	{models.TxSTT, regexp.MustCompile(`(?i)securities\s*transaction\s*tax`)},
	{models.TxStampDuty, regexp.MustCompile(`(?i)stamp\s*duty`)},
	{models.TxCharges, regexp.MustCompile(`(?i)exit\s*load`)},
	{models.TxCharges, regexp.MustCompile(`(?i)management\s*fee`)},
	{models.TxCharges, regexp.MustCompile(`(?i)charges?\b`)},
	{models.TxRedemption, regexp.MustCompile(`(?i)redemption`)},
	{models.TxRedemption, regexp.MustCompile(`(?i)redeem`)},
	{models.TxRedemption, regexp.MustCompile(`(?i)withdrawal`)},
	{models.TxPurchase, regexp.MustCompile(`(?i)purchase`)},
	{models.TxPurchase, regexp.MustCompile(`(?i)subscription`)},
	{models.TxPurchase, regexp.MustCompile(`(?i)new\s*investment`)},
}

// chargeTypes affect amount only; their rows never alter unit balance.
var chargeTypes = map[models.TransactionType]bool{
	models.TxSTT:       true,
	models.TxStampDuty: true,
	models.TxCharges:   true,
}

// outflowTypes carry negative unit deltas even when the row states the
// magnitude unsigned next to a directional keyword.
var outflowTypes = map[models.TransactionType]bool{
	models.TxRedemption: true,
	models.TxSwitchOut:  true,
	models.TxSTPOut:     true,
}

// ClassifyTransaction resolves a transaction type from its description.
// Classification is deterministic: the first matching rule wins, and no
// match yields TxUnknown rather than an error.
func ClassifyTransaction(description string) models.TransactionType {
	for _, rule := range typeRules {
		if rule.re.MatchString(description) {
			return rule.txType
		}
	}
	return models.TxUnknown
}

// transactionsExtractor assembles Transaction records while the FSM
// reports the transaction section. It carries the running folio/ISIN
// context from scheme header lines, the way CAS issuers group the ledger
// per scheme.
type transactionsExtractor struct {
	transactions []models.Transaction
	issues       []models.ValidationIssue

	folio      string
	isin       string
	segregated bool
}

func newTransactionsExtractor() *transactionsExtractor {
	return &transactionsExtractor{}
}

// consume handles one classified line from the transaction section.
func (e *transactionsExtractor) consume(line string, m Marker) {
	if m.Has(MarkerFolio) {
		if folio := extractFolio(line); folio != "" {
			if e.folio != "" && e.folio != folio {
				e.isin = ""
				e.segregated = false
			}
			e.folio = folio
		}
		// The folio line may carry the ISIN too.
		if isin := extractISIN(line); isin != "" {
			e.isin = isin
		}
		// No return: the folio label may share the line with a scheme
		// header or a dated row.
	}

	if m.Has(MarkerISIN) && !m.Has(MarkerDate) {
		// Scheme header: new ISIN context for the rows that follow.
		e.isin = extractISIN(line)
		e.segregated = m.Has(MarkerSegregated)
		return
	}

	if m.Has(MarkerDate) {
		e.parseRow(line, m)
		return
	}

	if m.Has(MarkerContinuation) {
		e.continuation(line)
	}
}

// continuation merges a balance-forward or wrapped description line into
// the previous transaction; it never opens a transaction of its own.
func (e *transactionsExtractor) continuation(line string) {
	text := strings.Join(strings.Fields(line), " ")
	if text == "" || len(e.transactions) == 0 {
		return
	}
	last := &e.transactions[len(e.transactions)-1]
	last.Description = last.Description + " " + text
}

// parseRow assembles one Transaction from a dated row. Layout is
// "date description amount units nav balance"; charge rows use the
// "date ***description*** amount" form.
func (e *transactionsExtractor) parseRow(line string, m Marker) {
	dm := leadingDate.FindStringSubmatch(line)
	if dm == nil {
		return
	}
	txDate, err := parseStatementDate(dm[1])
	if err != nil {
		e.dropRow(line, fmt.Errorf("bad date %q: %w", dm[1], err))
		return
	}
	rest := strings.TrimSpace(line[len(dm[0]):])

	if m.Has(MarkerChargeRow) {
		e.parseChargeRow(txDate, rest, line, m)
		return
	}

	// The numeric columns are the trailing run of fully numeric fields.
	// A decimal embedded in the description (a per-unit rate such as
	// "@ Rs.0.50 per unit") always has text after it, so it stays out of
	// the run and cannot shift the column assignment.
	fields := strings.Fields(rest)
	start := len(fields)
	for start > 0 && isNumericToken(fields[start-1]) {
		start--
	}
	cols := fields[start:]
	if len(cols) < 2 {
		e.dropRow(line, fmt.Errorf("row has %d numeric columns, need amount and units", len(cols)))
		return
	}

	description := strings.Join(fields[:start], " ")
	description = strings.Trim(description, " -:–")

	var nums []decimal.Decimal
	for _, tok := range cols {
		d, perr := parseDecimal(tok)
		if perr != nil {
			e.dropRow(line, perr)
			return
		}
		nums = append(nums, d)
	}

	// Columns in order: amount, units, nav, balance. Shorter rows omit
	// the trailing columns.
	amount := nums[0]
	units := nums[1]
	var balance decimal.Decimal
	if len(nums) >= 4 {
		balance = nums[3]
	}

	txType := ClassifyTransaction(description)
	if txType == models.TxUnknown && !units.IsZero() {
		// No keyword matched: fall back on the unit-delta sign.
		if units.IsNegative() {
			txType = models.TxRedemption
		} else {
			txType = models.TxPurchase
		}
	}

	units = applySignPolicy(txType, units)

	e.transactions = append(e.transactions, models.Transaction{
		Date:         txDate,
		Type:         txType,
		Description:  description,
		Units:        units,
		Amount:       amount,
		BalanceUnits: balance,
		Folio:        e.folio,
		ISIN:         e.isin,
		Segregated:   e.segregated || m.Has(MarkerSegregated),
	})
}

// parseChargeRow handles ***-fenced rows (STT, stamp duty, loads). These
// rows affect amount only: the unit delta is forced to zero even when
// the source carries a stray value in the units column.
func (e *transactionsExtractor) parseChargeRow(txDate models.Date, rest, raw string, m Marker) {
	fm := chargeFence.FindStringSubmatch(rest)
	if fm == nil {
		return
	}
	description := strings.TrimSpace(fm[1])

	amount := decimal.Zero
	if tokens := decimalShape.FindAllString(rest, -1); len(tokens) > 0 {
		d, err := parseDecimal(tokens[0])
		if err != nil {
			e.dropRow(raw, err)
			return
		}
		amount = d
	}

	txType := ClassifyTransaction(description)
	if !chargeTypes[txType] {
		txType = models.TxCharges
	}

	e.transactions = append(e.transactions, models.Transaction{
		Date:        txDate,
		Type:        txType,
		Description: description,
		Units:       decimal.Zero,
		Amount:      amount,
		Folio:       e.folio,
		ISIN:        e.isin,
		Segregated:  e.segregated || m.Has(MarkerSegregated),
	})
}

// applySignPolicy enforces the unit-delta sign each type implies.
func applySignPolicy(txType models.TransactionType, units decimal.Decimal) decimal.Decimal {
	switch {
	case chargeTypes[txType]:
		return decimal.Zero
	case outflowTypes[txType] && units.IsPositive():
		return units.Neg()
	case txType == models.TxDividendReinvestment && units.IsNegative():
		// Reinvested dividends issue new units; the payout wording on the
		// row must not turn them into an outflow.
		return units.Neg()
	}
	return units
}

func (e *transactionsExtractor) dropRow(line string, err error) {
	e.issues = append(e.issues, models.ValidationIssue{
		Severity: models.SeverityWarning,
		Category: models.CategoryBadRow,
		Message:  fmt.Sprintf("dropped transaction row: %v", err),
		Ref:      strings.TrimSpace(line),
	})
}
