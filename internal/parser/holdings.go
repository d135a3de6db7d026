package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fundlens/cas-parser/internal/models"
)

// holdingsExtractor assembles Holding records while the FSM reports the
// holdings section. Scheme names routinely wrap onto a following line
// with no numeric payload; those continuation lines are merged into the
// previous holding rather than opening a new one.
type holdingsExtractor struct {
	holdings []models.Holding
	issues   []models.ValidationIssue

	folio       string
	pendingName []string
	rowSeen     bool
}

func newHoldingsExtractor() *holdingsExtractor {
	return &holdingsExtractor{}
}

// consume handles one classified line from the holdings section.
func (e *holdingsExtractor) consume(line string, m Marker) {
	if m.Has(MarkerFolio) {
		if folio := extractFolio(line); folio != "" {
			if e.folio != "" && e.folio != folio {
				// New folio block: pending name fragments belong to the
				// old scheme, drop them.
				e.pendingName = nil
			}
			e.folio = folio
			e.rowSeen = false
		}
		// No return: the folio label may share the line with the scheme
		// header or the holding row itself.
	}

	if m.Has(MarkerISIN) && m.Has(MarkerNumericRow) {
		e.parseRow(line, m)
		return
	}

	if m.Has(MarkerISIN) {
		// Scheme header line without numeric columns: the name (and ISIN)
		// arrive here, the numbers on a later row. Keep the name pending.
		if name := cleanSchemeName(stripSchemeCode(line)); name != "" {
			e.pendingName = append(e.pendingName, name)
		}
		e.rowSeen = false
		return
	}

	if m.Has(MarkerContinuation) {
		e.continuation(line)
	}
}

// continuation merges a wrapped scheme-name line. If a holding row was
// already emitted it extends that holding's name (the page-break case);
// otherwise the text is buffered for the next row.
func (e *holdingsExtractor) continuation(line string) {
	name := cleanSchemeName(line)
	if len(name) < 4 {
		return
	}
	if e.rowSeen && len(e.holdings) > 0 {
		last := &e.holdings[len(e.holdings)-1]
		last.SchemeName = strings.Join([]string{last.SchemeName, name}, " ")
		return
	}
	e.pendingName = append(e.pendingName, name)
}

// parseRow assembles one Holding from a row-shaped line. A numeric field
// that fails to parse drops the whole row and records a bad_row issue
// referencing the raw line; it never becomes a silent zero.
func (e *holdingsExtractor) parseRow(line string, m Marker) {
	isin := extractISIN(line)

	folio := extractFolio(line)
	if folio == "" {
		folio = e.folio
	}

	units, nav, value, err := e.rowValues(line)
	if err != nil {
		e.issues = append(e.issues, models.ValidationIssue{
			Severity: models.SeverityWarning,
			Category: models.CategoryBadRow,
			Message:  fmt.Sprintf("dropped holding row: %v", err),
			Ref:      strings.TrimSpace(line),
		})
		e.rowSeen = true
		return
	}

	name := cleanSchemeName(stripSchemeCode(line))
	if name == "" && len(e.pendingName) > 0 {
		name = strings.Join(e.pendingName, " ")
	} else if len(e.pendingName) > 0 {
		name = strings.Join(append(e.pendingName, name), " ")
	}
	e.pendingName = nil

	e.holdings = append(e.holdings, models.Holding{
		SchemeName:   name,
		ISIN:         isin,
		Folio:        folio,
		Units:        units,
		NAV:          nav,
		CurrentValue: value,
		Segregated:   m.Has(MarkerSegregated),
	})
	e.rowSeen = true
}

// rowValues extracts units, NAV and current value from the numeric
// columns by shape: units carry 3-4 decimal places, NAV sits in a
// plausible per-unit range, the market value carries 2 places.
func (e *holdingsExtractor) rowValues(line string) (units, nav, value decimal.Decimal, err error) {
	tokens := decimalShape.FindAllString(line, -1)

	var haveUnits, haveNAV, haveValue bool
	navCeiling := decimal.NewFromInt(10000)
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	for _, tok := range tokens {
		d, perr := parseDecimal(tok)
		if perr != nil {
			return units, nav, value, perr
		}
		places := decimalPlaces(tok)

		switch {
		case !haveUnits && places >= 3:
			units, haveUnits = d, true
		case !haveNAV && places >= 2 && d.Cmp(one) >= 0 && d.Cmp(navCeiling) <= 0:
			nav, haveNAV = d, true
		case !haveValue && places == 2 && d.Cmp(hundred) > 0:
			value, haveValue = d, true
		}
	}

	if !haveUnits || !haveNAV {
		return units, nav, value, fmt.Errorf("row is missing units or NAV columns")
	}
	if !haveValue {
		// Statement omitted the value column; derive it so the validator
		// can still check the row against itself.
		value = units.Mul(nav)
	}
	return units, nav, value, nil
}
