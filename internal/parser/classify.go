package parser

import (
	"regexp"
	"strings"
)

// Marker is a semantic tag recognized on a single statement line. A line
// may carry several markers at once; the section FSM and the extractors
// decide what to do with the combination.
type Marker uint16

const (
	MarkerNone              Marker = 0
	MarkerInvestorInfo      Marker = 1 << iota // investor-info section header
	MarkerHoldingsHeader                       // holdings section header
	MarkerTransactionHeader                    // transaction section header
	MarkerEnd                                  // end-of-statement marker
	MarkerISIN                                 // line carries an ISIN
	MarkerPAN                                  // line carries a PAN
	MarkerDate                                 // line starts with a dd-Mon-yyyy date
	MarkerFolio                                // folio context line
	MarkerNumericRow                           // line carries numeric columns
	MarkerSegregated                           // segregated-portfolio keyword
	MarkerChargeRow                            // ***-fenced charge row
	MarkerContinuation                         // free text with no numeric payload
)

// Has reports whether m contains all markers in want.
func (m Marker) Has(want Marker) bool {
	return m&want == want
}

// Keyword markers match on normalized (whitespace-collapsed, lowercased)
// text so that re-flowed documents classify identically. The patterns come
// from the section headers CAS issuers actually print; none of them assume
// a fixed column.
type markerRule struct {
	marker Marker
	re     *regexp.Regexp
}

var markerRules = []markerRule{
	{MarkerInvestorInfo, regexp.MustCompile(`consolidated account statement`)},
	{MarkerInvestorInfo, regexp.MustCompile(`statement for the period`)},
	{MarkerInvestorInfo, regexp.MustCompile(`personal information`)},
	{MarkerInvestorInfo, regexp.MustCompile(`investor details`)},
	{MarkerInvestorInfo, regexp.MustCompile(`account holder details`)},

	{MarkerHoldingsHeader, regexp.MustCompile(`portfolio summary`)},
	{MarkerHoldingsHeader, regexp.MustCompile(`summary of mutual fund`)},
	{MarkerHoldingsHeader, regexp.MustCompile(`mutual fund.*summary`)},
	{MarkerHoldingsHeader, regexp.MustCompile(`scheme name.*isin`)},
	{MarkerHoldingsHeader, regexp.MustCompile(`folio no.*units.*nav`)},
	{MarkerHoldingsHeader, regexp.MustCompile(`market value of.*holdings`)},

	{MarkerTransactionHeader, regexp.MustCompile(`transaction details`)},
	{MarkerTransactionHeader, regexp.MustCompile(`statement of transactions`)},
	{MarkerTransactionHeader, regexp.MustCompile(`transaction statement`)},
	{MarkerTransactionHeader, regexp.MustCompile(`details of transactions`)},
	{MarkerTransactionHeader, regexp.MustCompile(`transaction history`)},

	{MarkerEnd, regexp.MustCompile(`this is a computer generated`)},
	{MarkerEnd, regexp.MustCompile(`end of statement`)},
	{MarkerEnd, regexp.MustCompile(`statement generated on`)},

	{MarkerSegregated, regexp.MustCompile(`segregated`)},
	{MarkerSegregated, regexp.MustCompile(`seg\.\s*portfolio`)},

	{MarkerFolio, regexp.MustCompile(`folio\s*(?:no\.?|number)?\s*:`)},
}

// Shape patterns match on the raw (trimmed but case-preserved) line. ISIN
// and PAN are uppercase identifiers; the *** fence is a structural symbol.
var (
	isinShape    = regexp.MustCompile(`\b(INF[A-Z0-9]{9})\b`)
	panShape     = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	leadingDate  = regexp.MustCompile(`^(\d{2}-(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)-\d{4})\b`)
	chargeFence  = regexp.MustCompile(`\*\*\*\s*(.+?)\s*\*\*\*`)
	decimalShape = regexp.MustCompile(`\(?-?\d{1,3}(?:,\d{3})*\.\d{2,4}\)?`)
)

// normalizeText collapses whitespace and lowercases for keyword matching.
func normalizeText(line string) string {
	return strings.ToLower(strings.Join(strings.Fields(line), " "))
}

// Classify returns every marker the line matches. Rules are independent
// and order-insensitive: the result does not depend on evaluation order.
func Classify(line string) Marker {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return MarkerNone
	}
	norm := normalizeText(trimmed)

	var m Marker
	for _, rule := range markerRules {
		if rule.re.MatchString(norm) {
			m |= rule.marker
		}
	}

	if isinShape.MatchString(trimmed) {
		m |= MarkerISIN
	}
	if panShape.MatchString(trimmed) {
		m |= MarkerPAN
	}
	if leadingDate.MatchString(trimmed) {
		m |= MarkerDate
	}
	if chargeFence.MatchString(trimmed) {
		m |= MarkerChargeRow
	}
	if len(decimalShape.FindAllString(trimmed, -1)) >= 3 {
		m |= MarkerNumericRow
	}

	// A line with no numeric column, no date, and no ISIN is candidate
	// continuation text (a wrapped scheme name or description).
	if !m.Has(MarkerNumericRow) && !m.Has(MarkerDate) && !m.Has(MarkerISIN) &&
		!m.Has(MarkerHoldingsHeader) && !m.Has(MarkerTransactionHeader) &&
		!m.Has(MarkerEnd) && !m.Has(MarkerFolio) {
		m |= MarkerContinuation
	}

	return m
}
