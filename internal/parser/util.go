package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundlens/cas-parser/internal/models"
)

var (
	folioValue   = regexp.MustCompile(`(?i)folio\s*(?:no\.?|number)?\s*:?\s*([A-Z0-9]+(?:\s*/\s*[A-Z0-9]+)*)`)
	isinLabelled = regexp.MustCompile(`ISIN\s*:\s*(INF[A-Z0-9]{9})`)
	panLabelled  = regexp.MustCompile(`(?i)PAN\s*:\s*([A-Z]{5}[0-9]{4}[A-Z])`)
	schemeCode   = regexp.MustCompile(`^([A-Z0-9]{2,10})-(.+)$`)
	periodRange  = regexp.MustCompile(`(\d{2}-[A-Za-z]{3}-\d{4})\s*[Tt]o\s*(\d{2}-[A-Za-z]{3}-\d{4})`)
	registrarTag = regexp.MustCompile(`(?i)registrar\s*:.*`)
)

// normalizeLine cleans up common PDF extraction artifacts.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, " ", " ")
	line = strings.ReplaceAll(line, "​", "")
	line = strings.ReplaceAll(line, "₹", "") // rupee sign
	line = strings.ReplaceAll(line, "\t", " ")
	return strings.TrimSpace(line)
}

// parseDecimal converts a statement number like "54,972.00", "-5,000.000"
// or "(1,234.56)" to an exact decimal. Parenthesized values are negative.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "INR")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty numeric field")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed numeric field %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// decimalPlaces returns the number of digits after the point in the raw
// token. CAS columns are distinguishable by shape: units carry 3-4 places,
// amounts carry 2.
func decimalPlaces(raw string) int {
	raw = strings.Trim(raw, "()")
	i := strings.LastIndex(raw, ".")
	if i < 0 {
		return 0
	}
	return len(raw) - i - 1
}

// isNumericToken reports whether the whole field is one numeric column
// value, sign and parens included. "Rs.0.50" or "0.50%" is not: the
// extra characters mark it as description text, not a column.
func isNumericToken(tok string) bool {
	return decimalShape.FindString(tok) == tok
}

// parseStatementDate parses the dd-Mon-yyyy format CAS documents use.
func parseStatementDate(s string) (models.Date, error) {
	t, err := time.Parse("02-Jan-2006", s)
	if err != nil {
		return models.Date{}, err
	}
	return models.Date{Time: t}, nil
}

// extractFolio returns the folio number from a "Folio No : X" line, or "".
func extractFolio(line string) string {
	m := folioValue.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "")
}

// extractISIN returns the first ISIN on the line, preferring the
// labelled "ISIN : INF..." form, or "".
func extractISIN(line string) string {
	if m := isinLabelled.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := isinShape.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// stripSchemeCode removes the registrar scheme-code prefix (e.g.
// "HINSPT-") that some layouts prepend to the scheme name.
func stripSchemeCode(name string) string {
	if m := schemeCode.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[2])
	}
	return name
}

// cleanSchemeName drops identifiers and numeric noise from a candidate
// scheme-name fragment and collapses whitespace.
func cleanSchemeName(line string) string {
	s := isinLabelled.ReplaceAllString(line, "")
	s = isinShape.ReplaceAllString(s, "")
	s = folioValue.ReplaceAllString(s, "")
	s = registrarTag.ReplaceAllString(s, "")
	s = decimalShape.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " -:–")
	return s
}
