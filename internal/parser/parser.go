package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fundlens/cas-parser/internal/models"
	"github.com/fundlens/cas-parser/internal/validator"
)

// ErrUnrecognizedDocument is returned when the section detector never
// leaves its initial state: the input is not a CAS statement layout this
// engine understands. It is a structural failure, distinct from an
// empty-but-valid statement.
var ErrUnrecognizedDocument = errors.New("document not recognized as a CAS statement")

// CASParser converts extracted page text into a validated statement.
// A parser value is stateless; each Parse call builds its own working
// set, so concurrent parses of different documents are safe.
type CASParser struct{}

// New returns a CAS statement parser.
func New() *CASParser {
	return &CASParser{}
}

// Parse sweeps the page-text stream once: every line is classified, the
// section FSM advances, and the extractor for the active section consumes
// the line. The assembled statement is validated before being returned;
// row-level problems surface in the validation report, only structural
// failures surface as errors.
func (p *CASParser) Parse(pages []string) (*models.CASStatement, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("empty page stream: %w", ErrUnrecognizedDocument)
	}

	detector := NewSectionDetector()
	investor := newInvestorExtractor()
	holdings := newHoldingsExtractor()
	transactions := newTransactionsExtractor()

	sawContent := false
	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			line := normalizeLine(raw)
			if line == "" {
				continue
			}
			sawContent = true

			markers := Classify(line)
			state := detector.Advance(markers)

			switch state {
			case StateInvestorInfo:
				investor.consume(line, markers)
			case StateHoldings:
				holdings.consume(line, markers)
			case StateTransactions:
				transactions.consume(line, markers)
			case StateEnd:
				// Trailer lines carry no statement data.
			}
		}
	}

	if !sawContent || detector.State() == StateInitial {
		return nil, ErrUnrecognizedDocument
	}

	statement := &models.CASStatement{
		Investor:      investor.investor,
		StatementDate: investor.statementDate,
		Holdings:      holdings.holdings,
		Transactions:  transactions.transactions,
	}
	if statement.Holdings == nil {
		statement.Holdings = []models.Holding{}
	}
	if statement.Transactions == nil {
		statement.Transactions = []models.Transaction{}
	}

	report := models.NewValidationReport()
	for _, issue := range holdings.issues {
		report.Add(issue.Severity, issue.Category, issue.Message, issue.Ref)
	}
	for _, issue := range transactions.issues {
		report.Add(issue.Severity, issue.Category, issue.Message, issue.Ref)
	}
	report.Merge(validator.Validate(statement))
	statement.Validation = report

	return statement, nil
}

// Parse is a convenience wrapper for one-shot use.
func Parse(pages []string) (*models.CASStatement, error) {
	return New().Parse(pages)
}
