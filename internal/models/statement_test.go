package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.March, 31)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-31"` {
		t.Errorf("got %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip: got %v, want %v", back, d)
	}
}

func TestStatementJSON(t *testing.T) {
	date := NewDate(2024, time.March, 31)
	s := &CASStatement{
		Investor:      Investor{Name: "JOHN MICHAEL DOE", PAN: "ABCDE1234F"},
		StatementDate: &date,
		Holdings: []Holding{{
			SchemeName:   "HDFC Flexi Cap Fund",
			ISIN:         "INF179K01YV8",
			Folio:        "12345678/90",
			Units:        decimal.RequireFromString("61.979"),
			NAV:          decimal.RequireFromString("44.65"),
			CurrentValue: decimal.RequireFromString("2767.36"),
		}},
		Transactions: []Transaction{{
			Date:        NewDate(2024, time.January, 1),
			Type:        TxSIP,
			Description: "SIP Purchase",
			Units:       decimal.RequireFromString("111.979"),
			Amount:      decimal.RequireFromString("5000"),
			Folio:       "12345678/90",
			ISIN:        "INF179K01YV8",
		}},
		Validation: NewValidationReport(),
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)

	// Decimals serialize as exact strings, never binary floats.
	for _, want := range []string{
		`"units":"61.979"`,
		`"nav":"44.65"`,
		`"current_value":"2767.36"`,
		`"date":"2024-01-01"`,
		`"statement_date":"2024-03-31"`,
		`"type":"sip"`,
		`"is_valid":true`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}

	var back CASStatement
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Holdings[0].Units.Equal(s.Holdings[0].Units) {
		t.Errorf("units round trip: got %s", back.Holdings[0].Units)
	}
	if back.Transactions[0].Type != TxSIP {
		t.Errorf("type round trip: got %s", back.Transactions[0].Type)
	}
}

func TestValidationReport(t *testing.T) {
	r := NewValidationReport()
	if !r.IsValid {
		t.Error("empty report must be valid")
	}
	if r.Issues == nil {
		t.Error("issues must marshal as [], not null")
	}

	r.Add(SeverityWarning, CategoryUnitBalance, "drift", "INF179K01YV8")
	if !r.IsValid {
		t.Error("warnings must not clear validity")
	}

	r.Add(SeverityError, CategoryBadISIN, "bad identifier", "X")
	if r.IsValid {
		t.Error("errors must clear validity")
	}

	if got := len(r.Errors()); got != 1 {
		t.Errorf("errors: got %d, want 1", got)
	}
	if got := len(r.Warnings()); got != 1 {
		t.Errorf("warnings: got %d, want 1", got)
	}
}

func TestValidationReportMerge(t *testing.T) {
	a := NewValidationReport()
	a.Add(SeverityWarning, CategoryConsistency, "minor", "")

	b := NewValidationReport()
	b.Add(SeverityError, CategoryBadPAN, "bad pan", "investor")

	a.Merge(b)
	if a.IsValid {
		t.Error("merging an invalid report must clear validity")
	}
	if got := len(a.Issues); got != 2 {
		t.Errorf("issues: got %d, want 2", got)
	}
}

func TestStatementLookups(t *testing.T) {
	s := &CASStatement{
		Holdings: []Holding{
			{SchemeName: "A", Folio: "111/22", ISIN: "INF179K01YV8"},
			{SchemeName: "B", Folio: "999/88", ISIN: "INF846K01131"},
		},
		Transactions: []Transaction{
			{ISIN: "INF179K01YV8"},
			{ISIN: "INF846K01131"},
			{ISIN: "INF179K01YV8"},
		},
	}

	if got := len(s.HoldingsForFolio("111/22")); got != 1 {
		t.Errorf("holdings for folio: got %d, want 1", got)
	}
	if got := len(s.TransactionsForISIN("INF179K01YV8")); got != 2 {
		t.Errorf("transactions for isin: got %d, want 2", got)
	}
	if got := len(s.TransactionsForISIN("INF000000000")); got != 0 {
		t.Errorf("transactions for unknown isin: got %d, want 0", got)
	}
}
