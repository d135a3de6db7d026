package parser

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fundlens/cas-parser/internal/models"
)

func TestClassifyTransaction(t *testing.T) {
	tests := []struct {
		description string
		expected    models.TransactionType
	}{
		{"Purchase", models.TxPurchase},
		{"Purchase - Systematic Investment Plan", models.TxSIP},
		{"SIP Purchase - Instalment 12", models.TxSIP},
		{"Redemption", models.TxRedemption},
		{"Redemption - Online", models.TxRedemption},
		{"Switch In - From HDFC Top 100 Fund", models.TxSwitchIn},
		{"Switched In from Liquid Fund", models.TxSwitchIn},
		{"Switch Out - To HDFC Liquid Fund", models.TxSwitchOut},
		{"STP In", models.TxSTPIn},
		{"STP Out", models.TxSTPOut},
		{"Systematic Transfer Plan In", models.TxSTPIn},
		{"Dividend Reinvestment @ Rs.0.50 per unit", models.TxDividendReinvestment},
		{"Div. Reinv.", models.TxDividendReinvestment},
		{"Dividend Payout @ Rs.0.50 per unit", models.TxDividendPayout},
		{"*** Stamp Duty ***", models.TxStampDuty},
		{"*** STT Paid ***", models.TxSTT},
		{"Exit Load", models.TxCharges},
		{"Creation of units - Segregated Portfolio", models.TxUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := ClassifyTransaction(tt.description); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestClassifyTransactionDeterministic(t *testing.T) {
	// The same description must always resolve to the same type; the
	// specific-first rule order keeps "switch in" from landing on the
	// generic purchase rules even when both phrases appear.
	desc := "Switch In - From Axis Liquid Fund (Purchase)"
	first := ClassifyTransaction(desc)
	for i := 0; i < 50; i++ {
		if got := ClassifyTransaction(desc); got != first {
			t.Fatalf("classification flapped: %s then %s", first, got)
		}
	}
	if first != models.TxSwitchIn {
		t.Errorf("got %s, want %s", first, models.TxSwitchIn)
	}
}

func feedTransactions(e *transactionsExtractor, lines []string) {
	for _, raw := range lines {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}
		e.consume(line, Classify(line))
	}
}

func TestTransactionsExtractorLedger(t *testing.T) {
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 12345678/90",
		"HDFC Flexi Cap Fund - Direct Growth - ISIN : INF179K01YV8",
		"01-Jan-2024 SIP Purchase 5,000.00 111.979 44.65 111.979",
		"15-Mar-2024 Redemption 2,264.20 (50.000) 45.28 61.979",
		"15-Mar-2024 ***STT Paid*** 0.02",
	})

	if len(e.transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(e.transactions))
	}

	sip := e.transactions[0]
	if sip.Type != models.TxSIP {
		t.Errorf("type: got %s", sip.Type)
	}
	if got := sip.Date.Format("2006-01-02"); got != "2024-01-01" {
		t.Errorf("date: got %s", got)
	}
	if !sip.Units.Equal(decimal.RequireFromString("111.979")) {
		t.Errorf("units: got %s", sip.Units)
	}
	if !sip.Amount.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("amount: got %s", sip.Amount)
	}
	if !sip.BalanceUnits.Equal(decimal.RequireFromString("111.979")) {
		t.Errorf("balance: got %s", sip.BalanceUnits)
	}
	if sip.Folio != "12345678/90" {
		t.Errorf("folio: got %q", sip.Folio)
	}
	if sip.ISIN != "INF179K01YV8" {
		t.Errorf("isin: got %q", sip.ISIN)
	}

	red := e.transactions[1]
	if red.Type != models.TxRedemption {
		t.Errorf("type: got %s", red.Type)
	}
	if !red.Units.Equal(decimal.RequireFromString("-50")) {
		t.Errorf("units: got %s", red.Units)
	}

	stt := e.transactions[2]
	if stt.Type != models.TxSTT {
		t.Errorf("type: got %s", stt.Type)
	}
	if !stt.Units.IsZero() {
		t.Errorf("charge row units: got %s, want 0", stt.Units)
	}
	if !stt.Amount.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("amount: got %s", stt.Amount)
	}
}

func TestTransactionsExtractorRateInDescription(t *testing.T) {
	// A per-unit rate printed inside the description must not shift the
	// numeric columns: only the trailing run of numeric fields is the row.
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		"02-Feb-2024 Dividend Reinvestment @ Rs.0.50 per unit 25.00 0.553 45.20 10.553",
	})

	if len(e.transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(e.transactions))
	}
	tx := e.transactions[0]
	if tx.Type != models.TxDividendReinvestment {
		t.Errorf("type: got %s", tx.Type)
	}
	if got := tx.Description; got != "Dividend Reinvestment @ Rs.0.50 per unit" {
		t.Errorf("description: got %q", got)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("25")) {
		t.Errorf("amount: got %s, want 25", tx.Amount)
	}
	if !tx.Units.Equal(decimal.RequireFromString("0.553")) {
		t.Errorf("units: got %s, want 0.553", tx.Units)
	}
	if !tx.BalanceUnits.Equal(decimal.RequireFromString("10.553")) {
		t.Errorf("balance: got %s, want 10.553", tx.BalanceUnits)
	}
}

func TestTransactionsExtractorSignPolicy(t *testing.T) {
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		// Redemption stated with an unsigned magnitude.
		"10-Feb-2024 Redemption 4,500.00 90.000 50.00 10.000",
		// Reinvested dividends issue units; a negative delta is a source
		// artifact and must come out positive.
		"11-Feb-2024 Dividend Reinvestment 25.00 (0.553) 45.20 10.553",
		// Charge row in regular column form with a stray units value.
		"12-Feb-2024 STT 0.02 5.000 45.20 10.553",
	})

	if len(e.transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(e.transactions))
	}
	if got := e.transactions[0].Units; !got.Equal(decimal.RequireFromString("-90")) {
		t.Errorf("redemption units: got %s, want -90", got)
	}
	if got := e.transactions[1].Units; !got.Equal(decimal.RequireFromString("0.553")) {
		t.Errorf("reinvestment units: got %s, want 0.553", got)
	}
	if got := e.transactions[2].Type; got != models.TxSTT {
		t.Errorf("charge type: got %s, want %s", got, models.TxSTT)
	}
	if got := e.transactions[2].Units; !got.IsZero() {
		t.Errorf("charge units artifact kept: got %s, want 0", got)
	}
}

func TestTransactionsExtractorSignFallback(t *testing.T) {
	// No keyword matches: the unit-delta sign decides the type.
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		"05-Apr-2024 Unit Allotment 1,000.00 20.000 50.00 20.000",
		"06-Apr-2024 Unit Extinguishment 500.00 (10.000) 50.00 10.000",
	})

	if len(e.transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(e.transactions))
	}
	if got := e.transactions[0].Type; got != models.TxPurchase {
		t.Errorf("positive delta: got %s, want %s", got, models.TxPurchase)
	}
	if got := e.transactions[1].Type; got != models.TxRedemption {
		t.Errorf("negative delta: got %s, want %s", got, models.TxRedemption)
	}
}

func TestTransactionsExtractorContinuationMerge(t *testing.T) {
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		"05-Apr-2024 Purchase 1,000.00 20.000 50.00 20.000",
		"Instalment No 3 of 12",
	})

	if len(e.transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(e.transactions))
	}
	want := "Purchase Instalment No 3 of 12"
	if got := e.transactions[0].Description; got != want {
		t.Errorf("description: got %q, want %q", got, want)
	}
}

func TestTransactionsExtractorFolioChangeResetsScheme(t *testing.T) {
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		"05-Apr-2024 Purchase 1,000.00 20.000 50.00 20.000",
		// New folio block without a scheme header yet: the old ISIN must
		// not leak onto the rows that follow.
		"Folio No : 999/88",
		"06-Apr-2024 Purchase 2,000.00 40.000 50.00 40.000",
	})

	if len(e.transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(e.transactions))
	}
	if got := e.transactions[1].Folio; got != "999/88" {
		t.Errorf("folio: got %q", got)
	}
	if got := e.transactions[1].ISIN; got != "" {
		t.Errorf("isin leaked across folio blocks: %q", got)
	}
}

func TestTransactionsExtractorInlineFolioSchemeHeader(t *testing.T) {
	// Folio label and scheme header on one line: both contexts land on
	// the rows that follow.
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22 Axis Bluechip Fund - ISIN : INF846K01131",
		"05-Apr-2024 Purchase 1,000.00 20.000 50.00 20.000",
	})

	if len(e.transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(e.transactions))
	}
	if got := e.transactions[0].Folio; got != "111/22" {
		t.Errorf("folio: got %q", got)
	}
	if got := e.transactions[0].ISIN; got != "INF846K01131" {
		t.Errorf("isin: got %q", got)
	}
}

func TestTransactionsExtractorDropsShortRow(t *testing.T) {
	e := newTransactionsExtractor()
	feedTransactions(e, []string{
		"Folio No : 111/22",
		"Axis Bluechip Fund - ISIN : INF846K01131",
		"05-Apr-2024 Purchase 1,000.00",
	})

	if len(e.transactions) != 0 {
		t.Fatalf("got %d transactions, want 0", len(e.transactions))
	}
	if len(e.issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(e.issues))
	}
	if e.issues[0].Category != models.CategoryBadRow {
		t.Errorf("category: got %s", e.issues[0].Category)
	}
}
