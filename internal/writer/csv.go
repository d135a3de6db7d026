package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fundlens/cas-parser/internal/models"
)

// CSVWriter writes the transaction ledger to CSV format for spreadsheet
// use. The JSON export remains the canonical interchange form.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the transaction CSV to a file at the given path.
func (w *CSVWriter) WriteToFile(path string, statement *models.CASStatement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, statement)
}

// Write writes the transaction ledger in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, statement *models.CASStatement) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	// Statement metadata as comment rows.
	if w.IncludeHeader {
		if statement.Investor.Name != "" {
			writer.Write([]string{"# Investor", statement.Investor.Name})
		}
		if statement.Investor.PAN != "" {
			writer.Write([]string{"# PAN", statement.Investor.PAN})
		}
		if statement.StatementDate != nil {
			writer.Write([]string{"# Statement Date", statement.StatementDate.Format("2006-01-02")})
		}
		writer.Write([]string{"# Valid", strconv.FormatBool(statement.Validation.IsValid)})
	}

	header := []string{"Date", "Type", "Description", "Units", "Amount", "Balance Units", "Folio", "ISIN", "Segregated"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range statement.Transactions {
		row := []string{
			txn.Date.Format("2006-01-02"),
			string(txn.Type),
			txn.Description,
			txn.Units.String(),
			txn.Amount.String(),
			txn.BalanceUnits.String(),
			txn.Folio,
			txn.ISIN,
			strconv.FormatBool(txn.Segregated),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}
