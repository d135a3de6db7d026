package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fundlens/cas-parser/internal/models"
)

// JSONWriter serializes a CAS statement to its canonical JSON document.
// Monetary and unit fields serialize as exact decimal strings, never
// binary floating-point, so downstream consumers round-trip losslessly.
type JSONWriter struct {
	Indent bool
}

// WriteToFile writes the statement JSON to the given path.
func (w *JSONWriter) WriteToFile(path string, statement *models.CASStatement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, statement)
}

// Write writes the statement JSON to the given writer.
func (w *JSONWriter) Write(out io.Writer, statement *models.CASStatement) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(statement); err != nil {
		return fmt.Errorf("failed to encode statement: %w", err)
	}
	return nil
}

// WriteReportToFile writes the validation report JSON to the given path.
func (w *JSONWriter) WriteReportToFile(path string, report models.ValidationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.WriteReport(f, report)
}

// WriteReport writes only the validation section, for validate-only mode.
func (w *JSONWriter) WriteReport(out io.Writer, report models.ValidationReport) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	return nil
}
