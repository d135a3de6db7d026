package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fundlens/cas-parser/internal/api"
	"github.com/fundlens/cas-parser/internal/extractor"
	"github.com/fundlens/cas-parser/internal/models"
	"github.com/fundlens/cas-parser/internal/parser"
	"github.com/fundlens/cas-parser/internal/writer"
)

const version = "1.0.0"

func main() {
	outputFlag := flag.String("output", "", "Output JSON file path (defaults to stdout)")
	csvFlag := flag.String("csv", "", "Also write the transaction ledger to this CSV path")
	passwordFlag := flag.String("password", "", "Passphrase for encrypted statements")
	validateFlag := flag.Bool("validate-only", false, "Print only the validation report, no statement JSON")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of parsing a file")
	addrFlag := flag.String("addr", ":8080", "Listen address for -serve")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CAS Statement Parser

Converts a depository-issued Consolidated Account Statement (CAS) PDF
into a validated JSON record of holdings and transactions.

Usage:
  cas-parser [flags] <statement.pdf>
  cas-parser -serve [-addr :8080]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Parse and print JSON to stdout
  cas-parser statement.pdf

  # Encrypted statement, JSON to a file
  cas-parser -password=ABCDE1234F statement.pdf -output=statement.json

  # Validation report only
  cas-parser -validate-only statement.pdf

Exit status is 0 whenever the document was structurally parsed, even if
validation reported errors (validity is part of the output); non-zero
only when the document could not be read or recognized.
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("cas-parser v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		app := api.NewApp()
		fmt.Fprintf(os.Stderr, "cas-parser v%s listening on %s\n", version, *addrFlag)
		if err := app.Listen(*addrFlag); err != nil {
			fatalf("server failed: %v\n", err)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := processFile(flag.Arg(0), *passwordFlag, *outputFlag, *csvFlag, *validateFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func processFile(inputPath, password, outputPath, csvPath string, validateOnly bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	pages, err := extractor.ExtractText(inputPath, password)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Extracted text from %d page(s)\n", len(pages))

	statement, err := parser.Parse(pages)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Parsed %d holding(s), %d transaction(s)\n",
		len(statement.Holdings), len(statement.Transactions))

	printReport(statement.Validation)

	jw := &writer.JSONWriter{Indent: true}
	if validateOnly {
		if outputPath != "" {
			if err := jw.WriteReportToFile(outputPath, statement.Validation); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Output: %s\n", outputPath)
			return nil
		}
		return jw.WriteReport(os.Stdout, statement.Validation)
	}

	if outputPath != "" {
		if err := jw.WriteToFile(outputPath, statement); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Output: %s\n", outputPath)
	} else {
		if err := jw.Write(os.Stdout, statement); err != nil {
			return err
		}
	}

	if csvPath != "" {
		cw := &writer.CSVWriter{IncludeHeader: true}
		if err := cw.WriteToFile(csvPath, statement); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "CSV: %s\n", csvPath)
	}

	return nil
}

func printReport(report models.ValidationReport) {
	if report.IsValid {
		fmt.Fprintln(os.Stderr, "Validation: PASSED")
	} else {
		fmt.Fprintln(os.Stderr, "Validation: FAILED")
	}
	if errs := report.Errors(); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Errors:")
		for _, is := range errs {
			fmt.Fprintf(os.Stderr, "  - [%s] %s\n", is.Category, is.Message)
		}
	}
	if warns := report.Warnings(); len(warns) > 0 {
		fmt.Fprintln(os.Stderr, "Warnings:")
		for _, is := range warns {
			fmt.Fprintf(os.Stderr, "  - [%s] %s\n", is.Category, is.Message)
		}
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
