// Package extractor turns a CAS PDF into per-page plain text. The parser
// core consumes only the extracted text; everything about the binary
// document format, including decryption, stays behind this boundary.
package extractor

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a CAS PDF and returns the text content of each page.
// CAS documents are usually passphrase-protected; password may be empty
// for the unprotected ones. If the structured library cannot produce
// readable text, the external pdftotext command (poppler-utils) is tried
// as a last resort.
func ExtractText(filePath, password string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath, password)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath, password)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %v. Check the passphrase; the document may also be image-based or use font encodings that cannot be decoded", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from the PDF")
}

// commonWords that appear in virtually every CAS document. Extracted text
// containing none of them is garbage from a bad decode, not a statement.
var commonWords = []string{
	"mutual fund", "folio", "isin", "nav", "statement", "consolidated",
	"units", "scheme", "transaction", "balance", "market value",
	"purchase", "redemption", "pan",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of readable ASCII characters to total.
// Garbage from identity-encoded fonts scores low here even when the
// runes are technically letters.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"%&@#!?+=*", r) ||
				r == '₹' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText requires enough text, a high readable-character ratio,
// and at least one recognizable statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// extractWithLibrary uses ledongthuc/pdf, opening an encrypted reader
// when a passphrase is supplied. The library panics on some malformed
// documents, so the whole call is fenced.
func extractWithLibrary(filePath, password string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, openErr := os.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	st, statErr := f.Stat()
	if statErr != nil {
		return nil, statErr
	}

	var r *pdf.Reader
	if password != "" {
		r, err = pdf.NewReaderEncrypted(f, st.Size(), func() string { return password })
	} else {
		r, err = pdf.NewReader(f, st.Size())
	}
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Row-wise extraction preserves the tabular layout best.
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Fall back to coordinate-based row reconstruction.
	pages = extractByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	return pages, nil
}

// extractByRow joins each page's text rows top to bottom.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to reconstruct
// rows, then orders each row by X. Wide gaps become column separators.
func extractByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		// PDF Y runs bottom-to-top.
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractWithPdftotext shells out to poppler-utils for documents the Go
// library cannot handle.
func extractWithPdftotext(filePath, password string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	infoArgs := []string{filePath}
	if password != "" {
		infoArgs = append([]string{"-upw", password}, infoArgs...)
	}
	numPages := 1
	if out, err := exec.Command("pdfinfo", infoArgs...).Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				if n, perr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); perr == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		args := []string{"-layout", "-f", pageStr, "-l", pageStr}
		if password != "" {
			args = append(args, "-upw", password)
		}
		args = append(args, filePath, "-")
		out, err := exec.Command("pdftotext", args...).Output()
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(out))
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}
