package extractor

import (
	"errors"
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

// ErrNoText is returned when a PDF has pages but none of them yields
// readable text, usually because the statement is a scan.
var ErrNoText = errors.New("no readable text in PDF")

// ExtractText reads a PDF file and returns the text of each page, one entry
// per page in page order. A page that cannot be read is returned as an
// empty string so that page numbers stay meaningful. A PDF without pages
// yields an empty slice.
//
// The ledongthuc/pdf library is tried first; if it cannot produce readable
// text the external pdftotext command (poppler-utils) is used.
func ExtractText(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && (len(pages) == 0 || isReadableText(pages)) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", filePath, libErr)
	}
	return nil, ErrNoText
}

// ExtractBytes writes an uploaded PDF to a temporary file, extracts its
// pages and removes the file again on every path.
func ExtractBytes(data []byte) ([]string, error) {
	f, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	return ExtractText(f.Name())
}

// textQuality returns the ratio of plain ASCII characters (letters, digits,
// whitespace, common punctuation) to all characters. Identity-encoded fonts
// decode to accented garbage, which unicode.IsLetter would accept.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
				unicode.IsSpace(r) || unicode.IsPunct(r) || strings.ContainsRune("$%&*+=<>|", r)) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText reports whether the pages hold some text and most of it is
// readable.
func isReadableText(pages []string) bool {
	return totalTextLen(pages) > 0 && textQuality(pages) > 0.6
}

// extractWithPdftotext runs pdftotext page by page so that page boundaries
// survive.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages, err := pdfinfoPages(filePath)
	if err != nil {
		return nil, err
	}

	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, filePath, "-").Output()
		if err != nil {
			continue
		}
		pages[i-1] = strings.TrimSpace(string(out))
	}
	return pages, nil
}

func pdfinfoPages(filePath string) (int, error) {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo page count %q: %w", line, err)
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo reported no page count")
}

// extractWithLibrary uses ledongthuc/pdf. Row-grouped text is preferred;
// pages it cannot read fall back to coordinate-based reconstruction.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := r.NumPage()
	pages = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageByRow(page)
		if !isReadableText([]string{text}) {
			if alt := pageByContent(page); isReadableText([]string{alt}) {
				text = alt
			}
		}
		pages[i-1] = text
	}
	return pages, nil
}

// pageByRow uses GetTextByRow, which keeps the statement's line layout for
// well-structured PDFs.
func pageByRow(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		parts := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// pageByContent groups raw text objects by Y coordinate into rows and sorts
// each row by X.
func pageByContent(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	content := page.Content()
	if len(content.Text) == 0 {
		return ""
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
		y := int(math.Round(t.Y))
		rowMap[y] = append(rowMap[y], textItem{x: t.X, s: t.S})
	}

	// PDF Y grows upwards.
	ys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	var lines []string
	for _, y := range ys {
		items := rowMap[y]
		sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

		var sb strings.Builder
		var prevX float64
		for j, item := range items {
			if j > 0 && item.x-prevX > 15 {
				sb.WriteString("  ")
			}
			sb.WriteString(item.s)
			prevX = item.x
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
