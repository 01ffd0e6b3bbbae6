package files

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText converts a downloaded file into the plain text handed to
// the answer model. The extraction strategy is selected by a
// case-sensitive match on the path's extension; anything that is not a
// .pdf or .csv (audio in particular) has no text path yet, so the
// caller gets a placeholder naming the saved file.
func ExtractText(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return pdfText(path)
	case strings.HasSuffix(path, ".csv"):
		return csvText(path)
	default:
		return fmt.Sprintf("File downloaded to: %s", path), nil
	}
}

// pdfText extracts all text from a PDF, one labelled section per page.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading pdf page %d: %w", i, err)
		}
		fmt.Fprintf(&b, "--- PDF Page %d ---\n%s\n\n", i, text)
	}
	return b.String(), nil
}

// csvText re-renders a CSV as one comma-joined record per line. The
// answer model only needs the values as readable text, not a table
// structure.
func csvText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parsing csv %s: %w", path, err)
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, strings.Join(rec, ", "))
	}
	return strings.Join(lines, "\n"), nil
}
