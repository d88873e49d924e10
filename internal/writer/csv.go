package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// DateLayout is the date format used in exported files.
const DateLayout = "2006-01-02"

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, stmt *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, stmt)
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement) error {
	writer := csv.NewWriter(out)

	// Metadata rows
	if w.IncludeHeader {
		if stmt.Issuer != "" {
			writer.Write([]string{"# Card", stmt.Issuer.DisplayName()})
		}
		writer.Write([]string{"# Transactions", strconv.Itoa(len(stmt.Transactions))})
		if len(stmt.Warnings) > 0 {
			writer.Write([]string{"# Skipped Lines", strconv.Itoa(len(stmt.Warnings))})
		}
	}

	header := []string{"Date", "Description", "Amount", "Category", "Enhanced Description", "Card"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range stmt.Transactions {
		row := []string{
			txn.Date.Format(DateLayout),
			txn.Description,
			txn.Amount.StringFixed(2),
			txn.Category,
			txn.EnhancedDescription,
			txn.Issuer.DisplayName(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
