package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errEmptyAmount = errors.New("empty amount")

// parseAmount converts a string like "1,234.56", "-$4.50" or "($12.30)" to a
// signed decimal. Parentheses mark a credit, same as a leading minus.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space

	if s == "" || s == "-" {
		return decimal.Zero, errEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateInYearOf parses a date printed without a year (layout has no year
// component), assuming the year of today.
func dateInYearOf(layout, value string, today time.Time) (time.Time, error) {
	d, err := time.Parse(layout+" 2006", fmt.Sprintf("%s %d", value, today.Year()))
	if err != nil {
		return time.Time{}, err
	}
	return notAfter(d, today)
}

// notAfter moves a date that lies after today back by one year. Statements
// cover a past or current billing period, so a later date belongs to the
// previous year.
func notAfter(d, today time.Time) (time.Time, error) {
	d = dateOnly(d)
	if !d.After(dateOnly(today)) {
		return d, nil
	}
	prev := time.Date(d.Year()-1, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if prev.Month() != d.Month() {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", d.Day(), d.Month(), d.Year()-1)
	}
	return prev, nil
}
