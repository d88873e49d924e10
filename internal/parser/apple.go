package parser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// Apple Card statements list transactions from the second page on, under a
// "Transactions" heading repeated on every page. Each line carries the Daily
// Cash percentage and amount before the charge:
//
//	03/14/2024  APPLE.COM/BILL ONE APPLE PARK WAY  3%  $0.09  $2.99
var appleTxnPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+\d+%\s+\$[\d,.]+\s+(-?\$[\d,.]+)$`)

const appleDateLayout = "01/02/2006"

var appleLayout = &layout{
	issuer:           models.IssuerApple,
	skipPages:        1,
	enterWhileActive: true,
	resetEachPage:    true,
	entry:            []string{"Transactions"},
	header:           []string{"Date", "Description", "Amount", "Daily Cash"},
	match:            matchAppleLine,
}

func matchAppleLine(line string, today time.Time) (draft, bool) {
	m := appleTxnPattern.FindStringSubmatch(line)
	if m == nil {
		return draft{}, false
	}

	d := draft{description: m[2]}
	date, err := time.Parse(appleDateLayout, m[1])
	if err == nil {
		date, err = notAfter(date, today)
	}
	if err != nil {
		d.err = fmt.Errorf("parsing date %q: %w", m[1], err)
		return d, true
	}
	amount, err := parseAmount(m[3])
	if err != nil {
		d.err = err
		return d, true
	}

	d.date, d.amount, d.hasAmount = date, amount, true
	return d, true
}
