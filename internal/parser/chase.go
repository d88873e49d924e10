package parser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// Chase statements put account activity after two summary pages:
//
//	ACCOUNT ACTIVITY
//	Date of Transaction  Merchant Name or Transaction Description  $ Amount
//	PAYMENTS AND OTHER CREDITS
//	01/05  AUTOMATIC PAYMENT - THANK YOU  -1,234.56
//	PURCHASE
//	03/14  STARBUCKS NY  4.50
//	Totals Year-to-Date
//
// Dates are MM/DD without a year.
var chaseTxnPattern = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.+?)\s+(-?\$?[\d,]*\.\d{2})$`)

const chaseDateLayout = "01/02"

var chaseLayout = &layout{
	issuer:           models.IssuerChase,
	skipPages:        2,
	foldCase:         true,
	enterWhileActive: true,
	entry:            []string{"payments and other credits", "purchase"},
	noise:            []string{"account activity"},
	exit:             []string{"totals year-to-date", "interest charges"},
	header:           []string{"date of", "merchant name", "description", "amount"},
	match:            matchChaseLine,
}

func matchChaseLine(line string, today time.Time) (draft, bool) {
	m := chaseTxnPattern.FindStringSubmatch(line)
	if m == nil {
		return draft{}, false
	}

	d := draft{description: m[2]}
	date, err := dateInYearOf(chaseDateLayout, m[1], today)
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
