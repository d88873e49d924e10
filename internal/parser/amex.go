package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// American Express statements wrap long transactions over several lines.
// A transaction starts with its date and the amount may only show up on a
// later line:
//
//	Card Ending 1-23456
//	01/05/24*  AMAZON MARKETPLACE
//	AMZN.COM/BILL WA
//	MERCHANDISE  $45.67
//	Fees
var (
	amexDatePrefix     = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2,4})\*?\s+(.*)`)
	amexTrailingAmount = regexp.MustCompile(`(-?\$?-?[\d,]+\.\d{2})[^\d]*$`)
	amexAmountJunk     = regexp.MustCompile(`[^\d.\-,]`)
)

const amexAutopay = "AUTOPAY PAYMENT RECEIVED"

var amexLayout = &layout{
	issuer:    models.IssuerAmex,
	skipPages: 2,
	entry:     []string{"Card Ending"},
	exit:      []string{"Fees"},
	match:     matchAmexLine,
	extend:    extendAmexLine,
	exclude:   isAmexRepayment,
}

// matchAmexLine starts a transaction on a date-prefixed line. An unreadable
// date still starts the transaction so that its continuation lines are not
// merged into the previous one.
func matchAmexLine(line string, today time.Time) (draft, bool) {
	m := amexDatePrefix.FindStringSubmatch(line)
	if m == nil {
		return draft{}, false
	}

	var d draft
	date, err := parseAmexDate(m[1], today)
	if err != nil {
		d.err = fmt.Errorf("parsing date %q: %w", m[1], err)
	}
	d.date = date
	d.description, d.amount, d.hasAmount, d.warning = splitTrailingAmount(m[2])
	return d, true
}

// extendAmexLine appends a continuation line to the pending transaction. A
// readable trailing amount replaces the pending one.
func extendAmexLine(d *draft, line string) string {
	rest, amount, found, warning := splitTrailingAmount(line)
	if found && warning == "" {
		d.amount, d.hasAmount = amount, true
	}
	if d.description == "" {
		d.description = rest
	} else {
		d.description += " " + rest
	}
	if warning != "" {
		return warning + ", keeping previous amount"
	}
	return ""
}

// splitTrailingAmount separates the last monetary amount of text from what
// precedes it. An amount token that cannot be read becomes zero.
func splitTrailingAmount(text string) (rest string, amount decimal.Decimal, found bool, warning string) {
	loc := amexTrailingAmount.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), decimal.Zero, false, ""
	}

	token := amexAmountJunk.ReplaceAllString(text[loc[2]:loc[3]], "")
	amount, err := parseAmount(token)
	if err != nil {
		amount = decimal.Zero
		warning = fmt.Sprintf("amount %q unreadable", token)
	}
	return strings.TrimSpace(text[:loc[0]]), amount, true, warning
}

func parseAmexDate(s string, today time.Time) (time.Time, error) {
	d, err := time.Parse("01/02/06", s)
	if err != nil {
		d, err = time.Parse("01/02/2006", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return notAfter(d, today)
}

func isAmexRepayment(desc string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(desc)), amexAutopay)
}
