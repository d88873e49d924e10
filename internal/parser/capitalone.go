package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// Capital One statements open the transaction list with a "Transactions"
// heading on page three and close it with the fees/interest block:
//
//	Trans Date  Post Date  Description  Amount
//	Mar 14  Mar 15  H MARTNEW YORKNY  $8.33
//	Total Transactions for This Period  $8.33
var capitalOneTxnPattern = regexp.MustCompile(`^([A-Za-z]{3} \d{1,2})\s+(.+?)\s+\$?(-?[\d,]+\.\d{2})$`)

const (
	capitalOneDateLayout = "Jan 2"
	capitalOneAutopay    = "CAPITAL ONE AUTOPAY"
)

var capitalOneLayout = &layout{
	issuer:    models.IssuerCapitalOne,
	skipPages: 2,
	entry:     []string{"Transactions"},
	exit:      []string{"Fees", "Interest Charged", "Total Transactions for This Period"},
	header:    []string{"Trans Date", "Description", "Amount", "Post Date"},
	match:     matchCapitalOneLine,
	exclude:   isCapitalOneRepayment,
}

func matchCapitalOneLine(line string, today time.Time) (draft, bool) {
	m := capitalOneTxnPattern.FindStringSubmatch(line)
	if m == nil {
		return draft{}, false
	}

	d := draft{description: m[2]}
	date, err := dateInYearOf(capitalOneDateLayout, m[1], today)
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

// isCapitalOneRepayment reports card repayments, which are not spending.
func isCapitalOneRepayment(desc string) bool {
	return strings.Contains(strings.ToUpper(desc), capitalOneAutopay)
}
