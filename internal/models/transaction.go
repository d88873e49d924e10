package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single credit card statement transaction.
type Transaction struct {
	Date                time.Time       `json:"date"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"` // charges positive, credits negative
	Category            string          `json:"category"`
	EnhancedDescription string          `json:"enhancedDescription,omitempty"`
	Issuer              Issuer          `json:"issuer"`
}

// Issuer represents supported card statement formats.
type Issuer string

const (
	IssuerChase      Issuer = "chase"
	IssuerApple      Issuer = "apple"
	IssuerCapitalOne Issuer = "capitalone"
	IssuerAmex       Issuer = "amex"
)

// Issuers lists every supported issuer in dispatch priority order.
var Issuers = []Issuer{IssuerChase, IssuerApple, IssuerCapitalOne, IssuerAmex}

// DisplayName returns the card label shown to users.
func (i Issuer) DisplayName() string {
	switch i {
	case IssuerChase:
		return "Chase"
	case IssuerApple:
		return "Apple Card"
	case IssuerCapitalOne:
		return "Capital One"
	case IssuerAmex:
		return "American Express"
	default:
		return string(i)
	}
}

// ParseIssuer maps a user-supplied name (CLI flag, query value) to an Issuer.
func ParseIssuer(name string) (Issuer, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chase":
		return IssuerChase, true
	case "apple", "applecard", "apple card":
		return IssuerApple, true
	case "capitalone", "capital one", "capone":
		return IssuerCapitalOne, true
	case "amex", "americanexpress", "american express":
		return IssuerAmex, true
	default:
		return "", false
	}
}

// LineWarning captures a line inside a transaction section that could not
// be turned into a record.
type LineWarning struct {
	Page   int    `json:"page"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Statement holds the result of one parse pass over a document.
type Statement struct {
	Issuer       Issuer
	Transactions []Transaction
	Warnings     []LineWarning
}

// NewTransaction builds the canonical record for a parsed line. The
// description is trimmed and internal whitespace collapsed; the category
// always starts empty.
func NewTransaction(date time.Time, description string, amount decimal.Decimal, issuer Issuer) Transaction {
	return Transaction{
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Description: strings.Join(strings.Fields(description), " "),
		Amount:      amount,
		Issuer:      issuer,
	}
}
