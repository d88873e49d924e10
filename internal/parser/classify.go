package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// layout describes one issuer's statement: where its transaction section
// starts and stops, which lines are column headers, and how a transaction
// line is read.
type layout struct {
	issuer    models.Issuer
	skipPages int

	// foldCase compares markers against the lower-cased line; markers must
	// then be written in lower case.
	foldCase bool
	// enterWhileActive lets an entry marker line be consumed even when the
	// section is already active.
	enterWhileActive bool
	// resetEachPage deactivates the section at the top of every page.
	resetEachPage bool

	entry  []string
	noise  []string
	exit   []string
	header []string

	// match reads a transaction line. It reports false when the line does
	// not have the issuer's shape; coercion failures are returned in the
	// draft instead.
	match func(line string, today time.Time) (draft, bool)
	// extend, when set, makes the layout multi-line: a non-matching line
	// continues the pending transaction.
	extend func(d *draft, line string) (warning string)
	// exclude drops a finished transaction by description.
	exclude func(description string) bool
}

// draft is a transaction under construction.
type draft struct {
	date        time.Time
	description string
	amount      decimal.Decimal
	hasAmount   bool

	// err is a coercion failure that drops the transaction.
	err error
	// warning is a coercion problem that was worked around.
	warning string

	page, line int
	text       string
}

type lineKind int

const (
	lineOutside lineKind = iota
	lineEntry
	lineNoise
	lineExit
	lineHeader
	lineCandidate
)

func (k lineKind) String() string {
	switch k {
	case lineOutside:
		return "outside"
	case lineEntry:
		return "entry"
	case lineNoise:
		return "noise"
	case lineExit:
		return "exit"
	case lineHeader:
		return "header"
	case lineCandidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// classify decides what a trimmed line is, given whether the transaction
// section is currently active.
func (l *layout) classify(line string, active bool) lineKind {
	probe := line
	if l.foldCase {
		probe = strings.ToLower(line)
	}

	if (l.enterWhileActive || !active) && containsAny(probe, l.entry) {
		return lineEntry
	}
	if containsAny(probe, l.noise) {
		return lineNoise
	}
	if !active {
		return lineOutside
	}
	if containsAny(probe, l.exit) {
		return lineExit
	}
	if line == "" || containsAny(probe, l.header) {
		return lineHeader
	}
	return lineCandidate
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
