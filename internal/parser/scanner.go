package parser

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

type scanState int

const (
	stateInactive scanState = iota
	stateActive
	// stateAccumulating means a multi-line transaction is pending.
	stateAccumulating
)

func (s scanState) String() string {
	switch s {
	case stateInactive:
		return "inactive"
	case stateActive:
		return "active"
	case stateAccumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// scanner walks the lines of one document in order. It is used for a single
// parse and then discarded.
type scanner struct {
	layout *layout
	today  time.Time
	log    zerolog.Logger

	state   scanState
	pending *draft

	page     int
	line     int
	pageDone bool

	records  []models.Transaction
	warnings []models.LineWarning
}

func newScanner(l *layout, today time.Time, log zerolog.Logger) *scanner {
	return &scanner{layout: l, today: today, log: log}
}

// startPage resets per-page bookkeeping. A pending transaction survives the
// page break.
func (s *scanner) startPage(page int) {
	s.page = page
	s.line = 0
	s.pageDone = false
	if s.layout.resetEachPage && s.state == stateActive {
		s.state = stateInactive
	}
}

// endPage stops the current page; remaining lines are ignored.
func (s *scanner) endPage() {
	s.pageDone = true
}

func (s *scanner) feed(raw string) {
	s.line++
	if s.pageDone {
		return
	}
	line := strings.TrimSpace(raw)

	switch s.layout.classify(line, s.state != stateInactive) {
	case lineEntry:
		if s.state == stateInactive {
			s.state = stateActive
		}
	case lineExit:
		s.flush()
		s.state = stateInactive
		s.endPage()
	case lineCandidate:
		s.candidate(line)
	}
}

func (s *scanner) candidate(line string) {
	d, ok := s.layout.match(line, s.today)
	if ok {
		d.page, d.line, d.text = s.page, s.line, line
		if s.layout.extend == nil {
			s.emit(d)
			return
		}
		s.flush()
		if d.warning != "" {
			s.warn(d.page, d.line, line, d.warning)
		}
		s.pending = &d
		s.state = stateAccumulating
		return
	}

	if s.state == stateAccumulating {
		if w := s.layout.extend(s.pending, line); w != "" {
			s.warn(s.page, s.line, line, w)
		}
		return
	}

	s.log.Debug().Int("page", s.page).Int("line", s.line).Str("text", line).Msg("no transaction match")
	s.warnings = append(s.warnings, models.LineWarning{Page: s.page, Line: s.line, Text: line, Reason: "no match"})
}

// flush finalizes the pending multi-line transaction, if any.
func (s *scanner) flush() {
	if s.pending == nil {
		return
	}
	d := *s.pending
	s.pending = nil
	if s.state == stateAccumulating {
		s.state = stateActive
	}
	s.emit(d)
}

func (s *scanner) emit(d draft) {
	if d.err != nil {
		s.warn(d.page, d.line, d.text, d.err.Error())
		return
	}
	if !d.hasAmount {
		s.warn(d.page, d.line, d.text, "no amount")
		return
	}
	desc := strings.TrimSpace(d.description)
	if desc == "" {
		s.warn(d.page, d.line, d.text, "empty description")
		return
	}
	if s.layout.exclude != nil && s.layout.exclude(desc) {
		s.log.Debug().Int("page", d.page).Int("line", d.line).Str("description", desc).Msg("transaction excluded")
		return
	}
	s.records = append(s.records, models.NewTransaction(d.date, desc, d.amount, s.layout.issuer))
}

func (s *scanner) warn(page, line int, text, reason string) {
	s.log.Warn().Int("page", page).Int("line", line).Str("text", text).Str("reason", reason).Msg("line skipped")
	s.warnings = append(s.warnings, models.LineWarning{Page: page, Line: line, Text: text, Reason: reason})
}

// finish flushes whatever is still pending at the end of the document.
func (s *scanner) finish() {
	s.flush()
}
