package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

// Parser defines the interface for card statement parsers.
type Parser interface {
	// Parse takes raw text from PDF pages and returns the statement's transactions.
	Parse(pages []string) (*models.Statement, error)
	// IssuerName returns the human-readable card name.
	IssuerName() string
}

// ErrUnknownFormat is returned when no issuer signature is found on the
// first page.
var ErrUnknownFormat = errors.New("unknown statement format")

// UnknownFormatError carries the start of the first page for diagnostics.
type UnknownFormatError struct {
	Excerpt string
}

func (e *UnknownFormatError) Error() string { return ErrUnknownFormat.Error() }

func (e *UnknownFormatError) Is(target error) bool { return target == ErrUnknownFormat }

// Option configures a parser.
type Option func(*options)

type options struct {
	now func() time.Time
	log zerolog.Logger
}

// WithClock sets the clock used to infer statement years.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger that receives per-line diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New returns the appropriate parser for the given issuer.
func New(issuer models.Issuer, opts ...Option) (Parser, error) {
	var l *layout
	switch issuer {
	case models.IssuerChase:
		l = chaseLayout
	case models.IssuerApple:
		l = appleLayout
	case models.IssuerCapitalOne:
		l = capitalOneLayout
	case models.IssuerAmex:
		l = amexLayout
	default:
		return nil, fmt.Errorf("unsupported issuer: %q", issuer)
	}

	o := options{now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &statementParser{layout: l, now: o.now, log: o.log.With().Str("issuer", string(issuer)).Logger()}, nil
}

// signatures are checked in order; the first hit wins.
var signatures = []struct {
	issuer  models.Issuer
	markers []string
}{
	{models.IssuerChase, []string{"Chase"}},
	{models.IssuerApple, []string{"Apple Card"}},
	{models.IssuerCapitalOne, []string{"Capital One"}},
	{models.IssuerAmex, []string{"American Express", "americanexpress.com"}},
}

// Detect identifies the issuer from the text of a statement's first page.
func Detect(firstPage string) (models.Issuer, error) {
	for _, sig := range signatures {
		if containsAny(firstPage, sig.markers) {
			return sig.issuer, nil
		}
	}
	return "", &UnknownFormatError{Excerpt: excerpt(firstPage, 80)}
}

// ParseDocument detects the issuer from the first page and parses every page.
// A document without pages yields an empty statement.
func ParseDocument(pages []string, opts ...Option) (*models.Statement, error) {
	if len(pages) == 0 {
		return &models.Statement{}, nil
	}
	issuer, err := Detect(pages[0])
	if err != nil {
		return nil, err
	}
	p, err := New(issuer, opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(pages)
}

type statementParser struct {
	layout *layout
	now    func() time.Time
	log    zerolog.Logger
}

func (p *statementParser) IssuerName() string {
	return p.layout.issuer.DisplayName()
}

// Parse scans the pages after the issuer's cover pages. Documents no longer
// than the cover window are scanned whole.
func (p *statementParser) Parse(pages []string) (*models.Statement, error) {
	sc := newScanner(p.layout, dateOnly(p.now()), p.log)

	start := p.layout.skipPages
	if len(pages) <= start {
		start = 0
	}
	for i := start; i < len(pages); i++ {
		sc.startPage(i + 1)
		if strings.TrimSpace(pages[i]) == "" {
			p.log.Debug().Int("page", i+1).Msg("page has no text")
			continue
		}
		for _, line := range strings.Split(pages[i], "\n") {
			sc.feed(line)
		}
	}
	sc.finish()

	p.log.Info().
		Int("pages", len(pages)).
		Int("transactions", len(sc.records)).
		Int("warnings", len(sc.warnings)).
		Msg("statement parsed")

	return &models.Statement{
		Issuer:       p.layout.issuer,
		Transactions: sc.records,
		Warnings:     sc.warnings,
	}, nil
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
