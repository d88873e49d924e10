package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
)

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("payments are not configured: STRIPE_SECRET_KEY is not set")

// IntentCreator starts a payment for processing a number of statements and
// returns the client secret the browser confirms it with.
type IntentCreator interface {
	CreateIntent(ctx context.Context, documents int) (clientSecret string, err error)
}

// StripeCreator creates Stripe PaymentIntents priced per statement.
type StripeCreator struct {
	intents    paymentintent.Client
	priceCents int64
	currency   string
	log        zerolog.Logger
}

// NewStripeCreator creates a StripeCreator for the live Stripe API.
func NewStripeCreator(cfg config.PaymentConfig, log zerolog.Logger) *StripeCreator {
	return newStripeCreator(cfg, log, &stripe.BackendConfig{})
}

func newStripeCreator(cfg config.PaymentConfig, log zerolog.Logger, backendCfg *stripe.BackendConfig) *StripeCreator {
	log = log.With().Str("component", "payment").Logger()
	backendCfg.LeveledLogger = stripeLogger{log: log}
	return &StripeCreator{
		intents: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.StripeSecretKey,
		},
		priceCents: cfg.PricePerDocumentCents,
		currency:   cfg.Currency,
		log:        log,
	}
}

// Amount returns the charge in the smallest currency unit. At least one
// statement is always charged.
func (s *StripeCreator) Amount(documents int) int64 {
	if documents < 1 {
		documents = 1
	}
	return int64(documents) * s.priceCents
}

func (s *StripeCreator) CreateIntent(ctx context.Context, documents int) (string, error) {
	if s.intents.Key == "" {
		return "", ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(s.Amount(documents)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := s.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("creating payment intent: %w", err)
	}
	s.log.Info().Str("payment_intent", pi.ID).Int64("amount", pi.Amount).Int("documents", documents).Msg("payment intent created")
	return pi.ClientSecret, nil
}

// stripeLogger routes Stripe's client logging into zerolog.
type stripeLogger struct {
	log zerolog.Logger
}

func (l stripeLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
func (l stripeLogger) Infof(format string, v ...interface{})  { l.log.Debug().Msgf(format, v...) }
func (l stripeLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l stripeLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }
