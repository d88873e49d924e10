package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

const (
	// Uncategorized is used whenever no model answer is available.
	Uncategorized = "Uncategorized"
	// CardRepayment marks the card's own bill payment.
	CardRepayment = "Card Repayment"

	cardRepaymentText        = "AUTOMATIC PAYMENT - THANK YOU"
	cardRepaymentDescription = "Credit card bill payment"
)

// Result is a category and a readable summary for one transaction.
type Result struct {
	Category            string
	EnhancedDescription string
}

// Enhancer asks a language model to categorize a transaction description.
type Enhancer interface {
	Enhance(ctx context.Context, description string) (Result, error)
}

// NewEnhancer returns the Enhancer for the configured provider.
func NewEnhancer(ctx context.Context, cfg config.CategorizerConfig) (Enhancer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIEnhancer(cfg), nil
	case config.ProviderGemini:
		return NewGeminiEnhancer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported categorizer provider: %q", cfg.Provider)
	}
}

// Service categorizes transactions. It never fails: any problem with the
// model yields Uncategorized and the original description. Answers are
// cached per description and model calls are rate limited.
type Service struct {
	enhancer Enhancer
	cache    *cache.Cache
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewService wraps an Enhancer with caching and rate limiting.
func NewService(e Enhancer, cfg config.CategorizerConfig, log zerolog.Logger) *Service {
	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Service{
		enhancer: e,
		cache:    cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter:  rate.NewLimiter(limit, burst),
		log:      log.With().Str("component", "categorizer").Logger(),
	}
}

// Categorize returns the category and summary for one description.
func (s *Service) Categorize(ctx context.Context, description string) Result {
	key := strings.ToUpper(strings.TrimSpace(description))
	if key == cardRepaymentText {
		return Result{Category: CardRepayment, EnhancedDescription: cardRepaymentDescription}
	}

	if cached, ok := s.cache.Get(key); ok {
		return cached.(Result)
	}

	fallback := Result{Category: Uncategorized, EnhancedDescription: description}
	if err := s.limiter.Wait(ctx); err != nil {
		s.log.Warn().Err(err).Str("description", description).Msg("rate limiter wait failed")
		return fallback
	}

	res, err := s.enhancer.Enhance(ctx, description)
	if err != nil {
		s.log.Warn().Err(err).Str("description", description).Msg("categorization failed")
		return fallback
	}

	s.cache.Set(key, res, cache.DefaultExpiration)
	return res
}

// CategorizeAll fills Category and EnhancedDescription of every transaction
// in place, in order.
func (s *Service) CategorizeAll(ctx context.Context, txns []models.Transaction) {
	for i := range txns {
		res := s.Categorize(ctx, txns[i].Description)
		txns[i].Category = res.Category
		txns[i].EnhancedDescription = res.EnhancedDescription
	}
	s.log.Debug().Int("transactions", len(txns)).Int("cached", s.cache.ItemCount()).Msg("transactions categorized")
}
