package categorizer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

type fakeEnhancer struct {
	mu      sync.Mutex
	calls   []string
	results map[string]Result
	err     error
}

func (f *fakeEnhancer) Enhance(_ context.Context, description string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, description)
	if f.err != nil {
		return Result{}, f.err
	}
	if r, ok := f.results[description]; ok {
		return r, nil
	}
	return Result{Category: "Other (Miscellaneous)", EnhancedDescription: description}, nil
}

func testService(e Enhancer) *Service {
	return NewService(e, config.Default().Categorizer, zerolog.Nop())
}

func TestCategorize_CardRepayment(t *testing.T) {
	fake := &fakeEnhancer{}
	svc := testService(fake)

	got := svc.Categorize(context.Background(), "  automatic payment - thank you ")

	assert.Equal(t, Result{Category: CardRepayment, EnhancedDescription: "Credit card bill payment"}, got)
	assert.Empty(t, fake.calls)
}

func TestCategorize_UsesEnhancerAndCaches(t *testing.T) {
	fake := &fakeEnhancer{results: map[string]Result{
		"STARBUCKS NY": {Category: "Food & Beverage", EnhancedDescription: "Starbucks, New York, coffee"},
	}}
	svc := testService(fake)
	ctx := context.Background()

	first := svc.Categorize(ctx, "STARBUCKS NY")
	second := svc.Categorize(ctx, "starbucks ny")

	assert.Equal(t, "Food & Beverage", first.Category)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"STARBUCKS NY"}, fake.calls)
}

func TestCategorize_FallbackOnError(t *testing.T) {
	fake := &fakeEnhancer{err: errors.New("rate limited upstream")}
	svc := testService(fake)

	got := svc.Categorize(context.Background(), "UBER TRIP")
	assert.Equal(t, Result{Category: Uncategorized, EnhancedDescription: "UBER TRIP"}, got)

	// failures are not cached
	svc.Categorize(context.Background(), "UBER TRIP")
	assert.Len(t, fake.calls, 2)
}

func TestCategorize_CanceledContext(t *testing.T) {
	fake := &fakeEnhancer{}
	cfg := config.Default().Categorizer
	cfg.RatePerSec = 0.001
	cfg.Burst = 1
	svc := NewService(fake, cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	// use up the only token
	svc.Categorize(ctx, "FIRST")
	cancel()

	got := svc.Categorize(ctx, "SECOND")
	assert.Equal(t, Uncategorized, got.Category)
	assert.Equal(t, []string{"FIRST"}, fake.calls)
}

func TestCategorizeAll(t *testing.T) {
	fake := &fakeEnhancer{results: map[string]Result{
		"WHOLEFDS MKT": {Category: "Groceries", EnhancedDescription: "Whole Foods, groceries"},
	}}
	svc := testService(fake)

	txns := []models.Transaction{
		{Description: "WHOLEFDS MKT", Amount: decimal.RequireFromString("87.12")},
		{Description: "AUTOMATIC PAYMENT - THANK YOU", Amount: decimal.RequireFromString("-500.00")},
	}
	svc.CategorizeAll(context.Background(), txns)

	assert.Equal(t, "Groceries", txns[0].Category)
	assert.Equal(t, "Whole Foods, groceries", txns[0].EnhancedDescription)
	assert.Equal(t, CardRepayment, txns[1].Category)
	assert.Equal(t, "87.12", txns[0].Amount.StringFixed(2))
}

func TestNewEnhancer(t *testing.T) {
	cfg := config.Default().Categorizer

	e, err := NewEnhancer(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEnhancer{}, e)

	cfg.Provider = config.ProviderGemini
	_, err = NewEnhancer(context.Background(), cfg)
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	cfg.Provider = "llama"
	_, err = NewEnhancer(context.Background(), cfg)
	assert.Error(t, err)
}
