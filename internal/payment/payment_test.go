package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
)

func testCreator(t *testing.T, key string, handler http.HandlerFunc) *StripeCreator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().Payment
	cfg.StripeSecretKey = key
	return newStripeCreator(cfg, zerolog.Nop(), &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
}

func TestAmount(t *testing.T) {
	s := testCreator(t, "sk_test_123", nil)

	tests := []struct {
		documents int
		expected  int64
	}{
		{1, 200},
		{3, 600},
		{0, 200},
		{-2, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.Amount(tt.documents), "documents=%d", tt.documents)
	}
}

func TestCreateIntent(t *testing.T) {
	var form map[string]string
	s := testCreator(t, "sk_test_123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"amount":    r.PostForm.Get("amount"),
			"currency":  r.PostForm.Get("currency"),
			"automatic": r.PostForm.Get("automatic_payment_methods[enabled]"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":400,"currency":"usd","client_secret":"pi_123_secret_abc"}`))
	})

	secret, err := s.CreateIntent(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "pi_123_secret_abc", secret)
	assert.Equal(t, map[string]string{"amount": "400", "currency": "usd", "automatic": "true"}, form)
}

func TestCreateIntent_StripeError(t *testing.T) {
	s := testCreator(t, "sk_test_123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Amount must be at least 50 cents"}}`))
	})

	_, err := s.CreateIntent(context.Background(), 1)
	assert.ErrorContains(t, err, "creating payment intent")
}

func TestCreateIntent_NotConfigured(t *testing.T) {
	s := testCreator(t, "", nil)

	_, err := s.CreateIntent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
