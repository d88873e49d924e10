package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/card-statement-categorizer/internal/models"
)

const chaseStatement = `Chase Sapphire Preferred
ACCOUNT ACTIVITY
Purchase
Date of Transaction Merchant Name or Transaction Description $ Amount
03/14 STARBUCKS NY 4.50
03/15 UBER TRIP 12.30
Totals Year-to-Date`

type fakeCategorizer struct{}

func (fakeCategorizer) CategorizeAll(_ context.Context, txns []models.Transaction) {
	for i := range txns {
		txns[i].Category = "Food & Beverage"
		txns[i].EnhancedDescription = "about " + txns[i].Description
	}
}

type fakePayments struct {
	documents int
	err       error
}

func (f *fakePayments) CreateIntent(_ context.Context, documents int) (string, error) {
	f.documents = documents
	if f.err != nil {
		return "", f.err
	}
	return "pi_123_secret_abc", nil
}

func setupTestApp(extract ExtractFunc, payments *fakePayments) *fiber.App {
	h := &Handler{
		Extract:     extract,
		Categorizer: fakeCategorizer{},
		Payments:    payments,
		Log:         zerolog.Nop(),
		Version:     "test",
		Now: func() time.Time {
			return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
		},
	}
	return NewApp(h, 4*1024*1024)
}

func extractText(pages ...string) ExtractFunc {
	return func([]byte) ([]string, error) { return pages, nil }
}

func pdfBody(t *testing.T, payload string) io.Reader {
	t.Helper()
	b, err := json.Marshal(map[string]string{"pdf_data": payload})
	require.NoError(t, err)
	return strings.NewReader(string(b))
}

func do(t *testing.T, app *fiber.App, method, path string, body io.Reader) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(extractText(), &fakePayments{})

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "healthy", result["status"])
	assert.Equal(t, "test", result["version"])
}

func TestCategorizeEndpoint(t *testing.T) {
	var got []byte
	extract := func(data []byte) ([]string, error) {
		got = data
		return []string{chaseStatement}, nil
	}
	app := setupTestApp(extract, &fakePayments{})

	payload := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
	status, body := do(t, app, "POST", "/api/categorize", pdfBody(t, payload))
	require.Equal(t, fiber.StatusOK, status, body)

	assert.Equal(t, "%PDF-1.4 fake", string(got))

	var txns []TransactionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, TransactionResponse{
		Date:                "2026-03-14",
		Description:         "STARBUCKS NY",
		Amount:              4.5,
		Category:            "Food & Beverage",
		EnhancedDescription: "about STARBUCKS NY",
		Card:                "Chase",
	}, txns[0])
	assert.InDelta(t, 12.30, txns[1].Amount, 0.0001)
}

func TestCategorizeEndpoint_NoTransactions(t *testing.T) {
	app := setupTestApp(extractText("American Express", "", ""), &fakePayments{})

	status, body := do(t, app, "POST", "/api/categorize", pdfBody(t, base64.StdEncoding.EncodeToString([]byte("pdf"))))
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", body)
}

func TestCategorizeEndpoint_Errors(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("pdf"))

	tests := []struct {
		name    string
		extract ExtractFunc
		body    string
		status  int
		message string
	}{
		{
			name:    "missing pdf data",
			extract: extractText(chaseStatement),
			body:    `{}`,
			status:  fiber.StatusBadRequest,
			message: "No PDF data provided",
		},
		{
			name:    "malformed JSON",
			extract: extractText(chaseStatement),
			body:    `{"pdf_data":`,
			status:  fiber.StatusBadRequest,
			message: "Invalid JSON body",
		},
		{
			name:    "bad base64",
			extract: extractText(chaseStatement),
			body:    `{"pdf_data":"not base64!!"}`,
			status:  fiber.StatusBadRequest,
			message: "Invalid base64 PDF data",
		},
		{
			name:    "extraction failure",
			extract: func([]byte) ([]string, error) { return nil, errors.New("no readable text in PDF") },
			body:    `{"pdf_data":"` + valid + `"}`,
			status:  fiber.StatusInternalServerError,
			message: "PDF extraction failed: no readable text in PDF",
		},
		{
			name:    "unknown format",
			extract: extractText("Discover It Card\n03/14 STORE 1.00"),
			body:    `{"pdf_data":"` + valid + `"}`,
			status:  fiber.StatusInternalServerError,
			message: "unknown statement format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(tt.extract, &fakePayments{})
			status, body := do(t, app, "POST", "/api/categorize", strings.NewReader(tt.body))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body)
		})
	}
}

func TestCategorizeEndpoint_Panic(t *testing.T) {
	extract := func([]byte) ([]string, error) { panic("boom") }
	app := setupTestApp(extract, &fakePayments{})

	status, _ := do(t, app, "POST", "/api/categorize", pdfBody(t, base64.StdEncoding.EncodeToString([]byte("pdf"))))
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	payments := &fakePayments{}
	app := setupTestApp(extractText(), payments)

	status, body := do(t, app, "POST", "/api/create-payment-intent", strings.NewReader(`{"num_pdfs": 3}`))
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"clientSecret":"pi_123_secret_abc"}`, body)
	assert.Equal(t, 3, payments.documents)

	status, _ = do(t, app, "POST", "/api/create-payment-intent", strings.NewReader(`{}`))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, payments.documents)
}

func TestCreatePaymentIntentEndpoint_Error(t *testing.T) {
	app := setupTestApp(extractText(), &fakePayments{err: errors.New("card declined")})

	status, body := do(t, app, "POST", "/api/create-payment-intent", strings.NewReader(`{"num_pdfs": 1}`))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "card declined", body)
}

func TestUnknownEndpoint(t *testing.T) {
	app := setupTestApp(extractText(), &fakePayments{})

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/categorize"},
		{"POST", "/api/health"},
		{"GET", "/"},
		{"POST", "/api/convert"},
	} {
		status, body := do(t, app, tc.method, tc.path, nil)
		assert.Equal(t, fiber.StatusNotFound, status, tc.path)
		assert.Equal(t, "Endpoint not found", body)
	}
}
