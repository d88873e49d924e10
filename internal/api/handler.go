package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-categorizer/internal/logger"
	"github.com/insightdelivered/card-statement-categorizer/internal/models"
	"github.com/insightdelivered/card-statement-categorizer/internal/parser"
	"github.com/insightdelivered/card-statement-categorizer/internal/payment"
)

// ExtractFunc turns an uploaded PDF into page texts.
type ExtractFunc func(data []byte) ([]string, error)

// Categorizer fills in categories and summaries of parsed transactions.
type Categorizer interface {
	CategorizeAll(ctx context.Context, txns []models.Transaction)
}

// TransactionResponse is one categorized transaction in the
// /api/categorize response.
type TransactionResponse struct {
	Date                string  `json:"date"`
	Description         string  `json:"description"`
	Amount              float64 `json:"amount"`
	Category            string  `json:"category"`
	EnhancedDescription string  `json:"enhanced_description"`
	Card                string  `json:"card"`
}

type categorizeRequest struct {
	PDFData string `json:"pdf_data"`
}

type paymentIntentRequest struct {
	NumPDFs *int `json:"num_pdfs"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Extract     ExtractFunc
	Categorizer Categorizer
	Payments    payment.IntentCreator
	Log         zerolog.Logger
	Version     string
	// Now is the clock used to infer statement years; nil means time.Now.
	Now func() time.Time
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(fiberrecover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(RequestID())
	app.Use(AccessLog(h.Log))

	h.RegisterRoutes(app)
	app.Use(notFound)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api")
	api.Post("/categorize", h.HandleCategorize)
	api.Post("/create-payment-intent", h.HandleCreatePaymentIntent)
	api.Get("/health", h.HandleHealth)
}

// HandleHealth reports that the service is up.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": h.Version,
	})
}

// HandleCategorize parses a base64 encoded statement PDF and returns its
// categorized transactions.
func (h *Handler) HandleCategorize(c *fiber.Ctx) error {
	ctx := c.UserContext()
	log := logger.FromContext(ctx)

	var req categorizeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	if req.PDFData == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No PDF data provided")
	}

	data, err := decodePDFData(req.PDFData)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid base64 PDF data")
	}

	pages, err := h.Extract(data)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "PDF extraction failed: "+err.Error())
	}

	opts := []parser.Option{parser.WithLogger(log)}
	if h.Now != nil {
		opts = append(opts, parser.WithClock(h.Now))
	}
	stmt, err := parser.ParseDocument(pages, opts...)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	h.Categorizer.CategorizeAll(ctx, stmt.Transactions)

	resp := make([]TransactionResponse, 0, len(stmt.Transactions))
	for _, txn := range stmt.Transactions {
		resp = append(resp, TransactionResponse{
			Date:                txn.Date.Format("2006-01-02"),
			Description:         txn.Description,
			Amount:              txn.Amount.InexactFloat64(),
			Category:            txn.Category,
			EnhancedDescription: txn.EnhancedDescription,
			Card:                txn.Issuer.DisplayName(),
		})
	}

	log.Info().
		Str("issuer", string(stmt.Issuer)).
		Int("pages", len(pages)).
		Int("transactions", len(resp)).
		Int("skipped_lines", len(stmt.Warnings)).
		Msg("statement categorized")
	return c.JSON(resp)
}

// HandleCreatePaymentIntent prices the given number of statements and
// returns the payment's client secret.
func (h *Handler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	var req paymentIntentRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
		}
	}
	documents := 1
	if req.NumPDFs != nil {
		documents = *req.NumPDFs
	}

	secret, err := h.Payments.CreateIntent(c.UserContext(), documents)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"clientSecret": secret})
}

// decodePDFData accepts plain base64 or a data: URL.
func decodePDFData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
