package categorizer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
)

// GeminiEnhancer categorizes with a Gemini model.
type GeminiEnhancer struct {
	client     *genai.Client
	model      string
	gen        *genai.GenerateContentConfig
	categories []string
}

// NewGeminiEnhancer creates an enhancer for the Gemini API. The API key is
// required.
func NewGeminiEnhancer(ctx context.Context, cfg config.CategorizerConfig) (*GeminiEnhancer, error) {
	return newGeminiEnhancer(ctx, cfg, genai.HTTPOptions{})
}

func newGeminiEnhancer(ctx context.Context, cfg config.CategorizerConfig, httpOpts genai.HTTPOptions) (*GeminiEnhancer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini provider requires GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiEnhancer{
		client: client,
		model:  cfg.GeminiModel,
		gen: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Temperature),
			MaxOutputTokens: int32(cfg.MaxTokens),
		},
		categories: cfg.Categories,
	}, nil
}

func (e *GeminiEnhancer) Enhance(ctx context.Context, description string) (Result, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(buildPrompt(description, e.categories)), e.gen)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return Result{}, errors.New("gemini generate content: empty response")
	}
	return parseReply(text, description)
}
