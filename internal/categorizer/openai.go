package categorizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/insightdelivered/card-statement-categorizer/internal/config"
)

// OpenAIEnhancer categorizes with an OpenAI chat completion model.
type OpenAIEnhancer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	categories  []string
}

// NewOpenAIEnhancer creates an enhancer using the configured API key and
// model.
func NewOpenAIEnhancer(cfg config.CategorizerConfig) *OpenAIEnhancer {
	return newOpenAIEnhancer(openai.DefaultConfig(cfg.OpenAIAPIKey), cfg)
}

func newOpenAIEnhancer(clientCfg openai.ClientConfig, cfg config.CategorizerConfig) *OpenAIEnhancer {
	return &OpenAIEnhancer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		categories:  cfg.Categories,
	}
}

func (e *OpenAIEnhancer) Enhance(ctx context.Context, description string) (Result, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(description, e.categories)},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("openai chat completion: no choices")
	}
	return parseReply(resp.Choices[0].Message.Content, description)
}
