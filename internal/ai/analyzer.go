package ai

import (
	"FlowForge/internal/config"
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a network security analyst. You receive a summary of " +
	"alerts raised over simulated network traffic and respond with a short " +
	"markdown assessment: likely attack category, affected assets, and " +
	"recommended operator actions."

// Analyzer produces an LLM assessment of an alert summary.
type Analyzer struct {
	cfg    *config.AIConfig
	client *openai.Client
}

// NewAnalyzer creates a new Analyzer from the AI configuration.
func NewAnalyzer(cfg *config.AIConfig) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is not configured")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)
	return &Analyzer{cfg: cfg, client: client}, nil
}

// AnalyzeTraffic sends the alert summary to the model and returns its
// markdown assessment.
func (a *Analyzer) AnalyzeTraffic(ctx context.Context, input string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     a.cfg.Model,
		MaxTokens: 1024,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
