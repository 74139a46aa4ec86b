package groq

import (
	"context"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/reason"
	"stitchsense-server-go/internal/platform/logging"

	"github.com/sashabaranov/go-openai"
)

// Provider generates text through the Groq OpenAI-compatible chat endpoint.
type Provider struct {
	config *reason.Config
	logger *logging.Logger
	client *openai.Client
}

func init() {
	reason.Register("groq", NewProvider)
	reason.Register("openai", NewProvider)
}

// NewProvider creates a Groq reasoner.
func NewProvider(config *reason.Config, logger *logging.Logger) (providers.Reasoner, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for reasoner %s", config.ModelName)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Provider{
		config: config,
		logger: logger,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Reason runs one chat completion with a system persona and a user prompt,
// returning the model text verbatim.
func (p *Provider) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.config.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: float32(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("groq completion returned empty response")
	}

	p.logger.Debug("reasoning complete: model=%s chars=%d", p.config.ModelName, len(text))
	return text, nil
}
