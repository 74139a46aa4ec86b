package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/vision"
	"stitchsense-server-go/internal/platform/logging"

	openai "github.com/sashabaranov/go-openai"
)

// Provider analyzes images through an OpenAI-compatible vision endpoint
// (OpenAI itself, Groq, or any service speaking the same protocol).
type Provider struct {
	config *vision.Config
	logger *logging.Logger
	client *openai.Client
}

func init() {
	vision.Register("openai", NewProvider)
}

// NewProvider creates an OpenAI-compatible vision analyzer.
func NewProvider(config *vision.Config, logger *logging.Logger) (providers.VisionAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for analyzer %s", config.ModelName)
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

// Analyze sends the image as a data URL in a multimodal user message.
func (p *Provider) Analyze(ctx context.Context, img *image.Payload, prompt string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))

	req := openai.ChatCompletionRequest{
		Model: p.config.ModelName,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: prompt,
				},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
				},
			},
		}},
		Temperature: float32(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai vision returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai vision returned empty response")
	}

	p.logger.Debug("vision analysis complete: model=%s chars=%d", p.config.ModelName, len(text))
	return text, nil
}
