package gemini

import (
	"context"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/reason"
	"stitchsense-server-go/internal/platform/logging"

	"google.golang.org/genai"
)

// Provider generates text with a Gemini model.
type Provider struct {
	config *reason.Config
	logger *logging.Logger
	client *genai.Client
}

func init() {
	reason.Register("gemini", NewProvider)
}

// NewProvider creates a Gemini reasoner.
func NewProvider(config *reason.Config, logger *logging.Logger) (providers.Reasoner, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for reasoner %s", config.ModelName)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{
		config: config,
		logger: logger,
		client: client,
	}, nil
}

// Reason generates content with the persona as the system instruction.
func (p *Provider) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}
	if p.config.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(p.config.Temperature))
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: userPrompt}},
	}}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini completion returned empty response")
	}

	p.logger.Debug("reasoning complete: model=%s chars=%d", p.config.ModelName, len(text))
	return text, nil
}
