package gemini

import (
	"context"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/vision"
	"stitchsense-server-go/internal/platform/logging"

	"google.golang.org/genai"
)

// Provider analyzes images with a Gemini multimodal model.
type Provider struct {
	config *vision.Config
	logger *logging.Logger
	client *genai.Client
}

func init() {
	vision.Register("gemini", NewProvider)
}

// NewProvider creates a Gemini vision analyzer.
func NewProvider(config *vision.Config, logger *logging.Logger) (providers.VisionAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for analyzer %s", config.ModelName)
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

// Analyze sends the image plus the composed prompt and returns the model's
// prose answer.
func (p *Provider) Analyze(ctx context.Context, img *image.Payload, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}},
			{Text: prompt},
		},
	}}

	var cfg *genai.GenerateContentConfig
	if p.config.Temperature > 0 {
		cfg = &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(p.config.Temperature)),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini vision returned empty response")
	}

	p.logger.Debug("vision analysis complete: model=%s chars=%d", p.config.ModelName, len(text))
	return text, nil
}
