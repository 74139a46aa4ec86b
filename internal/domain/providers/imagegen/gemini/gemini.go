package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/platform/logging"

	"google.golang.org/genai"
)

// Provider renders a repaired-garment preview in a single call using a
// Gemini image generation model. The response either embeds image data or
// the attempt fails outright.
type Provider struct {
	config *imagegen.Config
	logger *logging.Logger
	client *genai.Client
}

func init() {
	imagegen.Register("gemini", NewProvider)
}

// NewProvider creates a Gemini direct synthesizer.
func NewProvider(config *imagegen.Config, logger *logging.Logger) (providers.ImageSynthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for synthesizer %s", config.ModelName)
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

// Synthesize sends the original image and instruction, asking for an image
// modality response, and returns the first image part as a data URL.
func (p *Provider) Synthesize(ctx context.Context, img *image.Payload, instruction string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}},
			{Text: instruction},
		},
	}}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini image generation: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			p.logger.Debug("preview generated: model=%s bytes=%d", p.config.ModelName, len(part.InlineData.Data))
			return fmt.Sprintf("data:%s;base64,%s",
				part.InlineData.MIMEType,
				base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
		}
	}

	return "", fmt.Errorf("gemini image generation returned no image parts")
}
