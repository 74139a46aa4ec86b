package groq

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/transcribe"
	"stitchsense-server-go/internal/platform/logging"

	"github.com/sashabaranov/go-openai"
)

// Provider transcribes audio through the Groq OpenAI-compatible endpoint.
type Provider struct {
	config *transcribe.Config
	logger *logging.Logger
	client *openai.Client
}

func init() {
	transcribe.Register("groq", NewProvider)
	// any OpenAI-compatible whisper endpoint works through this adapter
	transcribe.Register("openai", NewProvider)
}

// NewProvider creates a Groq transcriber.
func NewProvider(config *transcribe.Config, logger *logging.Logger) (providers.Transcriber, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key for transcriber %s", config.ModelName)
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

// Transcribe sends the audio clip to the whisper model. The vocabulary hint
// is passed as the transcription prompt to bias recognition.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, mimeType string, vocabularyHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.config.ModelName,
		Reader:   bytes.NewReader(audio),
		FilePath: "audio" + extensionForMime(mimeType),
		Prompt:   vocabularyHint,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("groq transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("groq transcription returned empty text")
	}

	p.logger.Debug("transcription complete: model=%s chars=%d", p.config.ModelName, len(text))
	return text, nil
}

// extensionForMime picks a filename extension the upload endpoint accepts.
func extensionForMime(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return ".mp3"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return ".m4a"
	default:
		return ".webm"
	}
}
