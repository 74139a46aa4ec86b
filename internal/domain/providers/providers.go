package providers

import (
	"context"

	"stitchsense-server-go/internal/domain/image"
)

// Transcriber turns an audio clip into plain text. The vocabulary hint
// biases recognition toward domain terms.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string, vocabularyHint string) (string, error)
}

// VisionAnalyzer describes what is visible in an image, guided by a prompt.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, img *image.Payload, prompt string) (string, error)
}

// Reasoner produces long-form text from a system persona and a user prompt.
type Reasoner interface {
	Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageSynthesizer renders a new image from an original plus an instruction.
// The returned string is either a data URL or a hosted URL, whichever the
// provider hands back.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, img *image.Payload, instruction string) (string, error)
}
