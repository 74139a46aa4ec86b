package preview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stitchsense-server-go/internal/domain/chain"
	"stitchsense-server-go/internal/domain/eventbus"
	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/logging"
)

// DefaultIssueDescription stands in when the caller sends no description.
const DefaultIssueDescription = "general garment damage — repair and restore to perfect condition"

// Request carries one preview call.
type Request struct {
	RequestID        string
	Image            []byte
	ImageMime        string
	IssueDescription string
}

// Result reports the best-effort outcome. Available=false is a normal,
// non-error response.
type Result struct {
	Available      bool
	ImageDataOrURL string
	Provider       string
}

// Options wires the pipeline's synthesizers and chain.
type Options struct {
	Synthesizers map[string]providers.ImageSynthesizer
	PreviewChain chain.Chain

	AttemptTimeout time.Duration
	MaxImageSize   int64
	Logger         *logging.Logger
}

// Pipeline renders a repaired-garment preview. It tries each synthesizer in
// the chain and never fails the overall interaction: chain exhaustion is
// absorbed into an unavailable result.
type Pipeline struct {
	opts   Options
	logger *logging.Logger
}

// NewPipeline creates a preview pipeline.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Generate validates the original image and runs the synthesis chain.
// Validation failure is the only error this returns; synthesis failure
// yields Available=false.
func (p *Pipeline) Generate(ctx context.Context, req *Request) (*Result, error) {
	payload, err := image.Validate(req.Image, req.ImageMime, p.opts.MaxImageSize)
	if err != nil {
		return nil, err
	}

	issue := strings.TrimSpace(req.IssueDescription)
	if issue == "" {
		issue = DefaultIssueDescription
	}
	instruction := synthesisInstruction(issue)

	outcome, err := chain.Run(ctx, p.opts.PreviewChain,
		chain.Options{
			RequestID:      req.RequestID,
			AttemptTimeout: p.opts.AttemptTimeout,
			Logger:         p.logger,
		},
		payload, func(ctx context.Context, cand chain.Candidate, in *image.Payload) (string, error) {
			synth, ok := p.opts.Synthesizers[cand.Provider]
			if !ok {
				return "", fmt.Errorf("no synthesizer registered as %q", cand.Provider)
			}
			return synth.Synthesize(ctx, in, instruction)
		})
	if err != nil {
		p.logger.WarnTag("Preview", "preview unavailable for %s: %v", req.RequestID, err)
		p.publishCompleted(req.RequestID, false)
		return &Result{Available: false}, nil
	}

	p.publishCompleted(req.RequestID, true)
	return &Result{
		Available:      true,
		ImageDataOrURL: outcome.Value,
		Provider:       outcome.Winner.Provider,
	}, nil
}

// synthesisInstruction asks for the same garment with the issue repaired,
// keeping composition constant so before/after line up.
func synthesisInstruction(issue string) string {
	return fmt.Sprintf("Show this exact garment with the following issue fully repaired: %s. "+
		"Keep the same garment, same style, same background and same lighting. "+
		"The repair should look professional, with clean stitching and a perfect finish.", issue)
}

func (p *Pipeline) publishCompleted(requestID string, available bool) {
	eventbus.Publish(eventbus.EventPreviewCompleted, eventbus.StageEventData{
		RequestID: requestID,
		Stage:     "preview",
		Degraded:  !available,
	})
}
