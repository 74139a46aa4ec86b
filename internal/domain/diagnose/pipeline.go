package diagnose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stitchsense-server-go/internal/domain/chain"
	"stitchsense-server-go/internal/domain/eventbus"
	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
)

// Request carries one diagnosis call. Image is required; audio and text are
// optional context for the transcription stage.
type Request struct {
	RequestID string
	Image     []byte
	ImageMime string
	Audio     []byte
	AudioMime string
	UserText  string
}

// Result is the immutable outcome of one successful diagnosis.
type Result struct {
	Transcription         string
	VisionAnalysis        string
	RepairGuide           string
	TranscriptionDegraded bool
	VisionProvider        string
	ReasoningProvider     string
}

// Options wires the pipeline's providers and chains.
type Options struct {
	Transcribers map[string]providers.Transcriber
	Analyzers    map[string]providers.VisionAnalyzer
	Reasoners    map[string]providers.Reasoner

	TranscriptionChain chain.Chain
	VisionChain        chain.Chain
	ReasoningChain     chain.Chain

	AttemptTimeout time.Duration
	MaxImageSize   int64
	Logger         *logging.Logger
}

// Pipeline sequences transcription, vision analysis and reasoning, feeding
// each stage's output into the next stage's prompt.
type Pipeline struct {
	opts   Options
	logger *logging.Logger
}

// NewPipeline creates a diagnosis pipeline.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Diagnose runs the three stages in order. Transcription failures degrade to
// a placeholder transcript; vision and reasoning chain exhaustion abort the
// request.
func (p *Pipeline) Diagnose(ctx context.Context, req *Request) (*Result, error) {
	payload, err := image.Validate(req.Image, req.ImageMime, p.opts.MaxImageSize)
	if err != nil {
		return nil, err
	}

	transcript, degraded := p.transcribe(ctx, req)

	analysis, visionProvider, err := p.analyze(ctx, req.RequestID, payload, transcript)
	if err != nil {
		return nil, err
	}

	guide, reasoningProvider, err := p.reason(ctx, req.RequestID, analysis)
	if err != nil {
		return nil, err
	}

	eventbus.Publish(eventbus.EventDiagnosisCompleted, eventbus.DiagnosisEventData{
		RequestID:     req.RequestID,
		Transcription: transcript,
	})

	return &Result{
		Transcription:         transcript,
		VisionAnalysis:        analysis,
		RepairGuide:           guide,
		TranscriptionDegraded: degraded,
		VisionProvider:        visionProvider,
		ReasoningProvider:     reasoningProvider,
	}, nil
}

// transcribe resolves the user context for the vision prompt. With no audio
// the chain is never entered; a fully exhausted chain degrades to a
// placeholder instead of failing the request.
func (p *Pipeline) transcribe(ctx context.Context, req *Request) (string, bool) {
	if len(req.Audio) == 0 {
		if text := strings.TrimSpace(req.UserText); text != "" {
			return text, false
		}
		return noContextPlaceholder, false
	}

	outcome, err := chain.Run(ctx, p.opts.TranscriptionChain, p.chainOptions(req.RequestID),
		req, func(ctx context.Context, cand chain.Candidate, in *Request) (string, error) {
			transcriber, ok := p.opts.Transcribers[cand.Provider]
			if !ok {
				return "", fmt.Errorf("no transcriber registered as %q", cand.Provider)
			}
			return transcriber.Transcribe(ctx, in.Audio, in.AudioMime, vocabularyHint)
		})
	if err != nil {
		p.logger.WarnTag("Diagnose", "transcription degraded for %s: %v", req.RequestID, err)
		p.publishStage(req.RequestID, "transcription", "", true)
		return transcriptionFailedPlaceholder, true
	}

	p.publishStage(req.RequestID, "transcription", outcome.Winner.Provider, false)
	return outcome.Value, false
}

func (p *Pipeline) analyze(ctx context.Context, requestID string, payload *image.Payload, transcript string) (string, string, error) {
	prompt := visionPrompt(transcript)

	outcome, err := chain.Run(ctx, p.opts.VisionChain, p.chainOptions(requestID),
		payload, func(ctx context.Context, cand chain.Candidate, in *image.Payload) (string, error) {
			analyzer, ok := p.opts.Analyzers[cand.Provider]
			if !ok {
				return "", fmt.Errorf("no vision analyzer registered as %q", cand.Provider)
			}
			return analyzer.Analyze(ctx, in, prompt)
		})
	if err != nil {
		return "", "", errors.Wrap(errors.KindChain, "diagnose.analyze",
			"could not analyze the garment image", err)
	}

	p.publishStage(requestID, "vision", outcome.Winner.Provider, false)
	return outcome.Value, outcome.Winner.Provider, nil
}

func (p *Pipeline) reason(ctx context.Context, requestID, analysis string) (string, string, error) {
	prompt := reasoningPrompt(analysis)

	outcome, err := chain.Run(ctx, p.opts.ReasoningChain, p.chainOptions(requestID),
		prompt, func(ctx context.Context, cand chain.Candidate, in string) (string, error) {
			reasoner, ok := p.opts.Reasoners[cand.Provider]
			if !ok {
				return "", fmt.Errorf("no reasoner registered as %q", cand.Provider)
			}
			return reasoner.Reason(ctx, reasonerPersona, in)
		})
	if err != nil {
		return "", "", errors.Wrap(errors.KindChain, "diagnose.reason",
			"could not generate the repair guide", err)
	}

	p.publishStage(requestID, "reasoning", outcome.Winner.Provider, false)
	return outcome.Value, outcome.Winner.Provider, nil
}

func (p *Pipeline) chainOptions(requestID string) chain.Options {
	return chain.Options{
		RequestID:      requestID,
		AttemptTimeout: p.opts.AttemptTimeout,
		Logger:         p.logger,
	}
}

func (p *Pipeline) publishStage(requestID, stage, provider string, degraded bool) {
	eventbus.Publish(eventbus.EventStageCompleted, eventbus.StageEventData{
		RequestID: requestID,
		Stage:     stage,
		Provider:  provider,
		Degraded:  degraded,
	})
}
