package orchestrator

import (
	"context"
	"time"

	"stitchsense-server-go/internal/domain/chain"
	"stitchsense-server-go/internal/domain/diagnose"
	"stitchsense-server-go/internal/domain/preview"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/domain/providers/reason"
	"stitchsense-server-go/internal/domain/providers/transcribe"
	"stitchsense-server-go/internal/domain/providers/vision"
	"stitchsense-server-go/internal/platform/config"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
	"stitchsense-server-go/internal/platform/storage"
)

// defaultAttemptTimeout covers candidates whose provider config carries no
// timeout of its own.
const defaultAttemptTimeout = 30 * time.Second

// Orchestrator is the externally callable surface. It is built once at
// process start: provider instances, chains and pipelines are immutable
// afterwards, so concurrent requests share nothing mutable.
type Orchestrator struct {
	diagnosis *diagnose.Pipeline
	preview   *preview.Pipeline
	records   *storage.DiagnosisRepository
	logger    *logging.Logger
}

// New constructs every configured provider and wires both pipelines.
// A provider that fails to construct aborts startup; a misconfigured chain
// should surface here, not on the first request.
func New(cfg *config.Config, records *storage.DiagnosisRepository, logger *logging.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.DefaultLogger
	}

	transcribers := make(map[string]providers.Transcriber, len(cfg.Transcribers))
	for name, pc := range cfg.Transcribers {
		t, err := transcribe.Create(pc.Type, &transcribe.Config{
			Type:      pc.Type,
			ModelName: pc.ModelName,
			BaseURL:   pc.BaseURL,
			APIKey:    pc.APIKey,
			Timeout:   pc.Timeout,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(errors.KindBootstrap, "orchestrator.new", "create transcriber "+name, err)
		}
		transcribers[name] = t
	}

	analyzers := make(map[string]providers.VisionAnalyzer, len(cfg.Analyzers))
	for name, pc := range cfg.Analyzers {
		a, err := vision.Create(pc.Type, &vision.Config{
			Type:        pc.Type,
			ModelName:   pc.ModelName,
			BaseURL:     pc.BaseURL,
			APIKey:      pc.APIKey,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     pc.Timeout,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(errors.KindBootstrap, "orchestrator.new", "create analyzer "+name, err)
		}
		analyzers[name] = a
	}

	reasoners := make(map[string]providers.Reasoner, len(cfg.Reasoners))
	for name, pc := range cfg.Reasoners {
		r, err := reason.Create(pc.Type, &reason.Config{
			Type:        pc.Type,
			ModelName:   pc.ModelName,
			BaseURL:     pc.BaseURL,
			APIKey:      pc.APIKey,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     pc.Timeout,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(errors.KindBootstrap, "orchestrator.new", "create reasoner "+name, err)
		}
		reasoners[name] = r
	}

	synthesizers := make(map[string]providers.ImageSynthesizer, len(cfg.Synthesizers))
	for name, sc := range cfg.Synthesizers {
		s, err := imagegen.Create(sc.Type, &imagegen.Config{
			Type:         sc.Type,
			ModelName:    sc.ModelName,
			BaseURL:      sc.BaseURL,
			APIKey:       sc.APIKey,
			Timeout:      sc.Timeout,
			Version:      sc.Version,
			PollInterval: sc.PollInterval,
			MaxPolls:     sc.MaxPolls,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(errors.KindBootstrap, "orchestrator.new", "create synthesizer "+name, err)
		}
		synthesizers[name] = s
	}

	diagnosis := diagnose.NewPipeline(diagnose.Options{
		Transcribers:       transcribers,
		Analyzers:          analyzers,
		Reasoners:          reasoners,
		TranscriptionChain: buildChain(chain.CapabilityTranscription, cfg.Chains.Transcription, candidateFor(cfg.Transcribers)),
		VisionChain:        buildChain(chain.CapabilityVision, cfg.Chains.Vision, candidateFor(cfg.Analyzers)),
		ReasoningChain:     buildChain(chain.CapabilityReasoning, cfg.Chains.Reasoning, candidateFor(cfg.Reasoners)),
		AttemptTimeout:     defaultAttemptTimeout,
		MaxImageSize:       cfg.Server.MaxUploadSize,
		Logger:             logger,
	})

	previewPipeline := preview.NewPipeline(preview.Options{
		Synthesizers:   synthesizers,
		PreviewChain:   buildChain(chain.CapabilityPreview, cfg.Chains.Preview, synthCandidateFor(cfg.Synthesizers)),
		AttemptTimeout: defaultAttemptTimeout,
		MaxImageSize:   cfg.Server.MaxUploadSize,
		Logger:         logger,
	})

	return &Orchestrator{
		diagnosis: diagnosis,
		preview:   previewPipeline,
		records:   records,
		logger:    logger,
	}, nil
}

// Diagnose runs the full diagnosis pipeline and persists the result on a
// best-effort basis.
func (o *Orchestrator) Diagnose(ctx context.Context, req *diagnose.Request) (*diagnose.Result, error) {
	result, err := o.diagnosis.Diagnose(ctx, req)
	if err != nil {
		return nil, err
	}

	o.records.SaveAsync(&storage.DiagnosisRecord{
		RequestID:         req.RequestID,
		Transcription:     result.Transcription,
		VisionAnalysis:    result.VisionAnalysis,
		RepairGuide:       result.RepairGuide,
		VisionProvider:    result.VisionProvider,
		ReasoningProvider: result.ReasoningProvider,
		Degraded:          result.TranscriptionDegraded,
	})

	return result, nil
}

// GeneratePreview renders a repaired-garment preview. Synthesis failure is
// reported through Result.Available, not an error.
func (o *Orchestrator) GeneratePreview(ctx context.Context, req *preview.Request) (*preview.Result, error) {
	return o.preview.Generate(ctx, req)
}

// Records exposes stored diagnoses for review endpoints.
func (o *Orchestrator) Records() *storage.DiagnosisRepository {
	return o.records
}

func buildChain(capability chain.Capability, names []string, candidate func(string) chain.Candidate) chain.Chain {
	candidates := make([]chain.Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, candidate(name))
	}
	return chain.Chain{Capability: capability, Candidates: candidates}
}

// candidateFor maps a provider name to its chain candidate, carrying the
// provider's own configured timeout so one slow capability never widens the
// attempt budget of another.
func candidateFor(m map[string]config.ProviderConfig) func(string) chain.Candidate {
	return func(name string) chain.Candidate {
		pc := m[name]
		return chain.Candidate{
			Provider: name,
			Model:    pc.ModelName,
			Timeout:  pc.Timeout,
		}
	}
}

// synthCandidateFor additionally widens the budget of a submit/poll
// synthesizer to cover its full poll cycle on top of the request timeout.
func synthCandidateFor(m map[string]config.SynthesizerConfig) func(string) chain.Candidate {
	return func(name string) chain.Candidate {
		sc := m[name]
		timeout := sc.Timeout
		if sc.MaxPolls > 0 && sc.PollInterval > 0 {
			if cycle := sc.Timeout + sc.PollInterval*time.Duration(sc.MaxPolls+1); cycle > timeout {
				timeout = cycle
			}
		}
		return chain.Candidate{
			Provider: name,
			Model:    sc.ModelName,
			Timeout:  timeout,
		}
	}
}
