package orchestrator

import (
	"context"
	"testing"
	"time"

	"stitchsense-server-go/internal/domain/chain"
	"stitchsense-server-go/internal/domain/diagnose"
	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/domain/providers/reason"
	"stitchsense-server-go/internal/domain/providers/transcribe"
	"stitchsense-server-go/internal/domain/providers/vision"
	"stitchsense-server-go/internal/platform/config"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
)

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, []byte, string, string) (string, error) {
	return "transcript", nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, *image.Payload, string) (string, error) {
	return "analysis", nil
}

type stubReasoner struct{}

func (stubReasoner) Reason(context.Context, string, string) (string, error) {
	return "guide", nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(context.Context, *image.Payload, string) (string, error) {
	return "data:image/png;base64,AAAA", nil
}

func registerStubs() {
	transcribe.Register("stub", func(*transcribe.Config, *logging.Logger) (providers.Transcriber, error) {
		return stubTranscriber{}, nil
	})
	vision.Register("stub", func(*vision.Config, *logging.Logger) (providers.VisionAnalyzer, error) {
		return stubAnalyzer{}, nil
	})
	reason.Register("stub", func(*reason.Config, *logging.Logger) (providers.Reasoner, error) {
		return stubReasoner{}, nil
	})
	imagegen.Register("stub", func(*imagegen.Config, *logging.Logger) (providers.ImageSynthesizer, error) {
		return stubSynthesizer{}, nil
	})
}

func stubServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxUploadSize: 1 << 20},
		Chains: config.ChainsConfig{
			Transcription: []string{"asr-1"},
			Vision:        []string{"vision-1"},
			Reasoning:     []string{"llm-1"},
			Preview:       []string{"img-1"},
		},
		Transcribers: map[string]config.ProviderConfig{
			"asr-1": {Type: "stub", ModelName: "asr-model"},
		},
		Analyzers: map[string]config.ProviderConfig{
			"vision-1": {Type: "stub", ModelName: "vision-model"},
		},
		Reasoners: map[string]config.ProviderConfig{
			"llm-1": {Type: "stub", ModelName: "llm-model"},
		},
		Synthesizers: map[string]config.SynthesizerConfig{
			"img-1": {ProviderConfig: config.ProviderConfig{Type: "stub", ModelName: "img-model"}},
		},
	}
}

func TestNewWiresConfiguredProviders(t *testing.T) {
	registerStubs()

	orch, err := New(stubServerConfig(), nil, logging.DefaultLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := orch.Diagnose(context.Background(), diagnoseRequest())
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if result.VisionAnalysis != "analysis" || result.RepairGuide != "guide" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestNewRejectsUnknownProviderType(t *testing.T) {
	registerStubs()

	cfg := stubServerConfig()
	cfg.Reasoners["llm-1"] = config.ProviderConfig{Type: "no-such-type"}

	_, err := New(cfg, nil, logging.DefaultLogger)
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
	if !errors.IsKind(err, errors.KindBootstrap) {
		t.Errorf("err kind = %v, want bootstrap", err)
	}
}

func TestBuildChainPreservesOrderModelsAndTimeouts(t *testing.T) {
	cfg := map[string]config.ProviderConfig{
		"a": {ModelName: "model-a", Timeout: 10 * time.Second},
		"b": {ModelName: "model-b", Timeout: 45 * time.Second},
	}

	c := buildChain(chain.CapabilityVision, []string{"b", "a"}, candidateFor(cfg))
	if len(c.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(c.Candidates))
	}
	if c.Candidates[0].Provider != "b" || c.Candidates[0].Model != "model-b" {
		t.Errorf("first candidate = %+v", c.Candidates[0])
	}
	if c.Candidates[1].Provider != "a" || c.Candidates[1].Model != "model-a" {
		t.Errorf("second candidate = %+v", c.Candidates[1])
	}
	if c.Candidates[0].Timeout != 45*time.Second || c.Candidates[1].Timeout != 10*time.Second {
		t.Errorf("candidate timeouts = %s, %s; want each provider's own timeout",
			c.Candidates[0].Timeout, c.Candidates[1].Timeout)
	}
}

func TestSynthesizerCandidateCoversFullPollCycle(t *testing.T) {
	cfg := map[string]config.SynthesizerConfig{
		"poller": {
			ProviderConfig: config.ProviderConfig{Type: "stub", Timeout: 15 * time.Second},
			PollInterval:   2 * time.Second,
			MaxPolls:       15,
		},
		"direct": {
			ProviderConfig: config.ProviderConfig{Type: "stub", Timeout: 30 * time.Second},
		},
	}

	build := synthCandidateFor(cfg)

	// 15s request budget plus 16 poll ticks at 2s.
	if got := build("poller").Timeout; got != 47*time.Second {
		t.Errorf("poller timeout = %s, want 47s", got)
	}
	if got := build("direct").Timeout; got != 30*time.Second {
		t.Errorf("direct timeout = %s, want the bare request timeout", got)
	}
}

func TestSynthesizerPollConfigLeavesOtherChainsAlone(t *testing.T) {
	analyzers := map[string]config.ProviderConfig{
		"vision-1": {ModelName: "vision-model", Timeout: 10 * time.Second},
	}

	c := buildChain(chain.CapabilityVision, []string{"vision-1"}, candidateFor(analyzers))
	if got := c.Candidates[0].Timeout; got != 10*time.Second {
		t.Errorf("vision candidate timeout = %s, want its own 10s regardless of synthesizer polling", got)
	}
}

func diagnoseRequest() *diagnose.Request {
	return &diagnose.Request{
		RequestID: "req-1",
		Image:     []byte("fake image bytes"),
		ImageMime: "image/jpeg",
	}
}
