package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/orchestrator"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/domain/providers/reason"
	"stitchsense-server-go/internal/domain/providers/transcribe"
	"stitchsense-server-go/internal/domain/providers/vision"
	"stitchsense-server-go/internal/platform/config"
	"stitchsense-server-go/internal/platform/logging"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, []byte("garment photo")...)

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

type stubSynthesizer struct{ err error }

func (s stubSynthesizer) Synthesize(context.Context, *image.Payload, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "data:image/png;base64,UFJFVklFVw==", nil
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
	imagegen.Register("stub-down", func(*imagegen.Config, *logging.Logger) (providers.ImageSynthesizer, error) {
		return stubSynthesizer{err: fmt.Errorf("render backend unreachable")}, nil
	})
}

func serviceConfig() *config.Config {
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

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	registerStubs()
	gin.SetMode(gin.TestMode)

	orch, err := orchestrator.New(cfg, nil, logging.DefaultLogger)
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}
	svc, err := NewService(cfg, logging.DefaultLogger, orch)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	router := gin.New()
	if err := svc.Register(context.Background(), router.Group("/api")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return router
}

func postPreview(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/preview", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func requestBody(t *testing.T, image, issue string) string {
	t.Helper()
	body, err := json.Marshal(GenerateRequest{Image: image, IssueDescription: issue})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return string(body)
}

func TestHandlePost_PreviewAvailable(t *testing.T) {
	router := newTestRouter(t, serviceConfig())

	rec := postPreview(router, requestBody(t, pngDataURL(), "torn hem"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    PreviewData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Success {
		t.Fatal("envelope success = false")
	}
	if !envelope.Data.Available {
		t.Error("preview should be available")
	}
	if envelope.Data.Image == "" {
		t.Error("available preview carries no image")
	}
	if envelope.Data.RequestID == "" {
		t.Error("request_id missing")
	}
}

func TestHandlePost_SynthesisFailureIsNotAnError(t *testing.T) {
	cfg := serviceConfig()
	cfg.Synthesizers["img-1"] = config.SynthesizerConfig{
		ProviderConfig: config.ProviderConfig{Type: "stub-down", ModelName: "img-model"},
	}
	router := newTestRouter(t, cfg)

	rec := postPreview(router, requestBody(t, pngDataURL(), "torn hem"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when synthesis fails; body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    PreviewData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Success {
		t.Error("envelope success = false; synthesis failure is a degraded result, not an error")
	}
	if envelope.Data.Available {
		t.Error("preview reported available after every synthesizer failed")
	}
	if envelope.Data.Image != "" {
		t.Errorf("unavailable preview carries image %q", envelope.Data.Image)
	}
}

func TestHandlePost_RejectsBadInput(t *testing.T) {
	router := newTestRouter(t, serviceConfig())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing image", body: requestBody(t, "", "torn hem")},
		{name: "malformed base64", body: requestBody(t, "data:image/png;base64,???", "torn hem")},
		{name: "body is not json", body: "original_image=foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postPreview(router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			var envelope struct {
				Success bool `json:"success"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if envelope.Success {
				t.Error("envelope success = true for a rejected request")
			}
		})
	}
}
