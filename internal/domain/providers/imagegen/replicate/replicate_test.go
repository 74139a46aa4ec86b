package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/platform/logging"
)

func testPayload() *image.Payload {
	return &image.Payload{
		Data:     []byte{0xFF, 0xD8, 0xFF, 0xE0},
		MimeType: "image/jpeg",
	}
}

// fakeServer serves the create call and then a scripted sequence of poll
// statuses, one per GET.
func fakeServer(t *testing.T, statuses []string, output interface{}) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	polls := new(atomic.Int32)
	mux := http.NewServeMux()

	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Token test-token" {
			t.Errorf("Authorization = %q, want token header", got)
		}
		var req predictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		if !strings.HasPrefix(req.Input.Image, "data:image/jpeg;base64,") {
			t.Errorf("image input = %q, want data URL", req.Input.Image)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(prediction{ID: "job-1", Status: "starting"})
	})

	mux.HandleFunc("/predictions/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := int(polls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		resp := prediction{ID: "job-1", Status: status}
		if status == statusSucceeded {
			resp.Output = output
		}
		if status == statusFailed {
			resp.Error = "NSFW content detected"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return httptest.NewServer(mux), polls
}

func newTestProvider(t *testing.T, baseURL string, maxPolls int) providers.ImageSynthesizer {
	t.Helper()

	p, err := NewProvider(&imagegen.Config{
		Type:         "replicate",
		APIKey:       "test-token",
		BaseURL:      baseURL,
		Version:      "stability-ai/sdxl:test",
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
	}, logging.DefaultLogger)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestSynthesizeSucceedsMidwayAndStopsPolling(t *testing.T) {
	statuses := make([]string, 7)
	for i := range statuses {
		statuses[i] = "processing"
	}
	statuses[6] = statusSucceeded

	srv, polls := fakeServer(t, statuses, []interface{}{"https://replicate.delivery/out.png"})
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 15)
	got, err := p.Synthesize(context.Background(), testPayload(), "mend the torn hem")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != "https://replicate.delivery/out.png" {
		t.Errorf("output = %q", got)
	}
	if n := polls.Load(); n != 7 {
		t.Errorf("polls = %d, want 7", n)
	}
}

func TestSynthesizeTimesOutAfterPollCeiling(t *testing.T) {
	srv, polls := fakeServer(t, []string{"processing"}, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 15)
	_, err := p.Synthesize(context.Background(), testPayload(), "mend the torn hem")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "still pending after 15 polls") {
		t.Errorf("err = %v, want poll ceiling message", err)
	}
	if n := polls.Load(); n != 15 {
		t.Errorf("polls = %d, want 15", n)
	}
}

func TestSynthesizeFailedStatusStopsImmediately(t *testing.T) {
	srv, polls := fakeServer(t, []string{"processing", statusFailed}, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 15)
	_, err := p.Synthesize(context.Background(), testPayload(), "mend the torn hem")
	if err == nil {
		t.Fatal("expected failure error")
	}
	if !strings.Contains(err.Error(), "failed") {
		t.Errorf("err = %v, want failed status", err)
	}
	if n := polls.Load(); n != 2 {
		t.Errorf("polls = %d, want 2", n)
	}
}

func TestSynthesizeStringOutput(t *testing.T) {
	srv, _ := fakeServer(t, []string{statusSucceeded}, "https://replicate.delivery/single.png")
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 15)
	got, err := p.Synthesize(context.Background(), testPayload(), "mend the torn hem")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != "https://replicate.delivery/single.png" {
		t.Errorf("output = %q", got)
	}
}

func TestSynthesizeCancelledContext(t *testing.T) {
	srv, _ := fakeServer(t, []string{"processing"}, nil)
	defer srv.Close()

	p, err := NewProvider(&imagegen.Config{
		Type:         "replicate",
		APIKey:       "test-token",
		BaseURL:      srv.URL,
		Version:      "stability-ai/sdxl:test",
		PollInterval: time.Hour,
		MaxPolls:     15,
	}, logging.DefaultLogger)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Synthesize(ctx, testPayload(), "mend the torn hem"); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestNewProviderRequiresCredentials(t *testing.T) {
	if _, err := NewProvider(&imagegen.Config{Version: "v"}, logging.DefaultLogger); err == nil {
		t.Error("expected error for missing API token")
	}
	if _, err := NewProvider(&imagegen.Config{APIKey: "k"}, logging.DefaultLogger); err == nil {
		t.Error("expected error for missing version")
	}
}
