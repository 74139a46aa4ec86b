package replicate

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"stitchsense-server-go/internal/domain/image"
	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/domain/providers/imagegen"
	"stitchsense-server-go/internal/platform/logging"

	"github.com/go-resty/resty/v2"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 15
)

// Job statuses reported by the predictions API.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

// Provider renders previews through the Replicate predictions API: a create
// call returns a job id, then the job is polled on a fixed interval until a
// terminal status or the poll ceiling.
type Provider struct {
	config       *imagegen.Config
	logger       *logging.Logger
	client       *resty.Client
	pollInterval time.Duration
	maxPolls     int
}

func init() {
	imagegen.Register("replicate", NewProvider)
}

// NewProvider creates a Replicate submit/poll synthesizer.
func NewProvider(config *imagegen.Config, logger *logging.Logger) (providers.ImageSynthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API token for replicate synthesizer")
	}
	if config.Version == "" {
		return nil, fmt.Errorf("missing model version for replicate synthesizer")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Token "+config.APIKey).
		SetHeader("Content-Type", "application/json")
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxPolls := config.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	return &Provider{
		config:       config,
		logger:       logger,
		client:       client,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}, nil
}

type predictionInput struct {
	Image             string  `json:"image"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	PromptStrength    float64 `json:"prompt_strength"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Scheduler         string  `json:"scheduler"`
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

// prediction is the job record returned by create and poll calls.
type prediction struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output interface{} `json:"output"`
	Error  interface{} `json:"error"`
}

// Synthesize submits a prediction job and drives the poll loop.
func (p *Provider) Synthesize(ctx context.Context, img *image.Payload, instruction string) (string, error) {
	job, err := p.submit(ctx, img, instruction)
	if err != nil {
		return "", err
	}

	p.logger.Debug("replicate job submitted: id=%s", job.ID)
	return p.poll(ctx, job.ID)
}

func (p *Provider) submit(ctx context.Context, img *image.Payload, instruction string) (*prediction, error) {
	body := predictionRequest{
		Version: p.config.Version,
		Input: predictionInput{
			Image:             fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data)),
			Prompt:            fmt.Sprintf("professional tailoring repair, fixed garment, %s, photorealistic, high quality fashion photography, clean stitching, perfect finish", instruction),
			NegativePrompt:    "damaged, torn, wrinkled, dirty, unprofessional, low quality, blurry",
			PromptStrength:    0.5,
			NumInferenceSteps: 25,
			GuidanceScale:     7.5,
			Scheduler:         "K_EULER",
		},
	}

	var created prediction
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post("/predictions")
	if err != nil {
		return nil, fmt.Errorf("replicate create: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("replicate create failed: %s", resp.Status())
	}
	if created.ID == "" {
		return nil, fmt.Errorf("replicate create returned no job id")
	}

	return &created, nil
}

// poll checks job status once per interval, up to the configured ceiling.
// Each iteration sleeps interruptibly, then inspects the reported status:
// pending states continue, terminal states return immediately, and
// exceeding the ceiling is a timeout failure.
func (p *Provider) poll(ctx context.Context, jobID string) (string, error) {
	for attempt := 1; attempt <= p.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("replicate poll cancelled: %w", ctx.Err())
		case <-time.After(p.pollInterval):
		}

		var job prediction
		resp, err := p.client.R().
			SetContext(ctx).
			SetResult(&job).
			Get("/predictions/" + jobID)
		if err != nil {
			return "", fmt.Errorf("replicate poll: %w", err)
		}
		if resp.IsError() {
			return "", fmt.Errorf("replicate poll failed: %s", resp.Status())
		}

		switch job.Status {
		case statusSucceeded:
			output := firstOutput(job.Output)
			if output == "" {
				return "", fmt.Errorf("replicate job %s succeeded with empty output", jobID)
			}
			p.logger.Debug("replicate job succeeded: id=%s polls=%d", jobID, attempt)
			return output, nil
		case statusFailed, statusCanceled:
			return "", fmt.Errorf("replicate job %s %s: %v", jobID, job.Status, job.Error)
		}
	}

	return "", fmt.Errorf("replicate job %s still pending after %d polls", jobID, p.maxPolls)
}

// firstOutput extracts the result reference; the API returns either a
// single URL or a list of them.
func firstOutput(output interface{}) string {
	switch v := output.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
