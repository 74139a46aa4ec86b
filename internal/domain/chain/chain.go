package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stitchsense-server-go/internal/domain/eventbus"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
)

// Capability names one provider family.
type Capability string

const (
	CapabilityTranscription Capability = "transcription"
	CapabilityVision        Capability = "vision"
	CapabilityReasoning     Capability = "reasoning"
	CapabilityPreview       Capability = "preview"
)

// Candidate is one concrete provider/model pair able to serve a capability.
// Timeout bounds one attempt against this candidate; zero falls back to the
// traversal-wide Options.AttemptTimeout.
type Candidate struct {
	Provider string
	Model    string
	Timeout  time.Duration
}

// Chain is the ordered candidate list for one capability. Order encodes
// priority; it is built once at startup and never mutated.
type Chain struct {
	Capability Capability
	Candidates []Candidate
}

// Attempt records the outcome of trying one candidate.
type Attempt struct {
	Candidate Candidate
	Err       error
	Elapsed   time.Duration
}

// Outcome carries the first successful value together with the candidate
// that produced it and the full attempt history.
type Outcome[Out any] struct {
	Value    Out
	Winner   Candidate
	Attempts []Attempt
}

// ExhaustedError reports that every candidate in a chain failed.
type ExhaustedError struct {
	Capability Capability
	Attempts   []Attempt
}

func (e *ExhaustedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s chain exhausted after %d attempts", e.Capability, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %v", a.Candidate.Provider, a.Err)
	}
	return sb.String()
}

// AdapterFunc invokes one candidate with the stage input.
type AdapterFunc[In, Out any] func(ctx context.Context, cand Candidate, in In) (Out, error)

// Options control one chain traversal. AttemptTimeout applies to candidates
// that carry no timeout of their own.
type Options struct {
	RequestID      string
	AttemptTimeout time.Duration
	Logger         *logging.Logger
}

// Run tries each candidate in order under a per-attempt timeout and returns
// the first success. Failed attempts are recorded and logged, never
// surfaced individually. A candidate is tried at most once per traversal;
// when all fail the ExhaustedError carries the full history.
func Run[In, Out any](ctx context.Context, c Chain, opts Options, in In, fn AdapterFunc[In, Out]) (*Outcome[Out], error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger
	}

	if len(c.Candidates) == 0 {
		return nil, errors.New(errors.KindChain, "chain.run",
			fmt.Sprintf("no candidates configured for %s", c.Capability))
	}

	attempts := make([]Attempt, 0, len(c.Candidates))

	for i, cand := range c.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.KindChain, "chain.run", "request cancelled", err)
		}

		eventbus.Publish(eventbus.EventAttemptStarted, eventbus.AttemptEventData{
			RequestID:  opts.RequestID,
			Capability: string(c.Capability),
			Provider:   cand.Provider,
			Model:      cand.Model,
			Position:   i + 1,
		})

		timeout := cand.Timeout
		if timeout <= 0 {
			timeout = opts.AttemptTimeout
		}

		start := time.Now()
		out, err := runAttempt(ctx, timeout, cand, in, fn)
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, Attempt{Candidate: cand, Elapsed: elapsed})
			eventbus.Publish(eventbus.EventAttemptSucceeded, eventbus.AttemptEventData{
				RequestID:  opts.RequestID,
				Capability: string(c.Capability),
				Provider:   cand.Provider,
				Model:      cand.Model,
				Position:   i + 1,
				ElapsedMS:  elapsed.Milliseconds(),
			})
			return &Outcome[Out]{
				Value:    out,
				Winner:   cand,
				Attempts: attempts,
			}, nil
		}

		attempts = append(attempts, Attempt{Candidate: cand, Err: err, Elapsed: elapsed})
		logger.WarnTag("Chain", "%s candidate %s (%s) failed after %s: %v",
			c.Capability, cand.Provider, cand.Model, elapsed.Round(time.Millisecond), err)
		eventbus.Publish(eventbus.EventAttemptFailed, eventbus.AttemptEventData{
			RequestID:  opts.RequestID,
			Capability: string(c.Capability),
			Provider:   cand.Provider,
			Model:      cand.Model,
			Position:   i + 1,
			Reason:     err.Error(),
			ElapsedMS:  elapsed.Milliseconds(),
		})
	}

	eventbus.Publish(eventbus.EventChainExhausted, eventbus.ChainEventData{
		RequestID:  opts.RequestID,
		Capability: string(c.Capability),
		Attempts:   len(attempts),
	})

	exhausted := &ExhaustedError{Capability: c.Capability, Attempts: attempts}
	return nil, errors.Wrap(errors.KindChain, "chain.run", "all candidates failed", exhausted)
}

// runAttempt applies the per-attempt timeout around one adapter call.
func runAttempt[In, Out any](ctx context.Context, timeout time.Duration, cand Candidate, in In, fn AdapterFunc[In, Out]) (Out, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(attemptCtx, cand, in)
}
