package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/victornm/techbridge/internal/telemetry"
)

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call of p. A call that runs out of time fails with
// *ErrTimeout. Failed calls are not retried.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(ctx, req)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return nil, &ErrTimeout{After: t.timeout, Err: err}
	}

	return resp, err
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}

type loggingProvider struct {
	inner Provider
}

// WithLogging logs every call of p and records it in the LLM request metrics.
func WithLogging(p Provider) Provider {
	return &loggingProvider{inner: p}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	elapsed := time.Since(start)
	telemetry.ObserveLLMRequest(purpose, l.inner.ModelID(), err == nil, elapsed)

	if err != nil {
		slog.ErrorContext(ctx, "llm: generate failed",
			"purpose", purpose,
			"model", l.inner.ModelID(),
			"latency_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	slog.InfoContext(ctx, "llm: generate succeeded",
		"purpose", purpose,
		"model", resp.Model,
		"latency_ms", elapsed.Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)

	return resp, nil
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}
