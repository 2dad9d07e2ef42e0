package llm

import (
	"context"
	"time"

	"github.com/abhisek/inkling/internal/logger"
)

// CallRecord captures one provider request for the llm_calls table.
type CallRecord struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// CallRecorder persists CallRecords. Implemented by the relational store.
type CallRecorder interface {
	RecordLLMCall(ctx context.Context, rec CallRecord) error
}

// LoggingProvider is a decorator that records every provider request in
// the call log. Logging failures never fail the request.
type LoggingProvider struct {
	inner    Provider
	recorder CallRecorder
	log      *logger.Logger
}

// WithLogging wraps a Provider with call logging. recorder may be nil, in
// which case calls are only logged, not persisted.
func WithLogging(p Provider, recorder CallRecorder, log *logger.Logger) Provider {
	return &LoggingProvider{inner: p, recorder: recorder, log: log.With("component", "llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)
	latencyMs := time.Since(start).Milliseconds()

	rec := CallRecord{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: latencyMs,
		Success:   err == nil,
	}
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.Model = resp.Model
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
		l.log.Warn("AI call failed", "purpose", purpose, "latency_ms", latencyMs, "error", err)
	} else {
		l.log.Debug("AI call completed",
			"purpose", purpose, "latency_ms", latencyMs,
			"input_tokens", rec.InputTokens, "output_tokens", rec.OutputTokens)
	}

	if l.recorder != nil {
		if logErr := l.recorder.RecordLLMCall(ctx, rec); logErr != nil {
			l.log.Warn("failed to persist AI call record", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
