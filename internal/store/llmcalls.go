package store

import (
	"context"
	"time"

	"github.com/abhisek/inkling/internal/llm"
	"github.com/abhisek/inkling/internal/types"
)

// RecordLLMCall persists one provider invocation. Implements llm.CallRecorder.
func (s *Store) RecordLLMCall(ctx context.Context, rec llm.CallRecord) error {
	row := &types.LLMCall{
		Provider:     rec.Provider,
		Model:        rec.Model,
		Purpose:      rec.Purpose,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		LatencyMs:    rec.LatencyMs,
		Success:      rec.Success,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// ListLLMCalls returns the most recent provider invocations, newest first.
func (s *Store) ListLLMCalls(ctx context.Context, limit int) ([]*types.LLMCall, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.LLMCall
	err := q.Find(&out).Error
	return out, err
}
