package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abhisek/inkling/internal/types"
)

// CreateSession records the start of a quiz session. The question order is
// fixed here and never changes for the life of the session.
func (s *Store) CreateSession(ctx context.Context, topicID int64, questionIDs []int64) (*types.QuizSession, error) {
	raw, err := json.Marshal(questionIDs)
	if err != nil {
		return nil, fmt.Errorf("encode question ids: %w", err)
	}
	session := &types.QuizSession{
		TopicID:        topicID,
		QuestionIDs:    datatypes.JSON(raw),
		StartedAt:      time.Now().UTC(),
		TotalQuestions: len(questionIDs),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns the session with the given id, or nil when absent.
func (s *Store) GetSession(ctx context.Context, id int64) (*types.QuizSession, error) {
	var sess types.QuizSession
	err := s.db.WithContext(ctx).First(&sess, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// FinishSession stamps a session with its final tallies.
func (s *Store) FinishSession(ctx context.Context, id int64, correct int, score float64) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&types.QuizSession{}).Where("id = ?", id).
		Updates(map[string]any{
			"finished_at":     &now,
			"correct_answers": correct,
			"score":           score,
		}).Error
}

// ListSessions returns past sessions, newest first, optionally scoped to a
// topic.
func (s *Store) ListSessions(ctx context.Context, topicID *int64, limit int) ([]*types.QuizSession, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC, id DESC")
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.QuizSession
	err := q.Find(&out).Error
	return out, err
}
