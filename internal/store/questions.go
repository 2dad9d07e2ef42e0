package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/abhisek/inkling/internal/types"
)

// CreateQuestions inserts a batch of questions in one transaction.
func (s *Store) CreateQuestions(ctx context.Context, questions []*types.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(questions).Error; err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// GetQuestion returns the question with the given id, or nil when absent.
func (s *Store) GetQuestion(ctx context.Context, id int64) (*types.Question, error) {
	var q types.Question
	err := s.db.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns a topic's questions in insertion order.
func (s *Store) ListQuestions(ctx context.Context, topicID int64) ([]*types.Question, error) {
	var out []*types.Question
	err := s.db.WithContext(ctx).Where("topic_id = ?", topicID).Order("id ASC").Find(&out).Error
	return out, err
}

// GetQuestions loads the given ids, preserving the order of ids.
func (s *Store) GetQuestions(ctx context.Context, ids []int64) ([]*types.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*types.Question
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*types.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	out := make([]*types.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// MarkQuestionsSynced sets the graph mirror flag on the given questions.
func (s *Store) MarkQuestionsSynced(ctx context.Context, ids []int64, synced bool) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&types.Question{}).
		Where("id IN ?", ids).Update("graph_synced", synced).Error
}

// ListUnsyncedQuestions returns questions whose graph mirror is pending,
// optionally scoped to one topic.
func (s *Store) ListUnsyncedQuestions(ctx context.Context, topicID *int64) ([]*types.Question, error) {
	q := s.db.WithContext(ctx).Where("graph_synced = ?", false)
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}
	var out []*types.Question
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}
