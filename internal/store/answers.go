package store

import (
	"context"
	"time"

	"github.com/abhisek/inkling/internal/types"
)

// QuestionStat summarises the answer history of one question. LastCorrect is
// nil when the question has never been answered.
type QuestionStat struct {
	QuestionID  int64
	HasAnswers  bool
	LastCorrect *bool
	Total       int
	Correct     int
}

// HistoryEntry is one graded answer joined with its question and topic.
type HistoryEntry struct {
	AnswerID           int64     `json:"answer_id"`
	QuestionID         int64     `json:"question_id"`
	TopicID            int64     `json:"topic_id"`
	TopicName          string    `json:"topic_name"`
	QuestionText       string    `json:"question_text"`
	UserAnswer         string    `json:"user_answer"`
	IsCorrect          bool      `json:"is_correct"`
	UnderstandingScore *int      `json:"understanding_score,omitempty"`
	Feedback           string    `json:"feedback"`
	Timestamp          time.Time `json:"timestamp"`
}

// CreateAnswer appends a graded answer. Answers are never updated or
// deleted; history is append-only.
func (s *Store) CreateAnswer(ctx context.Context, a *types.Answer) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// ListAnswers returns all answers to the given question, oldest first.
func (s *Store) ListAnswers(ctx context.Context, questionID int64) ([]*types.Answer, error) {
	var out []*types.Answer
	err := s.db.WithContext(ctx).Where("question_id = ?", questionID).
		Order("timestamp ASC, id ASC").Find(&out).Error
	return out, err
}

// QuestionStats computes per-question answer statistics for a topic in one
// query. The most recent answer is the one with the latest timestamp, ties
// broken by insertion order.
func (s *Store) QuestionStats(ctx context.Context, topicID int64) (map[int64]QuestionStat, error) {
	type row struct {
		QuestionID  int64
		Total       int
		Correct     int
		LastCorrect *bool
	}
	var rows []row
	err := s.db.WithContext(ctx).Raw(`
		WITH ranked AS (
			SELECT a.question_id,
			       a.is_correct,
			       ROW_NUMBER() OVER (
			           PARTITION BY a.question_id
			           ORDER BY a.timestamp DESC, a.id DESC
			       ) AS rn
			FROM answers a
			JOIN questions q ON q.id = a.question_id
			WHERE q.topic_id = ?
		)
		SELECT question_id,
		       COUNT(*) AS total,
		       SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct,
		       MAX(CASE WHEN rn = 1 THEN is_correct END) AS last_correct
		FROM ranked
		GROUP BY question_id`, topicID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]QuestionStat, len(rows))
	for _, r := range rows {
		out[r.QuestionID] = QuestionStat{
			QuestionID:  r.QuestionID,
			HasAnswers:  true,
			LastCorrect: r.LastCorrect,
			Total:       r.Total,
			Correct:     r.Correct,
		}
	}
	return out, nil
}

// History returns the most recent graded answers, newest first, optionally
// scoped to one topic.
func (s *Store) History(ctx context.Context, topicID *int64, limit int) ([]HistoryEntry, error) {
	q := s.db.WithContext(ctx).Table("answers a").
		Select(`a.id AS answer_id, q.id AS question_id, t.id AS topic_id,
			t.name AS topic_name, q.question_text, a.user_answer,
			a.is_correct, a.understanding_score, a.feedback, a.timestamp`).
		Joins("JOIN questions q ON q.id = a.question_id").
		Joins("JOIN topics t ON t.id = q.topic_id").
		Order("a.timestamp DESC, a.id DESC")
	if topicID != nil {
		q = q.Where("t.id = ?", *topicID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []HistoryEntry
	err := q.Scan(&out).Error
	return out, err
}

// GetAnswers loads the given answer ids, preserving the order of ids.
func (s *Store) GetAnswers(ctx context.Context, ids []int64) ([]*types.Answer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*types.Answer
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*types.Answer, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	out := make([]*types.Answer, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkAnswerSynced sets the graph mirror flag on one answer.
func (s *Store) MarkAnswerSynced(ctx context.Context, id int64, synced bool) error {
	return s.db.WithContext(ctx).Model(&types.Answer{}).
		Where("id = ?", id).Update("graph_synced", synced).Error
}

// ListUnsyncedAnswers returns answers whose graph mirror is pending,
// optionally scoped to one topic.
func (s *Store) ListUnsyncedAnswers(ctx context.Context, topicID *int64) ([]*types.Answer, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN questions q ON q.id = answers.question_id").
		Where("answers.graph_synced = ?", false)
	if topicID != nil {
		q = q.Where("q.topic_id = ?", *topicID)
	}
	var out []*types.Answer
	err := q.Order("answers.id ASC").Find(&out).Error
	return out, err
}
