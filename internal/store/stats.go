package store

import "context"

// SubtopicStat aggregates answer outcomes for one subtopic of a topic.
type SubtopicStat struct {
	SubtopicID int64  `json:"subtopic_id"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
}

// TopicStats is the per-topic performance summary shown by the stats views.
type TopicStats struct {
	TopicID        int64          `json:"topic_id"`
	TopicName      string         `json:"topic_name"`
	QuestionCount  int            `json:"question_count"`
	AnsweredCount  int            `json:"answered_count"`
	TotalAnswers   int            `json:"total_answers"`
	CorrectAnswers int            `json:"correct_answers"`
	Subtopics      []SubtopicStat `json:"subtopics"`
}

// TopicStats aggregates a topic's answer history: overall totals plus a
// per-subtopic breakdown. Questions without a subtopic are counted in the
// totals but not in any breakdown row.
func (s *Store) TopicStats(ctx context.Context, topicID int64) (*TopicStats, error) {
	topic, err := s.GetTopic(ctx, topicID)
	if err != nil || topic == nil {
		return nil, err
	}
	out := &TopicStats{TopicID: topic.ID, TopicName: topic.Name}

	type totals struct {
		QuestionCount  int
		AnsweredCount  int
		TotalAnswers   int
		CorrectAnswers int
	}
	var t totals
	err = s.db.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT q.id) AS question_count,
		       COUNT(DISTINCT a.question_id) AS answered_count,
		       COUNT(a.id) AS total_answers,
		       SUM(CASE WHEN a.is_correct THEN 1 ELSE 0 END) AS correct_answers
		FROM questions q
		LEFT JOIN answers a ON a.question_id = q.id
		WHERE q.topic_id = ?`, topicID).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	out.QuestionCount = t.QuestionCount
	out.AnsweredCount = t.AnsweredCount
	out.TotalAnswers = t.TotalAnswers
	out.CorrectAnswers = t.CorrectAnswers

	err = s.db.WithContext(ctx).Raw(`
		SELECT st.id AS subtopic_id,
		       st.name,
		       COUNT(a.id) AS total,
		       SUM(CASE WHEN a.is_correct THEN 1 ELSE 0 END) AS correct
		FROM subtopics st
		JOIN questions q ON q.subtopic_id = st.id
		JOIN answers a ON a.question_id = q.id
		WHERE st.topic_id = ?
		GROUP BY st.id, st.name
		ORDER BY st.id`, topicID).Scan(&out.Subtopics).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
