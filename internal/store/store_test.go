package store

import (
	"context"
	"testing"
	"time"

	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(logger.Nop())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTopic(t *testing.T, s *Store, name string, subtopicNames ...string) (*types.Topic, []*types.Subtopic) {
	t.Helper()
	topic := &types.Topic{Name: name, Description: name + " description", CreatedAt: time.Now().UTC()}
	subs := make([]*types.Subtopic, 0, len(subtopicNames))
	for _, sn := range subtopicNames {
		subs = append(subs, &types.Subtopic{Name: sn, CreatedAt: time.Now().UTC()})
	}
	if err := s.CreateTopicTree(context.Background(), topic, subs); err != nil {
		t.Fatalf("CreateTopicTree: %v", err)
	}
	return topic, subs
}

func TestCreateTopicTree(t *testing.T) {
	s := newTestStore(t)
	topic, subs := seedTopic(t, s, "Photosynthesis", "Light Reactions", "Calvin Cycle")

	if topic.ID == 0 {
		t.Fatal("expected topic id to be assigned")
	}
	for _, st := range subs {
		if st.TopicID != topic.ID {
			t.Errorf("subtopic %q: topic_id = %d, want %d", st.Name, st.TopicID, topic.ID)
		}
	}

	got, err := s.ListSubtopics(context.Background(), topic.ID)
	if err != nil {
		t.Fatalf("ListSubtopics: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d subtopics, want 2", len(got))
	}
}

func TestDuplicateTopicNamesAllowed(t *testing.T) {
	s := newTestStore(t)
	seedTopic(t, s, "Genetics")
	seedTopic(t, s, "Genetics")

	topics, err := s.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
}

func TestGetTopicMissing(t *testing.T) {
	s := newTestStore(t)
	topic, err := s.GetTopic(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if topic != nil {
		t.Fatalf("expected nil topic, got %+v", topic)
	}
}

func seedQuestion(t *testing.T, s *Store, topicID int64, text string) *types.Question {
	t.Helper()
	q := &types.Question{TopicID: topicID, QuestionText: text, ReferenceAnswer: "ref", Difficulty: "medium"}
	if err := s.CreateQuestions(context.Background(), []*types.Question{q}); err != nil {
		t.Fatalf("CreateQuestions: %v", err)
	}
	return q
}

func seedAnswer(t *testing.T, s *Store, questionID int64, correct bool, at time.Time) *types.Answer {
	t.Helper()
	a := &types.Answer{QuestionID: questionID, UserAnswer: "x", IsCorrect: correct, Timestamp: at}
	if err := s.CreateAnswer(context.Background(), a); err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
	return a
}

func TestQuestionStats(t *testing.T) {
	s := newTestStore(t)
	topic, _ := seedTopic(t, s, "Algebra")
	q1 := seedQuestion(t, s, topic.ID, "q1")
	q2 := seedQuestion(t, s, topic.ID, "q2")
	q3 := seedQuestion(t, s, topic.ID, "q3")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// q1: wrong then correct, so the latest answer is correct.
	seedAnswer(t, s, q1.ID, false, base)
	seedAnswer(t, s, q1.ID, true, base.Add(time.Minute))
	// q2: correct then wrong.
	seedAnswer(t, s, q2.ID, true, base)
	seedAnswer(t, s, q2.ID, false, base.Add(time.Minute))
	// q3: never answered.

	stats, err := s.QuestionStats(context.Background(), topic.ID)
	if err != nil {
		t.Fatalf("QuestionStats: %v", err)
	}

	s1, ok := stats[q1.ID]
	if !ok || !s1.HasAnswers || s1.LastCorrect == nil || !*s1.LastCorrect {
		t.Errorf("q1 stat = %+v, want last answer correct", s1)
	}
	if s1.Total != 2 || s1.Correct != 1 {
		t.Errorf("q1 totals = %d/%d, want 1/2 correct", s1.Correct, s1.Total)
	}
	s2 := stats[q2.ID]
	if s2.LastCorrect == nil || *s2.LastCorrect {
		t.Errorf("q2 stat = %+v, want last answer wrong", s2)
	}
	if _, ok := stats[q3.ID]; ok {
		t.Error("q3 has no answers and should not appear in stats")
	}
}

func TestAnswersAreAppendOnly(t *testing.T) {
	s := newTestStore(t)
	topic, _ := seedTopic(t, s, "Chemistry")
	q := seedQuestion(t, s, topic.ID, "q")

	base := time.Now().UTC()
	seedAnswer(t, s, q.ID, false, base)
	seedAnswer(t, s, q.ID, true, base.Add(time.Second))

	answers, err := s.ListAnswers(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("got %d answers, want 2", len(answers))
	}
	if answers[0].IsCorrect || !answers[1].IsCorrect {
		t.Errorf("answers out of order: %v, %v", answers[0].IsCorrect, answers[1].IsCorrect)
	}
}

func TestHistoryScopedToTopic(t *testing.T) {
	s := newTestStore(t)
	t1, _ := seedTopic(t, s, "Topic A")
	t2, _ := seedTopic(t, s, "Topic B")
	q1 := seedQuestion(t, s, t1.ID, "a")
	q2 := seedQuestion(t, s, t2.ID, "b")

	base := time.Now().UTC()
	seedAnswer(t, s, q1.ID, true, base)
	seedAnswer(t, s, q2.ID, false, base.Add(time.Second))

	all, err := s.History(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}
	if all[0].TopicName != "Topic B" {
		t.Errorf("newest entry topic = %q, want Topic B", all[0].TopicName)
	}

	scoped, err := s.History(context.Background(), &t1.ID, 0)
	if err != nil {
		t.Fatalf("History scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].QuestionID != q1.ID {
		t.Fatalf("scoped history = %+v, want only question %d", scoped, q1.ID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	topic, _ := seedTopic(t, s, "History")
	q1 := seedQuestion(t, s, topic.ID, "q1")
	q2 := seedQuestion(t, s, topic.ID, "q2")

	sess, err := s.CreateSession(context.Background(), topic.ID, []int64{q1.ID, q2.ID})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", sess.TotalQuestions)
	}

	if err := s.FinishSession(context.Background(), sess.ID, 1, 50); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}
	got, err := s.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.FinishedAt == nil || got.CorrectAnswers != 1 || got.Score != 50 {
		t.Errorf("finished session = %+v", got)
	}
}

func TestUnsyncedTracking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	topic, _ := seedTopic(t, s, "Physics", "Kinematics")
	q := seedQuestion(t, s, topic.ID, "q")

	pending, err := s.ListUnsyncedTopics(ctx, nil)
	if err != nil {
		t.Fatalf("ListUnsyncedTopics: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d unsynced topics, want 1", len(pending))
	}

	if err := s.MarkTopicSynced(ctx, topic.ID, true); err != nil {
		t.Fatalf("MarkTopicSynced: %v", err)
	}
	pending, err = s.ListUnsyncedTopics(ctx, nil)
	if err != nil {
		t.Fatalf("ListUnsyncedTopics: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("got %d unsynced topics after sync, want 0", len(pending))
	}

	subs, err := s.ListSubtopics(ctx, topic.ID)
	if err != nil {
		t.Fatalf("ListSubtopics: %v", err)
	}
	if !subs[0].GraphSynced {
		t.Error("subtopic should be marked synced with its topic")
	}

	if err := s.MarkQuestionsSynced(ctx, []int64{q.ID}, true); err != nil {
		t.Fatalf("MarkQuestionsSynced: %v", err)
	}
	qs, err := s.ListUnsyncedQuestions(ctx, &topic.ID)
	if err != nil {
		t.Fatalf("ListUnsyncedQuestions: %v", err)
	}
	if len(qs) != 0 {
		t.Fatalf("got %d unsynced questions, want 0", len(qs))
	}
}

func TestTopicStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	topic, subs := seedTopic(t, s, "Biology", "Cells")

	q1 := &types.Question{TopicID: topic.ID, SubtopicID: &subs[0].ID, QuestionText: "q1", ReferenceAnswer: "r", Difficulty: "easy"}
	q2 := &types.Question{TopicID: topic.ID, QuestionText: "q2", ReferenceAnswer: "r", Difficulty: "hard"}
	if err := s.CreateQuestions(ctx, []*types.Question{q1, q2}); err != nil {
		t.Fatalf("CreateQuestions: %v", err)
	}
	seedAnswer(t, s, q1.ID, true, time.Now().UTC())
	seedAnswer(t, s, q1.ID, false, time.Now().UTC())

	stats, err := s.TopicStats(ctx, topic.ID)
	if err != nil {
		t.Fatalf("TopicStats: %v", err)
	}
	if stats.QuestionCount != 2 || stats.AnsweredCount != 1 {
		t.Errorf("counts = %d questions / %d answered, want 2/1", stats.QuestionCount, stats.AnsweredCount)
	}
	if stats.TotalAnswers != 2 || stats.CorrectAnswers != 1 {
		t.Errorf("answers = %d total / %d correct, want 2/1", stats.TotalAnswers, stats.CorrectAnswers)
	}
	if len(stats.Subtopics) != 1 || stats.Subtopics[0].Name != "Cells" || stats.Subtopics[0].Correct != 1 {
		t.Errorf("subtopic breakdown = %+v", stats.Subtopics)
	}
}
