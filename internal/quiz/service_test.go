package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/inkling/internal/apperr"
	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/contentgen"
	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/llm"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/types"
)

func newService(t *testing.T, mock *llm.MockProvider, g graph.Store) (*Service, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory(logger.Nop())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	grader := contentgen.NewGrader(mock, config.GenParams{Temperature: 0.2, MaxTokens: 1024})
	svc := NewService(st, g, grader, config.AppConfig{DefaultQuestionCount: 10, QuestionsPerSession: 5}, 30*time.Second, logger.Nop())
	return svc, st
}

func seedTopicWithQuestions(t *testing.T, st *store.Store, n int) (*types.Topic, []*types.Question) {
	t.Helper()
	topic := &types.Topic{Name: "Biology", CreatedAt: time.Now().UTC()}
	if err := st.CreateTopicTree(context.Background(), topic, nil); err != nil {
		t.Fatalf("CreateTopicTree: %v", err)
	}
	questions := make([]*types.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, &types.Question{
			TopicID:         topic.ID,
			QuestionText:    "q",
			ReferenceAnswer: "r",
			Difficulty:      "medium",
		})
	}
	if err := st.CreateQuestions(context.Background(), questions); err != nil {
		t.Fatalf("CreateQuestions: %v", err)
	}
	return topic, questions
}

func TestStartFixesQuestionOrder(t *testing.T) {
	svc, st := newService(t, llm.NewMockProvider(), graph.NewFake())
	topic, questions := seedTopicWithQuestions(t, st, 3)

	// Middle question answered wrong, last answered right: order becomes
	// unseen, then wrong, then mastered.
	seedGraded(t, st, questions[1].ID, false)
	seedGraded(t, st, questions[2].ID, true)

	run, err := svc.Start(context.Background(), topic.ID, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var ids []int64
	if err := json.Unmarshal(run.Session().QuestionIDs, &ids); err != nil {
		t.Fatalf("decode session order: %v", err)
	}
	want := []int64{questions[0].ID, questions[1].ID, questions[2].ID}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("session order = %v, want %v", ids, want)
		}
	}
}

func seedGraded(t *testing.T, st *store.Store, questionID int64, correct bool) {
	t.Helper()
	a := &types.Answer{QuestionID: questionID, UserAnswer: "x", IsCorrect: correct, Timestamp: time.Now().UTC()}
	if err := st.CreateAnswer(context.Background(), a); err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
}

func TestStartMissingTopic(t *testing.T) {
	svc, _ := newService(t, llm.NewMockProvider(), graph.NewFake())
	_, err := svc.Start(context.Background(), 42, 0)
	if !apperr.IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestStartTopicWithoutQuestions(t *testing.T) {
	svc, st := newService(t, llm.NewMockProvider(), graph.NewFake())
	topic := &types.Topic{Name: "Empty", CreatedAt: time.Now().UTC()}
	if err := st.CreateTopicTree(context.Background(), topic, nil); err != nil {
		t.Fatalf("CreateTopicTree: %v", err)
	}
	_, err := svc.Start(context.Background(), topic.ID, 0)
	if !apperr.IsNotFound(err) {
		t.Fatalf("want NotFoundError for question-less topic, got %v", err)
	}
}

func TestGradeWritesAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"is_correct": true, "understanding_score": 4, "feedback": "Nice."}`)})
	fake := graph.NewFake()
	svc, st := newService(t, mock, fake)
	_, questions := seedTopicWithQuestions(t, st, 1)

	answer, err := svc.Grade(context.Background(), questions[0].ID, "my answer")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if !answer.IsCorrect || answer.UnderstandingScore == nil || *answer.UnderstandingScore != 4 {
		t.Errorf("answer = %+v", answer)
	}
	if !answer.GraphSynced {
		t.Error("answer should be mirrored and marked synced")
	}
	if len(fake.Answers) != 1 {
		t.Errorf("graph mirror holds %d answers, want 1", len(fake.Answers))
	}

	rows, _ := st.ListAnswers(context.Background(), questions[0].ID)
	if len(rows) != 1 {
		t.Fatalf("got %d answer rows, want 1", len(rows))
	}
}

func TestGradeFailureWritesNothing(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	svc, st := newService(t, mock, graph.NewFake())
	_, questions := seedTopicWithQuestions(t, st, 1)

	_, err := svc.Grade(context.Background(), questions[0].ID, "my answer")
	var gradeErr *apperr.GradingError
	if !errors.As(err, &gradeErr) {
		t.Fatalf("want GradingError, got %v", err)
	}
	rows, _ := st.ListAnswers(context.Background(), questions[0].ID)
	if len(rows) != 0 {
		t.Fatalf("grading failure must not write an answer, got %d rows", len(rows))
	}
}

func TestGradeEmptyAnswer(t *testing.T) {
	svc, st := newService(t, llm.NewMockProvider(), graph.NewFake())
	_, questions := seedTopicWithQuestions(t, st, 1)

	_, err := svc.Grade(context.Background(), questions[0].ID, "   ")
	if !apperr.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestGradeGraphFailureStillRecords(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"is_correct": false, "understanding_score": 2, "feedback": "Not quite."}`)})
	fake := graph.NewFake()
	fake.FailWrites = true
	svc, st := newService(t, mock, fake)
	_, questions := seedTopicWithQuestions(t, st, 1)

	answer, err := svc.Grade(context.Background(), questions[0].ID, "wrong answer")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if answer.GraphSynced {
		t.Error("answer should stay pending sync")
	}
	pending, _ := st.ListUnsyncedAnswers(context.Background(), nil)
	if len(pending) != 1 {
		t.Fatalf("%d answers pending sync, want 1", len(pending))
	}
}

func TestFinishStampsSession(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"is_correct": true, "understanding_score": 5, "feedback": "f"}`)},
		llm.MockResponse{Content: json.RawMessage(`{"is_correct": false, "understanding_score": 2, "feedback": "f"}`)},
	)
	svc, st := newService(t, mock, graph.NewFake())
	topic, _ := seedTopicWithQuestions(t, st, 2)

	run, err := svc.Start(context.Background(), topic.ID, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for {
		q, err := run.NextQuestion()
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if q == nil {
			break
		}
		a, err := svc.Grade(context.Background(), q.ID, "attempt")
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if err := run.RecordGrade(a); err != nil {
			t.Fatalf("RecordGrade: %v", err)
		}
	}

	results, err := svc.Finish(context.Background(), run)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if results.TotalQuestions != 2 || results.CorrectAnswers != 1 || results.Score != 50 {
		t.Errorf("results = %+v", results)
	}

	sess, _ := st.GetSession(context.Background(), run.Session().ID)
	if sess.FinishedAt == nil || sess.CorrectAnswers != 1 || sess.Score != 50 {
		t.Errorf("persisted session = %+v", sess)
	}
}

func TestRunStateMachine(t *testing.T) {
	q1 := &types.Question{ID: 1}
	run := NewRun(&types.QuizSession{ID: 1}, []*types.Question{q1})

	if run.State() != StateStarted {
		t.Fatalf("state = %s", run.State())
	}
	if err := run.RecordGrade(&types.Answer{}); err == nil {
		t.Fatal("recording before a question is asked must fail")
	}

	q, err := run.NextQuestion()
	if err != nil || q != q1 {
		t.Fatalf("NextQuestion = %v, %v", q, err)
	}
	if run.State() != StateAnswering {
		t.Fatalf("state = %s, want ANSWERING", run.State())
	}
	if _, err := run.NextQuestion(); err == nil {
		t.Fatal("advancing mid-answer must fail")
	}
	if err := run.RecordGrade(&types.Answer{IsCorrect: true}); err != nil {
		t.Fatalf("RecordGrade: %v", err)
	}
	if run.State() != StateFeedbackShown {
		t.Fatalf("state = %s, want FEEDBACK_SHOWN", run.State())
	}

	q, err = run.NextQuestion()
	if err != nil || q != nil {
		t.Fatalf("exhausted NextQuestion = %v, %v", q, err)
	}
	if !run.Done() {
		t.Fatal("run should be completed")
	}
	if _, err := run.NextQuestion(); err == nil {
		t.Fatal("advancing a completed run must fail")
	}
}
