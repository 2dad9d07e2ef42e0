package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/abhisek/inkling/internal/apperr"
	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/contentgen"
	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/types"
)

// Service runs quizzes over a topic's question bank.
type Service struct {
	store     *store.Store
	graph     graph.Store
	grader    *contentgen.Grader
	app       config.AppConfig
	aiTimeout time.Duration
	log       *logger.Logger
}

// NewService wires a quiz Service.
func NewService(st *store.Store, g graph.Store, grader *contentgen.Grader, app config.AppConfig, aiTimeout time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		graph:     g,
		grader:    grader,
		app:       app,
		aiTimeout: aiTimeout,
		log:       log.With("component", "quiz"),
	}
}

// Start selects up to count questions for the topic, persists a session
// with that fixed order, and returns a Run. A topic with no questions
// cannot be quizzed.
func (s *Service) Start(ctx context.Context, topicID int64, count int) (*Run, error) {
	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load topic", Err: err}
	}
	if topic == nil {
		return nil, &apperr.NotFoundError{Entity: "topic", ID: topicID}
	}

	questions, err := s.store.ListQuestions(ctx, topicID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load questions", Err: err}
	}
	if len(questions) == 0 {
		return nil, &apperr.NotFoundError{Entity: "questions", ID: topicID}
	}

	stats, err := s.store.QuestionStats(ctx, topicID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load answer stats", Err: err}
	}
	if count <= 0 {
		count = s.app.QuestionsPerSession
	}
	selected := selectQuestions(questions, stats, count)

	ids := make([]int64, 0, len(selected))
	for _, q := range selected {
		ids = append(ids, q.ID)
	}
	session, err := s.store.CreateSession(ctx, topicID, ids)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "create session", Err: err}
	}
	s.log.Info("quiz started", "topic_id", topicID, "session_id", session.ID, "questions", len(selected))
	return NewRun(session, selected), nil
}

// Resume rebuilds a Run for a persisted session, at its starting position.
func (s *Service) Resume(ctx context.Context, sessionID int64) (*Run, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load session", Err: err}
	}
	if session == nil {
		return nil, &apperr.NotFoundError{Entity: "session", ID: sessionID}
	}
	var ids []int64
	if err := json.Unmarshal(session.QuestionIDs, &ids); err != nil {
		return nil, &apperr.PersistenceError{Op: "decode session questions", Err: err}
	}
	questions, err := s.store.GetQuestions(ctx, ids)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load questions", Err: err}
	}
	return NewRun(session, questions), nil
}

// Grade judges a free-text answer and appends it to the question's history.
// When the grader fails no answer row is written; the caller may retry the
// same question.
func (s *Service) Grade(ctx context.Context, questionID int64, userAnswer string) (*types.Answer, error) {
	if strings.TrimSpace(userAnswer) == "" {
		return nil, &apperr.ValidationError{Msg: "answer must not be empty"}
	}
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load question", Err: err}
	}
	if question == nil {
		return nil, &apperr.NotFoundError{Entity: "question", ID: questionID}
	}

	gradeCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	grade, err := s.grader.GradeAnswer(gradeCtx, question, userAnswer)
	cancel()
	if err != nil {
		return nil, err
	}

	score := grade.UnderstandingScore
	answer := &types.Answer{
		QuestionID:         questionID,
		UserAnswer:         userAnswer,
		IsCorrect:          grade.IsCorrect,
		UnderstandingScore: &score,
		Feedback:           grade.Feedback,
		Timestamp:          time.Now().UTC(),
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		return nil, &apperr.PersistenceError{Op: "record answer", Err: err}
	}

	if err := s.graph.UpsertAnswer(ctx, questionID, answer); err != nil {
		if !errors.Is(err, graph.ErrDisabled) {
			s.log.Warn("graph mirror failed for answer", "answer_id", answer.ID, "error", err)
		}
	} else if err := s.store.MarkAnswerSynced(ctx, answer.ID, true); err != nil {
		s.log.Warn("failed to record answer sync state", "answer_id", answer.ID, "error", err)
	} else {
		answer.GraphSynced = true
	}
	return answer, nil
}

// Finish computes the run's results and stamps the session row.
func (s *Service) Finish(ctx context.Context, run *Run) (Results, error) {
	results := ComputeResults(run.Answers())
	if err := s.store.FinishSession(ctx, run.Session().ID, results.CorrectAnswers, results.Score); err != nil {
		return results, &apperr.PersistenceError{Op: "finish session", Err: err}
	}
	s.log.Info("quiz finished", "session_id", run.Session().ID,
		"correct", results.CorrectAnswers, "total", results.TotalQuestions)
	return results, nil
}

// FinishSession computes results from the given answer rows and stamps the
// session. Used by API clients that track their run client-side.
func (s *Service) FinishSession(ctx context.Context, sessionID int64, answerIDs []int64) (Results, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Results{}, &apperr.PersistenceError{Op: "load session", Err: err}
	}
	if session == nil {
		return Results{}, &apperr.NotFoundError{Entity: "session", ID: sessionID}
	}
	answers, err := s.store.GetAnswers(ctx, answerIDs)
	if err != nil {
		return Results{}, &apperr.PersistenceError{Op: "load answers", Err: err}
	}
	results := ComputeResults(answers)
	if err := s.store.FinishSession(ctx, sessionID, results.CorrectAnswers, results.Score); err != nil {
		return results, &apperr.PersistenceError{Op: "finish session", Err: err}
	}
	return results, nil
}

// History returns recent graded answers, optionally scoped to a topic.
func (s *Service) History(ctx context.Context, topicID *int64, limit int) ([]store.HistoryEntry, error) {
	return s.store.History(ctx, topicID, limit)
}

// Sessions returns past quiz sessions, newest first.
func (s *Service) Sessions(ctx context.Context, topicID *int64, limit int) ([]*types.QuizSession, error) {
	return s.store.ListSessions(ctx, topicID, limit)
}

// TopicStats returns the performance summary for one topic.
func (s *Service) TopicStats(ctx context.Context, topicID int64) (*store.TopicStats, error) {
	stats, err := s.store.TopicStats(ctx, topicID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load stats", Err: err}
	}
	if stats == nil {
		return nil, &apperr.NotFoundError{Entity: "topic", ID: topicID}
	}
	return stats, nil
}
