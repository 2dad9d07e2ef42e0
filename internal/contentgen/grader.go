package contentgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/inkling/internal/apperr"
	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/llm"
	"github.com/abhisek/inkling/internal/types"
)

// Grade is the grader's verdict on one answer.
type Grade struct {
	IsCorrect          bool
	UnderstandingScore int
	Feedback           string
}

// Grader judges free-text answers against a question's reference answer.
type Grader struct {
	provider llm.Provider
	params   config.GenParams
}

// NewGrader creates a Grader backed by the given provider.
func NewGrader(provider llm.Provider, params config.GenParams) *Grader {
	return &Grader{provider: provider, params: params}
}

type gradeOutput struct {
	IsCorrect          bool   `json:"is_correct"`
	UnderstandingScore int    `json:"understanding_score"`
	Feedback           string `json:"feedback"`
}

// GradeAnswer grades userAnswer against the question. A failure here means
// no verdict: the caller must not record an answer.
func (g *Grader) GradeAnswer(ctx context.Context, question *types.Question, userAnswer string) (*Grade, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGrading)

	req := llm.Request{
		System: gradeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGradeMessage(question.QuestionText, question.ReferenceAnswer, userAnswer)},
		},
		Schema:      GradeSchema,
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, &apperr.GradingError{QuestionID: question.ID, Err: err}
	}

	var raw gradeOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &apperr.GradingError{QuestionID: question.ID, Err: fmt.Errorf("parse response: %w", err)}
	}
	if raw.UnderstandingScore < 1 || raw.UnderstandingScore > 5 {
		return nil, &apperr.GradingError{QuestionID: question.ID, Err: fmt.Errorf("understanding score %d out of range", raw.UnderstandingScore)}
	}

	return &Grade{
		IsCorrect:          raw.IsCorrect,
		UnderstandingScore: raw.UnderstandingScore,
		Feedback:           strings.TrimSpace(raw.Feedback),
	}, nil
}
