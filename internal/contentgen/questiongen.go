package contentgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/inkling/internal/apperr"
	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/llm"
)

// GeneratedQuestion is one quiz question before persistence. Subtopic is a
// name from the topic's subtopic list, or empty when the model assigned none.
type GeneratedQuestion struct {
	QuestionText    string
	ReferenceAnswer string
	Subtopic        string
	Difficulty      string
}

// QuestionGenerator produces quiz questions for an existing topic.
type QuestionGenerator struct {
	provider llm.Provider
	params   config.GenParams
}

// NewQuestionGenerator creates a QuestionGenerator backed by the given provider.
func NewQuestionGenerator(provider llm.Provider, params config.GenParams) *QuestionGenerator {
	return &QuestionGenerator{provider: provider, params: params}
}

type questionsOutput struct {
	Questions []struct {
		QuestionText  string `json:"question_text"`
		CorrectAnswer string `json:"correct_answer"`
		Subtopic      string `json:"subtopic"`
		Difficulty    string `json:"difficulty"`
	} `json:"questions"`
}

// Generate asks the model for count questions, steering it away from the
// texts in existing. Questions with blank text or answer are dropped; an
// unknown subtopic name degrades to no subtopic rather than failing.
func (g *QuestionGenerator) Generate(ctx context.Context, topic string, subtopics []string, count int, existing []string) ([]GeneratedQuestion, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.Request{
		System: questionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildQuestionMessage(topic, subtopics, count, existing)},
		},
		Schema:      QuestionsSchema,
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "questions", Err: err}
	}

	var raw questionsOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &apperr.GenerationError{Stage: "questions", Err: fmt.Errorf("parse response: %w", err)}
	}

	known := make(map[string]bool, len(subtopics))
	for _, s := range subtopics {
		known[s] = true
	}

	var out []GeneratedQuestion
	for _, q := range raw.Questions {
		text := strings.TrimSpace(q.QuestionText)
		answer := strings.TrimSpace(q.CorrectAnswer)
		if text == "" || answer == "" {
			continue
		}
		sub := strings.TrimSpace(q.Subtopic)
		if !known[sub] {
			sub = ""
		}
		out = append(out, GeneratedQuestion{
			QuestionText:    text,
			ReferenceAnswer: answer,
			Subtopic:        sub,
			Difficulty:      normalizeDifficulty(q.Difficulty),
		})
	}
	if len(out) == 0 {
		return nil, &apperr.GenerationError{Stage: "questions", Err: fmt.Errorf("model returned no usable questions")}
	}
	return out, nil
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}
