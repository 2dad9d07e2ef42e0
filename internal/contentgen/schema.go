// Package contentgen turns a topic name into learning content: the subtopic
// knowledge graph, quiz questions, and graded answers. All three go through
// the llm provider with a JSON schema attached.
package contentgen

import "github.com/abhisek/inkling/internal/llm"

// KnowledgeGraphSchema defines the JSON schema for topic breakdown responses.
var KnowledgeGraphSchema = &llm.Schema{
	Name:        "knowledge-graph",
	Description: "A topic broken down into subtopics with learning relationships",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "A one-paragraph overview of the topic",
			},
			"subtopics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Short subtopic name, unique within the topic",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "One or two sentences on what this subtopic covers",
						},
						"prerequisites": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Names of subtopics that should be learned before this one",
						},
						"related": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Names of subtopics that are related but not prerequisites",
						},
					},
					"required":             []any{"name", "description", "prerequisites", "related"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"description", "subtopics"},
		"additionalProperties": false,
	},
}

// QuestionsSchema defines the JSON schema for quiz question generation.
var QuestionsSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "A batch of open-ended quiz questions for a topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_text": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "A model answer used as the grading reference",
						},
						"subtopic": map[string]any{
							"type":        "string",
							"description": "Name of the subtopic this question belongs to, from the provided list",
						},
						"difficulty": map[string]any{
							"type":        "string",
							"enum":        []any{"easy", "medium", "hard"},
							"description": "How hard the question is for someone new to the topic",
						},
					},
					"required":             []any{"question_text", "correct_answer", "subtopic", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// GradeSchema defines the JSON schema for answer grading responses.
var GradeSchema = &llm.Schema{
	Name:        "answer-grade",
	Description: "A graded free-text answer with feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct": map[string]any{
				"type":        "boolean",
				"description": "Whether the answer demonstrates correct understanding",
			},
			"understanding_score": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     5,
				"description": "Depth of understanding from 1 (none) to 5 (complete)",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two or three sentences of constructive feedback for the learner",
			},
		},
		"required":             []any{"is_correct", "understanding_score", "feedback"},
		"additionalProperties": false,
	},
}
