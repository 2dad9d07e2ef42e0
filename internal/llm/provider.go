// Package llm abstracts the external AI provider behind a single Provider
// interface. The content generator and grader are the only consumers; both
// send a prompt with a JSON schema and receive validated structured output.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for AI interaction.
type Provider interface {
	// Generate sends a prompt to the model and returns structured JSON.
	// When the request carries a Schema the provider uses its native
	// structured-output mechanism and the response Content is the
	// validated JSON document.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role ("You are a knowledge graph
	// generator...", "You are an educational quiz grader...").
	System string

	// Messages is the conversation. Generation and grading are single
	// turn, so this holds one user message.
	Messages []Message

	// Schema, when set, is the JSON Schema the response must conform to.
	Schema *Schema

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature controls sampling randomness (0.0-1.0).
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema ("knowledge-graph", "quiz-questions",
	// "answer-grade"). Used as the structured-output name and as the
	// compile cache key.
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. With a Schema in the request this
	// is the validated JSON object.
	Content json.RawMessage

	// Usage reports token consumption.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
