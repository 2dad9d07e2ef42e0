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

// KnowledgeGraph is the model's breakdown of a topic before persistence.
type KnowledgeGraph struct {
	Description string
	Subtopics   []GeneratedSubtopic
}

// GeneratedSubtopic names prerequisites and related subtopics by name;
// persistence resolves them to ids.
type GeneratedSubtopic struct {
	Name          string
	Description   string
	Prerequisites []string
	Related       []string
}

// GraphGenerator produces knowledge graphs for new topics.
type GraphGenerator struct {
	provider llm.Provider
	params   config.GenParams
}

// NewGraphGenerator creates a GraphGenerator backed by the given provider.
func NewGraphGenerator(provider llm.Provider, params config.GenParams) *GraphGenerator {
	return &GraphGenerator{provider: provider, params: params}
}

type graphOutput struct {
	Description string `json:"description"`
	Subtopics   []struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		Prerequisites []string `json:"prerequisites"`
		Related       []string `json:"related"`
	} `json:"subtopics"`
}

// Generate asks the model to break the topic into subtopics. Subtopics with
// blank names and links pointing outside the generated set are dropped.
func (g *GraphGenerator) Generate(ctx context.Context, topic string) (*KnowledgeGraph, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeKnowledgeGraph)

	req := llm.Request{
		System: graphSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGraphMessage(topic)},
		},
		Schema:      KnowledgeGraphSchema,
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "knowledge-graph", Err: err}
	}

	var raw graphOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &apperr.GenerationError{Stage: "knowledge-graph", Err: fmt.Errorf("parse response: %w", err)}
	}

	kg := &KnowledgeGraph{Description: strings.TrimSpace(raw.Description)}
	names := make(map[string]bool, len(raw.Subtopics))
	for _, st := range raw.Subtopics {
		name := strings.TrimSpace(st.Name)
		if name == "" || names[name] {
			continue
		}
		names[name] = true
		kg.Subtopics = append(kg.Subtopics, GeneratedSubtopic{
			Name:          name,
			Description:   strings.TrimSpace(st.Description),
			Prerequisites: st.Prerequisites,
			Related:       st.Related,
		})
	}
	if len(kg.Subtopics) == 0 {
		return nil, &apperr.GenerationError{Stage: "knowledge-graph", Err: fmt.Errorf("model returned no subtopics")}
	}

	// Keep only links that point at generated subtopics.
	for i := range kg.Subtopics {
		kg.Subtopics[i].Prerequisites = filterKnown(kg.Subtopics[i].Prerequisites, names, kg.Subtopics[i].Name)
		kg.Subtopics[i].Related = filterKnown(kg.Subtopics[i].Related, names, kg.Subtopics[i].Name)
	}
	return kg, nil
}

func filterKnown(links []string, names map[string]bool, self string) []string {
	var out []string
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l != "" && l != self && names[l] {
			out = append(out, l)
		}
	}
	return out
}
