// Package graph mirrors the relational record into Neo4j. The mirror is
// best-effort and derived: it can always be rebuilt from the relational
// store, and the relational store wins on any disagreement.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/types"
)

// ErrDisabled is returned by every operation when no graph store is
// configured. Callers treat it as "mirror pending", not as a failure.
var ErrDisabled = errors.New("graph store not configured")

// Store is the graph mirror surface. Implementations must be idempotent:
// re-issuing a write for data already present is a no-op.
type Store interface {
	Enabled() bool
	EnsureSchema(ctx context.Context) error
	UpsertTopicTree(ctx context.Context, topic *types.Topic, subtopics []*types.Subtopic, rels []types.Relationship) error
	UpsertQuestions(ctx context.Context, topicID int64, questions []*types.Question) error
	UpsertAnswer(ctx context.Context, questionID int64, answer *types.Answer) error
	DeleteTopicTree(ctx context.Context, topicID int64) error
	TopicIDs(ctx context.Context) ([]int64, error)
	HasTopic(ctx context.Context, topicID int64) (bool, error)
	TopicCounts(ctx context.Context, topicID int64) (Counts, error)
	RelatedSubtopics(ctx context.Context, subtopicID int64) ([]Neighbor, error)
	Close(ctx context.Context) error
}

// Counts reports how much of one topic the graph currently holds.
type Counts struct {
	Subtopics int
	Questions int
	Answers   int
}

// Neighbor is a subtopic reachable over a RELATES_TO edge.
type Neighbor struct {
	SubtopicID int64  `json:"subtopic_id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
}

// New builds a graph store from config. An empty URI yields a disabled
// store whose operations return ErrDisabled.
func New(ctx context.Context, cfg config.Neo4jConfig, log *logger.Logger) (Store, error) {
	if cfg.URI == "" {
		log.Info("graph store disabled, no Neo4j URI configured")
		return disabledStore{}, nil
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &neo4jStore{driver: driver, log: log.With("component", "graph")}, nil
}

type disabledStore struct{}

func (disabledStore) Enabled() bool                           { return false }
func (disabledStore) EnsureSchema(context.Context) error      { return nil }
func (disabledStore) Close(context.Context) error             { return nil }
func (disabledStore) TopicIDs(context.Context) ([]int64, error) { return nil, ErrDisabled }
func (disabledStore) HasTopic(context.Context, int64) (bool, error) {
	return false, ErrDisabled
}
func (disabledStore) TopicCounts(context.Context, int64) (Counts, error) {
	return Counts{}, ErrDisabled
}
func (disabledStore) RelatedSubtopics(context.Context, int64) ([]Neighbor, error) {
	return nil, ErrDisabled
}
func (disabledStore) UpsertTopicTree(context.Context, *types.Topic, []*types.Subtopic, []types.Relationship) error {
	return ErrDisabled
}
func (disabledStore) UpsertQuestions(context.Context, int64, []*types.Question) error {
	return ErrDisabled
}
func (disabledStore) UpsertAnswer(context.Context, int64, *types.Answer) error {
	return ErrDisabled
}
func (disabledStore) DeleteTopicTree(context.Context, int64) error { return ErrDisabled }
