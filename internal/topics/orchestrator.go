// Package topics orchestrates topic creation across the AI provider, the
// relational store and the graph mirror. The relational store is
// authoritative; graph failures degrade to warnings and leave rows flagged
// for the reconciliation sweep.
package topics

import (
	"context"
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

// Orchestrator runs the topic creation pipeline.
type Orchestrator struct {
	store       *store.Store
	graph       graph.Store
	graphGen    *contentgen.GraphGenerator
	questionGen *contentgen.QuestionGenerator
	app         config.AppConfig
	aiTimeout   time.Duration
	log         *logger.Logger
}

// New wires an Orchestrator.
func New(st *store.Store, g graph.Store, graphGen *contentgen.GraphGenerator, questionGen *contentgen.QuestionGenerator, app config.AppConfig, aiTimeout time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:       st,
		graph:       g,
		graphGen:    graphGen,
		questionGen: questionGen,
		app:         app,
		aiTimeout:   aiTimeout,
		log:         log.With("component", "topics"),
	}
}

// CreateResult is the outcome of CreateTopic. Warnings carry the non-fatal
// failures of the later pipeline stages; the topic in Result is always
// fully persisted relationally.
type CreateResult struct {
	Topic     *types.Topic
	Subtopics []*types.Subtopic
	Questions []*types.Question
	Warnings  []error
}

// CreateTopic runs the full pipeline: generate the knowledge graph, persist
// it relationally in one transaction, mirror it to the graph store, then
// generate and persist an initial question set. Once the relational persist
// succeeds the topic exists; every later failure is reported as a warning,
// never as an error.
func (o *Orchestrator) CreateTopic(ctx context.Context, name string) (*CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &apperr.ValidationError{Msg: "topic name must not be empty"}
	}

	genCtx, cancel := context.WithTimeout(ctx, o.aiTimeout)
	kg, err := o.graphGen.Generate(genCtx, name)
	cancel()
	if err != nil {
		return nil, err
	}

	topic := &types.Topic{Name: name, Description: kg.Description, CreatedAt: time.Now().UTC()}
	subtopics := make([]*types.Subtopic, 0, len(kg.Subtopics))
	for _, st := range kg.Subtopics {
		subtopics = append(subtopics, &types.Subtopic{
			Name:        st.Name,
			Description: st.Description,
			CreatedAt:   topic.CreatedAt,
		})
	}
	if err := o.store.CreateTopicTree(ctx, topic, subtopics); err != nil {
		return nil, &apperr.PersistenceError{Op: "create topic", Err: err}
	}
	o.log.Info("topic persisted", "topic_id", topic.ID, "name", name, "subtopics", len(subtopics))

	result := &CreateResult{Topic: topic, Subtopics: subtopics}

	rels := buildRelationships(kg.Subtopics, subtopics)
	if err := o.store.CreateRelationships(ctx, rels); err != nil {
		o.log.Warn("failed to persist subtopic relationships", "topic_id", topic.ID, "error", err)
	}

	// Graph mirror, best-effort. Failure leaves graph_synced false for
	// the reconciliation sweep.
	if err := o.graph.UpsertTopicTree(ctx, topic, subtopics, rels); err != nil {
		if !errors.Is(err, graph.ErrDisabled) {
			o.log.Warn("graph mirror failed for topic", "topic_id", topic.ID, "error", err)
			result.Warnings = append(result.Warnings, &apperr.PartialSyncWarning{Entity: "topic", Err: err})
		}
	} else if err := o.store.MarkTopicSynced(ctx, topic.ID, true); err != nil {
		o.log.Warn("failed to record topic sync state", "topic_id", topic.ID, "error", err)
	} else {
		topic.GraphSynced = true
		for _, st := range subtopics {
			st.GraphSynced = true
		}
	}

	questions, warns := o.generateAndPersist(ctx, topic, subtopics, o.app.DefaultQuestionCount, nil)
	result.Questions = questions
	result.Warnings = append(result.Warnings, warns...)
	return result, nil
}

// GenerateQuestions adds count more questions to an existing topic, steering
// the model away from the topic's current question texts.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, topicID int64, count int) ([]*types.Question, []error, error) {
	topic, err := o.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, nil, &apperr.PersistenceError{Op: "load topic", Err: err}
	}
	if topic == nil {
		return nil, nil, &apperr.NotFoundError{Entity: "topic", ID: topicID}
	}
	subtopics, err := o.store.ListSubtopics(ctx, topicID)
	if err != nil {
		return nil, nil, &apperr.PersistenceError{Op: "load subtopics", Err: err}
	}
	existing, err := o.store.ListQuestions(ctx, topicID)
	if err != nil {
		return nil, nil, &apperr.PersistenceError{Op: "load questions", Err: err}
	}
	texts := make([]string, 0, len(existing))
	for _, q := range existing {
		texts = append(texts, q.QuestionText)
	}
	if count <= 0 {
		count = o.app.DefaultQuestionCount
	}

	questions, warns := o.generateAndPersist(ctx, topic, subtopics, count, texts)
	if questions == nil && len(warns) > 0 {
		// Nothing was added; surface the first failure as the error.
		return nil, nil, warns[0]
	}
	return questions, warns, nil
}

// generateAndPersist runs the question half of the pipeline. It never
// returns an error: generation or persistence failures come back as
// warnings so an already-created topic is still usable.
func (o *Orchestrator) generateAndPersist(ctx context.Context, topic *types.Topic, subtopics []*types.Subtopic, count int, existing []string) ([]*types.Question, []error) {
	names := make([]string, 0, len(subtopics))
	byName := make(map[string]*types.Subtopic, len(subtopics))
	for _, st := range subtopics {
		names = append(names, st.Name)
		byName[st.Name] = st
	}

	genCtx, cancel := context.WithTimeout(ctx, o.aiTimeout)
	generated, err := o.questionGen.Generate(genCtx, topic.Name, names, count, existing)
	cancel()
	if err != nil {
		o.log.Warn("question generation failed", "topic_id", topic.ID, "error", err)
		return nil, []error{err}
	}

	questions := make([]*types.Question, 0, len(generated))
	for _, gq := range generated {
		q := &types.Question{
			TopicID:         topic.ID,
			QuestionText:    gq.QuestionText,
			ReferenceAnswer: gq.ReferenceAnswer,
			Difficulty:      gq.Difficulty,
		}
		if st, ok := byName[gq.Subtopic]; ok {
			q.SubtopicID = &st.ID
		}
		questions = append(questions, q)
	}
	if err := o.store.CreateQuestions(ctx, questions); err != nil {
		perr := &apperr.PersistenceError{Op: "persist questions", Err: err}
		o.log.Warn("question persistence failed", "topic_id", topic.ID, "error", err)
		return nil, []error{perr}
	}
	o.log.Info("questions persisted", "topic_id", topic.ID, "count", len(questions))

	var warns []error
	if err := o.graph.UpsertQuestions(ctx, topic.ID, questions); err != nil {
		if !errors.Is(err, graph.ErrDisabled) {
			o.log.Warn("graph mirror failed for questions", "topic_id", topic.ID, "error", err)
			warns = append(warns, &apperr.PartialSyncWarning{Entity: "questions", Err: err})
		}
	} else {
		ids := make([]int64, 0, len(questions))
		for _, q := range questions {
			ids = append(ids, q.ID)
		}
		if err := o.store.MarkQuestionsSynced(ctx, ids, true); err != nil {
			o.log.Warn("failed to record question sync state", "topic_id", topic.ID, "error", err)
		} else {
			for _, q := range questions {
				q.GraphSynced = true
			}
		}
	}
	return questions, warns
}

// GetTopic loads one topic or returns a NotFoundError.
func (o *Orchestrator) GetTopic(ctx context.Context, id int64) (*types.Topic, error) {
	topic, err := o.store.GetTopic(ctx, id)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load topic", Err: err}
	}
	if topic == nil {
		return nil, &apperr.NotFoundError{Entity: "topic", ID: id}
	}
	return topic, nil
}

// ListTopics returns all topics, newest first.
func (o *Orchestrator) ListTopics(ctx context.Context) ([]*types.Topic, error) {
	return o.store.ListTopics(ctx)
}

// ListSubtopics returns a topic's subtopics, failing when the topic is absent.
func (o *Orchestrator) ListSubtopics(ctx context.Context, topicID int64) ([]*types.Subtopic, error) {
	if _, err := o.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return o.store.ListSubtopics(ctx, topicID)
}

// ListQuestions returns a topic's questions, failing when the topic is absent.
func (o *Orchestrator) ListQuestions(ctx context.Context, topicID int64) ([]*types.Question, error) {
	if _, err := o.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return o.store.ListQuestions(ctx, topicID)
}

// buildRelationships resolves generated name links to id edges. Prerequisite
// edges point from the prerequisite to the dependent subtopic; related edges
// are kept once per pair.
func buildRelationships(generated []contentgen.GeneratedSubtopic, persisted []*types.Subtopic) []types.Relationship {
	idByName := make(map[string]int64, len(persisted))
	for _, st := range persisted {
		idByName[st.Name] = st.ID
	}

	var rels []types.Relationship
	seen := make(map[[2]int64]bool)
	for _, gs := range generated {
		to, ok := idByName[gs.Name]
		if !ok {
			continue
		}
		for _, p := range gs.Prerequisites {
			if from, ok := idByName[p]; ok {
				rels = append(rels, types.Relationship{SubtopicA: from, SubtopicB: to, Kind: types.RelPrerequisite})
			}
		}
		for _, r := range gs.Related {
			other, ok := idByName[r]
			if !ok {
				continue
			}
			a, b := to, other
			if a > b {
				a, b = b, a
			}
			key := [2]int64{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true
			rels = append(rels, types.Relationship{SubtopicA: a, SubtopicB: b, Kind: types.RelRelatedTo})
		}
	}
	return rels
}
