// Package reconcile repairs drift between the relational store and the
// graph mirror. The relational store always wins: rows flagged as pending
// are re-pushed to the graph, and graph data with no relational row is
// reported as orphaned.
package reconcile

import (
	"context"
	"fmt"

	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/types"
)

// Result summarises one sweep. Repaired counts relational rows whose graph
// mirror was re-established. Orphans lists graph topic ids without a
// relational row; they are deleted only when the sweep runs with force.
type Result struct {
	Repaired int      `json:"repaired"`
	Orphans  []int64  `json:"orphans,omitempty"`
	Deleted  []int64  `json:"deleted,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// Sweeper runs reconciliation sweeps. Sweeps are idempotent: a second run
// over a repaired store finds nothing to do.
type Sweeper struct {
	store *store.Store
	graph graph.Store
	log   *logger.Logger
}

// New wires a Sweeper.
func New(st *store.Store, g graph.Store, log *logger.Logger) *Sweeper {
	return &Sweeper{store: st, graph: g, log: log.With("component", "reconcile")}
}

// Run sweeps pending rows back into the graph. A nil topicID sweeps
// everything; force additionally deletes orphaned graph topics. Individual
// repair failures are collected, never fatal.
func (s *Sweeper) Run(ctx context.Context, topicID *int64, force bool) (*Result, error) {
	if !s.graph.Enabled() {
		return nil, graph.ErrDisabled
	}
	res := &Result{}

	s.verifySynced(ctx, topicID, res)
	s.repairTopics(ctx, topicID, res)
	s.repairQuestions(ctx, topicID, res)
	s.repairAnswers(ctx, topicID, res)
	s.findOrphans(ctx, topicID, force, res)

	s.log.Info("reconciliation sweep finished",
		"repaired", res.Repaired, "orphans", len(res.Orphans), "errors", len(res.Errors))
	return res, nil
}

// verifySynced cross-checks topics whose flag claims they are mirrored. A
// topic missing from the graph, or mirrored with fewer nodes than the
// relational store holds, is flagged pending so the repair passes re-push
// it. A lost flag therefore cannot hide a missing node.
func (s *Sweeper) verifySynced(ctx context.Context, topicID *int64, res *Result) {
	var topics []*types.Topic
	if topicID != nil {
		t, err := s.store.GetTopic(ctx, *topicID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: load: %v", *topicID, err))
			return
		}
		if t != nil {
			topics = []*types.Topic{t}
		}
	} else {
		var err error
		topics, err = s.store.ListTopics(ctx)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("list topics: %v", err))
			return
		}
	}

	for _, topic := range topics {
		if !topic.GraphSynced {
			continue
		}
		present, err := s.graph.HasTopic(ctx, topic.ID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: verify: %v", topic.ID, err))
			continue
		}
		drifted := !present
		if present {
			want, err := s.store.CountsForTopic(ctx, topic.ID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("topic %d: count rows: %v", topic.ID, err))
				continue
			}
			got, err := s.graph.TopicCounts(ctx, topic.ID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("topic %d: count nodes: %v", topic.ID, err))
				continue
			}
			drifted = got.Subtopics < want.Subtopics ||
				got.Questions < want.Questions ||
				got.Answers < want.Answers
		}
		if !drifted {
			continue
		}
		if err := s.store.MarkTopicPending(ctx, topic.ID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: flag pending: %v", topic.ID, err))
			continue
		}
		s.log.Warn("graph mirror drift detected", "topic_id", topic.ID)
	}
}

func (s *Sweeper) repairTopics(ctx context.Context, topicID *int64, res *Result) {
	topics, err := s.store.ListUnsyncedTopics(ctx, topicID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list pending topics: %v", err))
		return
	}
	for _, topic := range topics {
		subtopics, err := s.store.ListSubtopics(ctx, topic.ID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: load subtopics: %v", topic.ID, err))
			continue
		}
		rels, err := s.store.ListRelationships(ctx, topic.ID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: load relationships: %v", topic.ID, err))
			continue
		}
		if err := s.graph.UpsertTopicTree(ctx, topic, subtopics, rels); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: mirror: %v", topic.ID, err))
			continue
		}
		if err := s.store.MarkTopicSynced(ctx, topic.ID, true); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: mark synced: %v", topic.ID, err))
			continue
		}
		res.Repaired++
		s.log.Info("repaired topic mirror", "topic_id", topic.ID)
	}
}

func (s *Sweeper) repairQuestions(ctx context.Context, topicID *int64, res *Result) {
	questions, err := s.store.ListUnsyncedQuestions(ctx, topicID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list pending questions: %v", err))
		return
	}
	byTopic := make(map[int64][]int, len(questions))
	for i, q := range questions {
		byTopic[q.TopicID] = append(byTopic[q.TopicID], i)
	}
	for tid, idxs := range byTopic {
		batch := make([]*types.Question, 0, len(idxs))
		for _, i := range idxs {
			batch = append(batch, questions[i])
		}
		if err := s.graph.UpsertQuestions(ctx, tid, batch); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: mirror questions: %v", tid, err))
			continue
		}
		ids := make([]int64, 0, len(batch))
		for _, q := range batch {
			ids = append(ids, q.ID)
		}
		if err := s.store.MarkQuestionsSynced(ctx, ids, true); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: mark questions synced: %v", tid, err))
			continue
		}
		res.Repaired += len(batch)
	}
}

func (s *Sweeper) repairAnswers(ctx context.Context, topicID *int64, res *Result) {
	answers, err := s.store.ListUnsyncedAnswers(ctx, topicID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list pending answers: %v", err))
		return
	}
	for _, a := range answers {
		if err := s.graph.UpsertAnswer(ctx, a.QuestionID, a); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("answer %d: mirror: %v", a.ID, err))
			continue
		}
		if err := s.store.MarkAnswerSynced(ctx, a.ID, true); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("answer %d: mark synced: %v", a.ID, err))
			continue
		}
		res.Repaired++
	}
}

// findOrphans reports graph topics with no relational row. Deleting them is
// destructive and happens only under force.
func (s *Sweeper) findOrphans(ctx context.Context, topicID *int64, force bool, res *Result) {
	graphIDs, err := s.graph.TopicIDs(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list graph topics: %v", err))
		return
	}
	for _, id := range graphIDs {
		if topicID != nil && id != *topicID {
			continue
		}
		topic, err := s.store.GetTopic(ctx, id)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: check: %v", id, err))
			continue
		}
		if topic != nil {
			continue
		}
		res.Orphans = append(res.Orphans, id)
		if !force {
			continue
		}
		if err := s.graph.DeleteTopicTree(ctx, id); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("topic %d: delete orphan: %v", id, err))
			continue
		}
		res.Deleted = append(res.Deleted, id)
		s.log.Warn("deleted orphaned graph topic", "topic_id", id)
	}
}
