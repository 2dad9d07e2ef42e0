package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/types"
)

type neo4jStore struct {
	driver neo4j.DriverWithContext
	log    *logger.Logger
}

func (g *neo4jStore) Enabled() bool { return true }

func (g *neo4jStore) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// EnsureSchema creates uniqueness constraints on node ids. Constraint
// creation failures are logged and ignored; the mirror works without them.
func (g *neo4jStore) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT topic_id IF NOT EXISTS FOR (t:Topic) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT subtopic_id IF NOT EXISTS FOR (s:Subtopic) REQUIRE s.id IS UNIQUE",
		"CREATE CONSTRAINT question_id IF NOT EXISTS FOR (q:Question) REQUIRE q.id IS UNIQUE",
		"CREATE CONSTRAINT answer_id IF NOT EXISTS FOR (a:Answer) REQUIRE a.id IS UNIQUE",
	}
	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			g.log.Warn("failed to create graph constraint", "error", err)
		}
	}
	return nil
}

// UpsertTopicTree mirrors a topic, its subtopics and their relationship
// edges. MERGE keeps the write idempotent so the reconciliation sweep can
// replay it safely.
func (g *neo4jStore) UpsertTopicTree(ctx context.Context, topic *types.Topic, subtopics []*types.Subtopic, rels []types.Relationship) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	subParams := make([]map[string]any, 0, len(subtopics))
	for _, st := range subtopics {
		subParams = append(subParams, map[string]any{
			"id":          st.ID,
			"name":        st.Name,
			"description": st.Description,
		})
	}
	relParams := make([]map[string]any, 0, len(rels))
	for _, r := range rels {
		relParams = append(relParams, map[string]any{
			"a":    r.SubtopicA,
			"b":    r.SubtopicB,
			"kind": r.Kind,
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (t:Topic {id: $id})
			SET t.name = $name, t.description = $description
			WITH t
			UNWIND $subtopics AS sub
			MERGE (s:Subtopic {id: sub.id})
			SET s.name = sub.name, s.description = sub.description
			MERGE (t)-[:HAS_SUBTOPIC]->(s)`,
			map[string]any{
				"id":          topic.ID,
				"name":        topic.Name,
				"description": topic.Description,
				"subtopics":   subParams,
			})
		if err != nil {
			return nil, err
		}
		if len(relParams) == 0 {
			return nil, nil
		}
		_, err = tx.Run(ctx, `
			UNWIND $rels AS rel
			MATCH (a:Subtopic {id: rel.a}), (b:Subtopic {id: rel.b})
			MERGE (a)-[r:RELATES_TO {kind: rel.kind}]->(b)`,
			map[string]any{"rels": relParams})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mirror topic %d: %w", topic.ID, err)
	}
	return nil
}

// UpsertQuestions mirrors questions under their topic, and under their
// subtopic when one is set.
func (g *neo4jStore) UpsertQuestions(ctx context.Context, topicID int64, questions []*types.Question) error {
	if len(questions) == 0 {
		return nil
	}
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		p := map[string]any{
			"id":         q.ID,
			"text":       q.QuestionText,
			"difficulty": q.Difficulty,
			"subtopicId": nil,
		}
		if q.SubtopicID != nil {
			p["subtopicId"] = *q.SubtopicID
		}
		params = append(params, p)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (t:Topic {id: $topicId})
			UNWIND $questions AS question
			MERGE (q:Question {id: question.id})
			SET q.text = question.text, q.difficulty = question.difficulty
			MERGE (t)-[:HAS_QUESTION]->(q)
			WITH q, question
			WHERE question.subtopicId IS NOT NULL
			MATCH (s:Subtopic {id: question.subtopicId})
			MERGE (s)-[:HAS_QUESTION]->(q)`,
			map[string]any{"topicId": topicID, "questions": params})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mirror questions for topic %d: %w", topicID, err)
	}
	return nil
}

// UpsertAnswer mirrors one graded answer under its question.
func (g *neo4jStore) UpsertAnswer(ctx context.Context, questionID int64, answer *types.Answer) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (q:Question {id: $questionId})
			MERGE (a:Answer {id: $id})
			SET a.correct = $correct, a.timestamp = $timestamp
			MERGE (q)-[:ANSWERED_BY]->(a)`,
			map[string]any{
				"questionId": questionID,
				"id":         answer.ID,
				"correct":    answer.IsCorrect,
				"timestamp":  answer.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mirror answer %d: %w", answer.ID, err)
	}
	return nil
}

// DeleteTopicTree removes a topic and everything reachable under it. Used
// only by the forced reconciliation path on orphaned graph data.
func (g *neo4jStore) DeleteTopicTree(ctx context.Context, topicID int64) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (t:Topic {id: $id})
			OPTIONAL MATCH (t)-[:HAS_SUBTOPIC]->(s:Subtopic)
			OPTIONAL MATCH (t)-[:HAS_QUESTION]->(q:Question)
			OPTIONAL MATCH (q)-[:ANSWERED_BY]->(a:Answer)
			DETACH DELETE t, s, q, a`,
			map[string]any{"id": topicID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete topic %d from graph: %w", topicID, err)
	}
	return nil
}

// TopicIDs lists every topic node id in the graph.
func (g *neo4jStore) TopicIDs(ctx context.Context) ([]int64, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Topic) RETURN t.id AS id ORDER BY id", nil)
		if err != nil {
			return nil, err
		}
		var ids []int64
		for res.Next(ctx) {
			if id, ok := res.Record().Get("id"); ok {
				if v, ok := id.(int64); ok {
					ids = append(ids, v)
				}
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]int64), nil
}

func (g *neo4jStore) HasTopic(ctx context.Context, topicID int64) (bool, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Topic {id: $id}) RETURN count(t) > 0 AS present",
			map[string]any{"id": topicID})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		present, _ := rec.Get("present")
		return present, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// TopicCounts reports node counts under one topic, used to compare the
// mirror against the relational record.
func (g *neo4jStore) TopicCounts(ctx context.Context, topicID int64) (Counts, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (t:Topic {id: $id})
			OPTIONAL MATCH (t)-[:HAS_SUBTOPIC]->(s:Subtopic)
			OPTIONAL MATCH (t)-[:HAS_QUESTION]->(q:Question)
			OPTIONAL MATCH (q)-[:ANSWERED_BY]->(a:Answer)
			RETURN count(DISTINCT s) AS subtopics,
			       count(DISTINCT q) AS questions,
			       count(DISTINCT a) AS answers`,
			map[string]any{"id": topicID})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		var c Counts
		if v, ok := rec.Get("subtopics"); ok {
			c.Subtopics = int(v.(int64))
		}
		if v, ok := rec.Get("questions"); ok {
			c.Questions = int(v.(int64))
		}
		if v, ok := rec.Get("answers"); ok {
			c.Answers = int(v.(int64))
		}
		return c, nil
	})
	if err != nil {
		return Counts{}, err
	}
	return result.(Counts), nil
}

// RelatedSubtopics returns the subtopics connected to the given one,
// in either direction, with the edge kind.
func (g *neo4jStore) RelatedSubtopics(ctx context.Context, subtopicID int64) ([]Neighbor, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (s:Subtopic {id: $id})-[r:RELATES_TO]-(other:Subtopic)
			RETURN other.id AS id, other.name AS name, r.kind AS kind
			ORDER BY id`,
			map[string]any{"id": subtopicID})
		if err != nil {
			return nil, err
		}
		var out []Neighbor
		for res.Next(ctx) {
			rec := res.Record()
			var n Neighbor
			if v, ok := rec.Get("id"); ok {
				n.SubtopicID, _ = v.(int64)
			}
			if v, ok := rec.Get("name"); ok {
				n.Name, _ = v.(string)
			}
			if v, ok := rec.Get("kind"); ok {
				n.Kind, _ = v.(string)
			}
			out = append(out, n)
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]Neighbor), nil
}
