package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/abhisek/inkling/internal/types"
)

// CreateTopicTree inserts a topic and its subtopics in a single transaction.
// Either everything lands or nothing does.
func (s *Store) CreateTopicTree(ctx context.Context, topic *types.Topic, subtopics []*types.Subtopic) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(topic).Error; err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
		for _, st := range subtopics {
			st.TopicID = topic.ID
		}
		if len(subtopics) > 0 {
			if err := tx.Create(subtopics).Error; err != nil {
				return fmt.Errorf("insert subtopics: %w", err)
			}
		}
		return nil
	})
}

// GetTopic returns the topic with the given id, or nil when it does not exist.
func (s *Store) GetTopic(ctx context.Context, id int64) (*types.Topic, error) {
	var t types.Topic
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTopics returns all topics, newest first.
func (s *Store) ListTopics(ctx context.Context) ([]*types.Topic, error) {
	var out []*types.Topic
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// ListSubtopics returns a topic's subtopics ordered by id.
func (s *Store) ListSubtopics(ctx context.Context, topicID int64) ([]*types.Subtopic, error) {
	var out []*types.Subtopic
	err := s.db.WithContext(ctx).Where("topic_id = ?", topicID).Order("id ASC").Find(&out).Error
	return out, err
}

// SubtopicsByName maps a topic's subtopic names to their rows. Graph writes
// and question persistence both resolve subtopics by name.
func (s *Store) SubtopicsByName(ctx context.Context, topicID int64) (map[string]*types.Subtopic, error) {
	subs, err := s.ListSubtopics(ctx, topicID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*types.Subtopic, len(subs))
	for _, st := range subs {
		byName[st.Name] = st
	}
	return byName, nil
}

// CreateRelationships inserts subtopic relationship rows.
func (s *Store) CreateRelationships(ctx context.Context, rels []types.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rels).Error
}

// ListRelationships returns the relationship edges between a topic's
// subtopics.
func (s *Store) ListRelationships(ctx context.Context, topicID int64) ([]types.Relationship, error) {
	var out []types.Relationship
	err := s.db.WithContext(ctx).
		Joins("JOIN subtopics sa ON sa.id = subtopic_relationships.subtopic_a").
		Where("sa.topic_id = ?", topicID).
		Order("subtopic_relationships.id ASC").
		Find(&out).Error
	return out, err
}

// MarkTopicSynced records whether the topic and its subtopics are mirrored
// in the graph store.
func (s *Store) MarkTopicSynced(ctx context.Context, topicID int64, synced bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&types.Topic{}).Where("id = ?", topicID).
			Update("graph_synced", synced).Error; err != nil {
			return err
		}
		return tx.Model(&types.Subtopic{}).Where("topic_id = ?", topicID).
			Update("graph_synced", synced).Error
	})
}

// TreeCounts is the relational row count for one topic's tree, compared
// against the graph mirror during reconciliation.
type TreeCounts struct {
	Subtopics int
	Questions int
	Answers   int
}

// CountsForTopic counts the rows the graph mirror should hold for one topic.
func (s *Store) CountsForTopic(ctx context.Context, topicID int64) (TreeCounts, error) {
	var c TreeCounts
	var n int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&types.Subtopic{}).Where("topic_id = ?", topicID).Count(&n).Error; err != nil {
		return c, err
	}
	c.Subtopics = int(n)
	if err := db.Model(&types.Question{}).Where("topic_id = ?", topicID).Count(&n).Error; err != nil {
		return c, err
	}
	c.Questions = int(n)
	if err := db.Model(&types.Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.topic_id = ?", topicID).
		Count(&n).Error; err != nil {
		return c, err
	}
	c.Answers = int(n)
	return c, nil
}

// MarkTopicPending flags a topic's whole tree for re-mirroring. Used when
// reconciliation finds graph data missing despite a set sync flag.
func (s *Store) MarkTopicPending(ctx context.Context, topicID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&types.Topic{}).Where("id = ?", topicID).
			Update("graph_synced", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&types.Subtopic{}).Where("topic_id = ?", topicID).
			Update("graph_synced", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&types.Question{}).Where("topic_id = ?", topicID).
			Update("graph_synced", false).Error; err != nil {
			return err
		}
		return tx.Model(&types.Answer{}).
			Where("question_id IN (?)",
				tx.Model(&types.Question{}).Select("id").Where("topic_id = ?", topicID)).
			Update("graph_synced", false).Error
	})
}

// ListUnsyncedTopics returns topics whose graph mirror is pending. A nil
// topicID scopes the scan to every topic.
func (s *Store) ListUnsyncedTopics(ctx context.Context, topicID *int64) ([]*types.Topic, error) {
	q := s.db.WithContext(ctx).Where("graph_synced = ?", false)
	if topicID != nil {
		q = q.Where("id = ?", *topicID)
	}
	var out []*types.Topic
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}
