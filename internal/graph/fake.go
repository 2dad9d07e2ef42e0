package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/abhisek/inkling/internal/types"
)

// Fake is an in-memory Store for tests. Set FailWrites to simulate an
// unreachable graph database.
type Fake struct {
	mu         sync.Mutex
	FailWrites bool

	Topics    map[int64]*types.Topic
	Subtopics map[int64]*types.Subtopic
	Rels      []types.Relationship
	Questions map[int64]int64 // question id -> topic id
	Answers   map[int64]int64 // answer id -> question id

	WriteCalls int
}

// NewFake returns an empty in-memory graph store.
func NewFake() *Fake {
	return &Fake{
		Topics:    make(map[int64]*types.Topic),
		Subtopics: make(map[int64]*types.Subtopic),
		Questions: make(map[int64]int64),
		Answers:   make(map[int64]int64),
	}
}

func (f *Fake) Enabled() bool                        { return true }
func (f *Fake) EnsureSchema(context.Context) error   { return nil }
func (f *Fake) Close(context.Context) error          { return nil }

func (f *Fake) failing() error {
	if f.FailWrites {
		return errFakeUnavailable
	}
	return nil
}

type fakeUnavailableError struct{}

func (fakeUnavailableError) Error() string { return "graph unavailable" }

var errFakeUnavailable = fakeUnavailableError{}

func (f *Fake) UpsertTopicTree(_ context.Context, topic *types.Topic, subtopics []*types.Subtopic, rels []types.Relationship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteCalls++
	if err := f.failing(); err != nil {
		return err
	}
	f.Topics[topic.ID] = topic
	for _, st := range subtopics {
		f.Subtopics[st.ID] = st
	}
	f.Rels = append(f.Rels, rels...)
	return nil
}

func (f *Fake) UpsertQuestions(_ context.Context, topicID int64, questions []*types.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteCalls++
	if err := f.failing(); err != nil {
		return err
	}
	for _, q := range questions {
		f.Questions[q.ID] = topicID
	}
	return nil
}

func (f *Fake) UpsertAnswer(_ context.Context, questionID int64, answer *types.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteCalls++
	if err := f.failing(); err != nil {
		return err
	}
	f.Answers[answer.ID] = questionID
	return nil
}

func (f *Fake) DeleteTopicTree(_ context.Context, topicID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing(); err != nil {
		return err
	}
	delete(f.Topics, topicID)
	for id, tid := range f.Questions {
		if tid == topicID {
			delete(f.Questions, id)
		}
	}
	return nil
}

func (f *Fake) TopicIDs(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.Topics))
	for id := range f.Topics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *Fake) HasTopic(_ context.Context, topicID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Topics[topicID]
	return ok, nil
}

func (f *Fake) TopicCounts(_ context.Context, topicID int64) (Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c Counts
	for _, tid := range f.Questions {
		if tid == topicID {
			c.Questions++
		}
	}
	for _, st := range f.Subtopics {
		if st.TopicID == topicID {
			c.Subtopics++
		}
	}
	for _, qid := range f.Answers {
		if f.Questions[qid] == topicID {
			c.Answers++
		}
	}
	return c, nil
}

func (f *Fake) RelatedSubtopics(_ context.Context, subtopicID int64) ([]Neighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Neighbor
	for _, r := range f.Rels {
		var otherID int64
		switch subtopicID {
		case r.SubtopicA:
			otherID = r.SubtopicB
		case r.SubtopicB:
			otherID = r.SubtopicA
		default:
			continue
		}
		n := Neighbor{SubtopicID: otherID, Kind: r.Kind}
		if st, ok := f.Subtopics[otherID]; ok {
			n.Name = st.Name
		}
		out = append(out, n)
	}
	return out, nil
}
