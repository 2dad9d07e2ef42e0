// Package quiz runs quiz sessions: adaptive question selection, LLM
// grading, and result aggregation over the append-only answer history.
package quiz

import (
	"sort"

	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/types"
)

// Selection tiers. Lower tiers are served first: unseen questions before
// ones the learner got wrong, and those before ones already mastered.
const (
	tierUnseen    = 0
	tierLastWrong = 1
	tierMastered  = 2
)

func tierOf(q *types.Question, stats map[int64]store.QuestionStat) int {
	st, ok := stats[q.ID]
	if !ok || !st.HasAnswers || st.LastCorrect == nil {
		return tierUnseen
	}
	if *st.LastCorrect {
		return tierMastered
	}
	return tierLastWrong
}

// selectQuestions orders questions by (tier, id) and keeps at most count.
// The ordering is total, so selection is deterministic for a given history.
func selectQuestions(questions []*types.Question, stats map[int64]store.QuestionStat, count int) []*types.Question {
	ordered := make([]*types.Question, len(questions))
	copy(ordered, questions)
	sort.Slice(ordered, func(i, j int) bool {
		ti, tj := tierOf(ordered[i], stats), tierOf(ordered[j], stats)
		if ti != tj {
			return ti < tj
		}
		return ordered[i].ID < ordered[j].ID
	})
	if count > 0 && len(ordered) > count {
		ordered = ordered[:count]
	}
	return ordered
}
