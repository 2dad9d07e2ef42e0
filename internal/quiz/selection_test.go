package quiz

import (
	"testing"

	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/types"
)

func q(id int64) *types.Question { return &types.Question{ID: id} }

func boolPtr(b bool) *bool { return &b }

func stat(correct bool) store.QuestionStat {
	return store.QuestionStat{HasAnswers: true, LastCorrect: boolPtr(correct)}
}

func ids(qs []*types.Question) []int64 {
	out := make([]int64, len(qs))
	for i, x := range qs {
		out[i] = x.ID
	}
	return out
}

func TestSelectUnseenBeforeWrongBeforeMastered(t *testing.T) {
	questions := []*types.Question{q(1), q(2), q(3)}
	stats := map[int64]store.QuestionStat{
		1: stat(true),  // mastered
		2: stat(false), // last wrong
		// 3 unseen
	}
	got := ids(selectQuestions(questions, stats, 0))
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSelectTiesBreakByID(t *testing.T) {
	questions := []*types.Question{q(9), q(4), q(7)}
	got := ids(selectQuestions(questions, nil, 0))
	want := []int64{4, 7, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSelectTruncatesAfterOrdering(t *testing.T) {
	questions := []*types.Question{q(1), q(2), q(3), q(4)}
	stats := map[int64]store.QuestionStat{
		1: stat(true),
		2: stat(true),
		// 3 and 4 unseen
	}
	got := ids(selectQuestions(questions, stats, 2))
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("got %v, want [3 4]: unseen questions win the cut", got)
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	questions := []*types.Question{q(3), q(1), q(2)}
	selectQuestions(questions, nil, 0)
	if questions[0].ID != 3 || questions[1].ID != 1 {
		t.Fatal("input slice was reordered")
	}
}
