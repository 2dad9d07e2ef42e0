package quiz

import (
	"testing"

	"github.com/abhisek/inkling/internal/types"
)

func intPtr(n int) *int { return &n }

func TestComputeResultsEmpty(t *testing.T) {
	r := ComputeResults(nil)
	if r.TotalQuestions != 0 || r.CorrectAnswers != 0 || r.Score != 0 {
		t.Fatalf("empty results = %+v, want all zero", r)
	}
	if r.AvgUnderstanding != nil {
		t.Fatal("empty results should have nil average understanding")
	}
}

func TestComputeResultsScore(t *testing.T) {
	answers := []*types.Answer{
		{IsCorrect: true, UnderstandingScore: intPtr(5)},
		{IsCorrect: false, UnderstandingScore: intPtr(1)},
		{IsCorrect: true, UnderstandingScore: intPtr(3)},
		{IsCorrect: false},
	}
	r := ComputeResults(answers)
	if r.TotalQuestions != 4 || r.CorrectAnswers != 2 {
		t.Fatalf("counts = %d/%d", r.CorrectAnswers, r.TotalQuestions)
	}
	if r.Score != 50 {
		t.Errorf("score = %v, want 50", r.Score)
	}
	// The unscored answer is excluded from the denominator.
	if r.AvgUnderstanding == nil || *r.AvgUnderstanding != 3 {
		t.Errorf("avg understanding = %v, want 3", r.AvgUnderstanding)
	}
}

func TestComputeResultsAllUnscored(t *testing.T) {
	r := ComputeResults([]*types.Answer{{IsCorrect: true}})
	if r.AvgUnderstanding != nil {
		t.Fatalf("avg understanding = %v, want nil", *r.AvgUnderstanding)
	}
	if r.Score != 100 {
		t.Errorf("score = %v, want 100", r.Score)
	}
}
