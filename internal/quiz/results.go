package quiz

import "github.com/abhisek/inkling/internal/types"

// Results summarises a finished quiz. Score is a percentage; an empty
// answer set scores zero. AvgUnderstanding averages only the answers that
// carry an understanding score and is nil when none do.
type Results struct {
	TotalQuestions   int      `json:"total_questions"`
	CorrectAnswers   int      `json:"correct_answers"`
	Score            float64  `json:"score"`
	AvgUnderstanding *float64 `json:"avg_understanding,omitempty"`
}

// ComputeResults aggregates graded answers. Pure: no store access.
func ComputeResults(answers []*types.Answer) Results {
	r := Results{TotalQuestions: len(answers)}
	if len(answers) == 0 {
		return r
	}

	var scoreSum, scored int
	for _, a := range answers {
		if a.IsCorrect {
			r.CorrectAnswers++
		}
		if a.UnderstandingScore != nil {
			scoreSum += *a.UnderstandingScore
			scored++
		}
	}
	r.Score = float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100
	if scored > 0 {
		avg := float64(scoreSum) / float64(scored)
		r.AvgUnderstanding = &avg
	}
	return r
}
