package quiz

import (
	"fmt"

	"github.com/abhisek/inkling/internal/types"
)

// State is the lifecycle state of a quiz run.
type State string

const (
	StateStarted       State = "STARTED"
	StateAnswering     State = "ANSWERING"
	StateFeedbackShown State = "FEEDBACK_SHOWN"
	StateCompleted     State = "COMPLETED"
)

// Run tracks one in-progress quiz session. The question order is fixed at
// construction; Run only walks it and enforces the state transitions.
type Run struct {
	session   *types.QuizSession
	questions []*types.Question
	next      int
	state     State
	answers   []*types.Answer
}

// NewRun starts a run over the given session and its ordered questions.
func NewRun(session *types.QuizSession, questions []*types.Question) *Run {
	return &Run{session: session, questions: questions, state: StateStarted}
}

// State returns the current lifecycle state.
func (r *Run) State() State { return r.state }

// Session returns the persisted session row backing this run.
func (r *Run) Session() *types.QuizSession { return r.session }

// Answers returns the graded answers recorded so far, in question order.
func (r *Run) Answers() []*types.Answer { return r.answers }

// NextQuestion advances to the next question. When every question has been
// answered it completes the run and returns nil.
func (r *Run) NextQuestion() (*types.Question, error) {
	switch r.state {
	case StateStarted, StateFeedbackShown:
	case StateCompleted:
		return nil, fmt.Errorf("quiz already completed")
	default:
		return nil, fmt.Errorf("cannot advance while %s", r.state)
	}
	if r.next >= len(r.questions) {
		r.state = StateCompleted
		return nil, nil
	}
	q := r.questions[r.next]
	r.next++
	r.state = StateAnswering
	return q, nil
}

// RecordGrade records the graded answer for the question currently being
// answered and moves the run to feedback.
func (r *Run) RecordGrade(a *types.Answer) error {
	if r.state != StateAnswering {
		return fmt.Errorf("no question awaiting an answer (state %s)", r.state)
	}
	r.answers = append(r.answers, a)
	r.state = StateFeedbackShown
	return nil
}

// Done reports whether the run has completed.
func (r *Run) Done() bool { return r.state == StateCompleted }
