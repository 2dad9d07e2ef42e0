// Package types holds the persisted domain entities. The relational store
// is authoritative for all of them; the graph store mirrors Topic, Subtopic,
// Question and Answer as nodes keyed by the relational ids.
package types

import (
	"time"

	"gorm.io/datatypes"
)

// Topic is the root of a learning domain. Names are not unique; creating
// the same topic twice yields two independent topics.
type Topic struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// GraphSynced is cleared when the graph mirror write fails; the
	// reconciliation sweep repairs the node and sets it back.
	GraphSynced bool `gorm:"not null;default:false" json:"graph_synced"`
}

func (Topic) TableName() string { return "topics" }

// Subtopic belongs to exactly one Topic. Edges between subtopics are
// Relationship rows.
type Subtopic struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TopicID     int64     `gorm:"not null;index" json:"topic_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	GraphSynced bool `gorm:"not null;default:false" json:"graph_synced"`
}

func (Subtopic) TableName() string { return "subtopics" }

// Relationship is a typed edge between two subtopics of the same topic.
// The relational row is authoritative; the graph store mirrors it as a
// RELATES_TO edge so lost edges can be rebuilt by the reconciliation sweep.
type Relationship struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	SubtopicA int64  `gorm:"not null;index" json:"subtopic_a"`
	SubtopicB int64  `gorm:"not null;index" json:"subtopic_b"`
	Kind      string `gorm:"not null" json:"kind"` // "PREREQUISITE" or "RELATED_TO"
}

func (Relationship) TableName() string { return "subtopic_relationships" }

const (
	RelPrerequisite = "PREREQUISITE"
	RelRelatedTo    = "RELATED_TO"
)

// Question is immutable once graded answers reference it.
type Question struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	TopicID         int64  `gorm:"not null;index" json:"topic_id"`
	SubtopicID      *int64 `gorm:"index" json:"subtopic_id,omitempty"`
	QuestionText    string `gorm:"not null" json:"question_text"`
	ReferenceAnswer string `gorm:"not null" json:"reference_answer"`
	Difficulty      string `json:"difficulty"`

	GraphSynced bool `gorm:"not null;default:false" json:"graph_synced"`
}

func (Question) TableName() string { return "questions" }

// Answer is append-only: one row per attempt, never mutated or deleted.
// Mastery statistics are computed from the answer history, not stored.
type Answer struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	QuestionID int64  `gorm:"not null;index" json:"question_id"`
	UserAnswer string `gorm:"not null" json:"user_answer"`
	IsCorrect  bool   `gorm:"not null" json:"is_correct"`

	// UnderstandingScore is the grader's 1-5 assessment. Nil when the
	// grader did not supply one (older rows).
	UnderstandingScore *int      `json:"understanding_score,omitempty"`
	Feedback           string    `json:"feedback"`
	Timestamp          time.Time `gorm:"index" json:"timestamp"`

	GraphSynced bool `gorm:"not null;default:false" json:"graph_synced"`
}

func (Answer) TableName() string { return "answers" }

// QuizSession records one quiz run. The question order is fixed at start
// and never changes afterwards.
type QuizSession struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	TopicID     int64          `gorm:"not null;index" json:"topic_id"`
	QuestionIDs datatypes.JSON `gorm:"not null" json:"question_ids"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`

	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Score          float64 `json:"score"`
}

func (QuizSession) TableName() string { return "quiz_sessions" }

// LLMCall logs one provider request. Written best-effort by the llm
// logging decorator.
type LLMCall struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Purpose      string    `json:"purpose"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

func (LLMCall) TableName() string { return "llm_calls" }
