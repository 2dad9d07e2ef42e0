// Package apperr defines the error taxonomy shared by the orchestration
// layer. Every error carries a stable kind so callers (CLI, HTTP) can map
// it to user-visible behavior without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an error.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindGeneration  Kind = "generation"
	KindGrading     Kind = "grading"
	KindPersistence Kind = "persistence"
	KindPartialSync Kind = "partial_sync"
)

// ValidationError reports invalid input rejected before any I/O.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a referenced Topic/Question/Subtopic that does not
// exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// GenerationError reports that the content generator failed or returned a
// payload that did not validate against the expected schema.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("content generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GradingError reports that the grader failed. No Answer row is written
// when this is returned; the submission can be retried.
type GradingError struct {
	QuestionID int64
	Err        error
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("grading question %d failed: %v", e.QuestionID, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

// PersistenceError reports a failed relational write. The enclosing
// transaction has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialSyncWarning reports that the relational write succeeded but the
// graph mirror did not. The affected rows are flagged reconciliation-pending
// and the operation is still considered successful.
type PartialSyncWarning struct {
	Entity string
	Err    error
}

func (e *PartialSyncWarning) Error() string {
	return fmt.Sprintf("graph sync pending for %s: %v", e.Entity, e.Err)
}

func (e *PartialSyncWarning) Unwrap() error { return e.Err }

// KindOf classifies err into one of the stable kinds. Unclassified errors
// return an empty Kind.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		nf *NotFoundError
		ge *GenerationError
		gr *GradingError
		pe *PersistenceError
		ps *PartialSyncWarning
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &ge):
		return KindGeneration
	case errors.As(err, &gr):
		return KindGrading
	case errors.As(err, &pe):
		return KindPersistence
	case errors.As(err, &ps):
		return KindPartialSync
	default:
		return ""
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPartialSync reports whether err is a PartialSyncWarning.
func IsPartialSync(err error) bool {
	var ps *PartialSyncWarning
	return errors.As(err, &ps)
}
