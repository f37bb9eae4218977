package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types shared by all store consumers.
var (
	// ErrFormNotFound indicates no form matches the given identifier.
	ErrFormNotFound = errors.New("form not found")

	// ErrQuestionNotFound indicates no question matches the given identifier
	// within the target form.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrSnapshotCorrupt indicates a persisted snapshot exists but could not
	// be decoded.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// FormError wraps form-related errors with operation context.
type FormError struct {
	Op     string // Operation being performed (e.g. "UpdateForm", "Publish")
	FormID string
	Err    error
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s operation failed for form %s: %v", e.Op, e.FormID, e.Err)
}

func (e *FormError) Unwrap() error {
	return e.Err
}

func (e *FormError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFormError creates a new form error with context.
func NewFormError(op, formID string, err error) *FormError {
	return &FormError{
		Op:     op,
		FormID: formID,
		Err:    err,
	}
}

// QuestionError wraps question-related errors with operation context.
type QuestionError struct {
	Op         string
	FormID     string
	QuestionID string
	Err        error
}

func (e *QuestionError) Error() string {
	return fmt.Sprintf("%s operation failed for question %s in form %s: %v", e.Op, e.QuestionID, e.FormID, e.Err)
}

func (e *QuestionError) Unwrap() error {
	return e.Err
}

func (e *QuestionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewQuestionError creates a new question error with context.
func NewQuestionError(op, formID, questionID string, err error) *QuestionError {
	return &QuestionError{
		Op:         op,
		FormID:     formID,
		QuestionID: questionID,
		Err:        err,
	}
}

// IsFormNotFound checks if an error indicates a form was not found.
func IsFormNotFound(err error) bool {
	return errors.Is(err, ErrFormNotFound)
}

// IsQuestionNotFound checks if an error indicates a question was not found.
func IsQuestionNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound)
}

// IsSnapshotCorrupt checks if an error indicates an undecodable snapshot.
func IsSnapshotCorrupt(err error) bool {
	return errors.Is(err, ErrSnapshotCorrupt)
}
