package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRaceNotFound is returned when a recompute targets an unknown race.
	ErrRaceNotFound = errors.New("race not found")
	// ErrQuestionNotFound indicates a question ID is not in the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOfficialAnswerNotFound indicates a question has no curated answer yet.
	ErrOfficialAnswerNotFound = errors.New("official answer not found")
)

// ValidationError marks a single malformed answer. It is never fatal: the
// aggregator scores the offending answer as zero, logs it, and moves on.
type ValidationError struct {
	ParticipantID string
	QuestionID    string
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.ParticipantID == "" {
		return fmt.Sprintf("invalid answer for question %s: %s", e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("invalid answer from %s for question %s: %s", e.ParticipantID, e.QuestionID, e.Reason)
}

// NewValidationError builds a ValidationError for one (participant, question) pair.
func NewValidationError(questionID, reason string) *ValidationError {
	return &ValidationError{QuestionID: questionID, Reason: reason}
}
