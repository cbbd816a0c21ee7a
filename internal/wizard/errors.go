package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrSaveInFlight is returned for a save dropped because a save of the
	// same class is still outstanding.
	ErrSaveInFlight = errors.New("wizard: save already in progress")
	ErrWrongStep    = errors.New("wizard: action not available in this step")
	ErrCancelled    = errors.New("wizard: cancelled")
)

// ValidationError blocks a save before any gateway call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ReferenceError reports a quiz whose module was skipped or never saved. It
// does not block the wizard: the quiz is skipped and the wizard advances.
type ReferenceError struct {
	QuizIndex   int
	ModuleIndex int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("Module not found for this quiz (quiz %d references unsaved module %d)",
		e.QuizIndex, e.ModuleIndex)
}

type QuestionResult struct {
	Index int
	ID    string
	Err   error
}

// QuizOutcome is the result of one quiz save, including every question create.
type QuizOutcome struct {
	QuizIndex int
	QuizID    string
	Skipped   bool
	Questions []QuestionResult
}

func (o QuizOutcome) FailedQuestions() []QuestionResult {
	var out []QuestionResult
	for _, r := range o.Questions {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
