package wizard

import "context"

// Journal receives one event per persisted or skipped entity, keyed by wizard
// id. syncx.EventRepo is the production implementation.
type Journal interface {
	Record(ctx context.Context, typ, key string, data any) error
}

const (
	EventPathCreated     = "PathCreated"
	EventModuleCreated   = "ModuleCreated"
	EventModuleSkipped   = "ModuleSkipped"
	EventQuizCreated     = "QuizCreated"
	EventQuizSkipped     = "QuizSkipped"
	EventQuestionFailed  = "QuestionFailed"
	EventWizardCompleted = "WizardCompleted"
	EventWizardCancelled = "WizardCancelled"
)

type nopJournal struct{}

func (nopJournal) Record(context.Context, string, string, any) error { return nil }

type event struct {
	typ  string
	data map[string]any
}
