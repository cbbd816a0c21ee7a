// Package gateway is the persistence boundary of the authoring wizard. Every
// create call makes a new entity; deduplication is the caller's job.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-authoring/internal/content"
)

type Gateway interface {
	CreatePath(ctx context.Context, p content.PathSpec, slug string) (string, error)
	CreateModule(ctx context.Context, m content.ModuleSpec, pathID string, order int) (string, error)
	CreateQuiz(ctx context.Context, q content.QuizSpec, moduleID string) (string, error)
	CreateQuestion(ctx context.Context, q content.QuestionSpec, quizID string, order int) (string, error)
}

// Payload defaults applied by every gateway implementation.
const (
	DefaultModuleType        = "text"
	DefaultModulePoints      = 10
	DefaultQuizDescription   = "Quiz for module"
	DefaultQuizTimeLimitMins = 30
	DefaultQuizPassingScore  = 70
	DefaultQuizMaxAttempts   = 3
)

// Entity names a kind of persisted object, used in messages.
type Entity string

const (
	EntityPath     Entity = "career path"
	EntityModule   Entity = "module"
	EntityQuiz     Entity = "quiz"
	EntityQuestion Entity = "question"
)

// ErrMissingID reports a create the server accepted without returning an id.
var ErrMissingID = errors.New("created but ID not returned")

// RemoteError is a failed create: the network call failed or the server
// rejected the entity.
type RemoteError struct {
	Entity  Entity
	Status  int    // HTTP status when known, 0 otherwise
	Message string // most specific message the server gave, may be empty
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("create %s: status %d: %s", e.Entity, e.Status, msg)
	}
	return fmt.Sprintf("create %s: %s", e.Entity, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Message is the user-facing text for err: the server's own message when it
// gave one, a generic per-entity one otherwise.
func Message(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		if re.Message != "" {
			return re.Message
		}
		return fmt.Sprintf("Failed to save %s", re.Entity)
	}
	if err == nil {
		return ""
	}
	return "Request failed"
}
