package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-authoring/internal/content"
)

var (
	ErrTooFewChoices = errors.New("editor: a question needs at least two choices")
	ErrNoSuchChoice  = errors.New("editor: no such choice")
)

const minChoices = 2

type QuestionStore = Store[content.QuestionSpec]

func questionID(q content.QuestionSpec) string { return q.ID }

// NewQuestionStore seeds the question editor; an empty list starts with one
// default question.
func NewQuestionStore(initial []content.QuestionSpec) *QuestionStore {
	if len(initial) == 0 {
		initial = []content.QuestionSpec{DefaultQuestion(1)}
	}
	return NewStore(questionID, nil, initial)
}

func defaultChoices() []content.Choice {
	return []content.Choice{
		{ID: uuid.NewString(), Text: "Option A", IsCorrect: true},
		{ID: uuid.NewString(), Text: "Option B"},
		{ID: uuid.NewString(), Text: "Option C"},
		{ID: uuid.NewString(), Text: "Option D"},
	}
}

// DefaultQuestion is a fresh multiple-choice question numbered n.
func DefaultQuestion(n int) content.QuestionSpec {
	return content.QuestionSpec{
		ID:           uuid.NewString(),
		QuestionText: fmt.Sprintf("Question %d", n),
		Type:         content.MultipleChoice,
		Choices:      defaultChoices(),
		Points:       1,
	}
}

func AddQuestion(s *QuestionStore) {
	s.Append(DefaultQuestion(s.Len() + 1))
}

// SetCorrectChoice marks choiceID correct and clears every sibling, so a
// question never has more than one correct choice.
func SetCorrectChoice(s *QuestionStore, qi int, choiceID string) error {
	q, err := s.Get(qi)
	if err != nil {
		return err
	}
	if indexOfChoice(q, choiceID) < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchChoice, choiceID)
	}
	return s.Edit(qi, func(q *content.QuestionSpec) {
		choices := make([]content.Choice, len(q.Choices))
		for i, c := range q.Choices {
			c.IsCorrect = c.ID == choiceID
			choices[i] = c
		}
		q.Choices = choices
	})
}

// SetQuestionType switches the type; multiple choice gets default choices when
// it has none, true/false defaults its answer to "true".
func SetQuestionType(s *QuestionStore, qi int, t content.QuestionType) error {
	if !t.Valid() {
		return fmt.Errorf("editor: unknown question type %q", t)
	}
	return s.Edit(qi, func(q *content.QuestionSpec) {
		q.Type = t
		if t == content.MultipleChoice && len(q.Choices) == 0 {
			q.Choices = defaultChoices()
		}
		if t == content.TrueFalse {
			q.CorrectAnswer = "true"
		}
	})
}

func AddChoice(s *QuestionStore, qi int) error {
	return s.Edit(qi, func(q *content.QuestionSpec) {
		q.Choices = append(append([]content.Choice(nil), q.Choices...), content.Choice{
			ID:   uuid.NewString(),
			Text: fmt.Sprintf("Option %c", 'A'+len(q.Choices)),
		})
	})
}

// RemoveChoice refuses to go below two choices. Removing the correct choice of
// a multiple-choice question hands correctness to the first remaining one.
func RemoveChoice(s *QuestionStore, qi int, choiceID string) error {
	q, err := s.Get(qi)
	if err != nil {
		return err
	}
	ci := indexOfChoice(q, choiceID)
	if ci < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchChoice, choiceID)
	}
	if len(q.Choices) <= minChoices {
		return ErrTooFewChoices
	}
	return s.Edit(qi, func(q *content.QuestionSpec) {
		wasCorrect := q.Choices[ci].IsCorrect
		choices := make([]content.Choice, 0, len(q.Choices)-1)
		choices = append(choices, q.Choices[:ci]...)
		choices = append(choices, q.Choices[ci+1:]...)
		if wasCorrect && q.Type == content.MultipleChoice {
			choices[0].IsCorrect = true
		}
		q.Choices = choices
	})
}

func SetChoiceText(s *QuestionStore, qi int, choiceID, text string) error {
	q, err := s.Get(qi)
	if err != nil {
		return err
	}
	ci := indexOfChoice(q, choiceID)
	if ci < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchChoice, choiceID)
	}
	return s.Edit(qi, func(q *content.QuestionSpec) {
		choices := append([]content.Choice(nil), q.Choices...)
		choices[ci].Text = text
		q.Choices = choices
	})
}

func indexOfChoice(q content.QuestionSpec, id string) int {
	for i, c := range q.Choices {
		if c.ID == id {
			return i
		}
	}
	return -1
}
