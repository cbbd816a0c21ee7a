package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
	Enumeration    QuestionType = "enumeration"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, Essay, Enumeration:
		return true
	}
	return false
}

type PathSpec struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ProgramType       string   `json:"program_type"`
	DifficultyLevel   string   `json:"difficulty_level"`
	EstimatedDuration int      `json:"estimated_duration"`
	RequiredSkills    []string `json:"required_skills"`
}

type ModuleSpec struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Content         string `json:"content"` // HTML
	ModuleType      string `json:"module_type"`
	DifficultyLevel string `json:"difficulty_level"`
	DurationMinutes int    `json:"duration_minutes"`
	Order           int    `json:"order"` // author-time order; the wizard persists positional order instead
}

type Choice struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// UnmarshalJSON accepts both {"text": ..., "isCorrect": ...} and a bare string,
// which is how extraction responses list choices.
func (c *Choice) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Choice{Text: s}
		return nil
	}
	type plain Choice
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Choice(p)
	return nil
}

// Answer is a correct_answer value. Extraction output sometimes sends a choice
// index as a JSON number.
type Answer string

func (a *Answer) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Answer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = Answer(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*a = Answer(strconv.FormatBool(v))
		return nil
	}
	if string(b) == "null" {
		*a = ""
		return nil
	}
	return fmt.Errorf("content: unsupported correct_answer %s", string(b))
}

type QuestionSpec struct {
	ID            string       `json:"id,omitempty"`
	QuestionText  string       `json:"question_text"`
	Content       string       `json:"content,omitempty"`
	Type          QuestionType `json:"question_type"`
	Choices       []Choice     `json:"choices,omitempty"`
	CorrectAnswer Answer       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	Points        int          `json:"points"`
}

// CorrectChoice returns the first choice flagged correct.
func (q QuestionSpec) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

// AnswerText is what the backend stores as correct_answer.
func (q QuestionSpec) AnswerText() string {
	if c, ok := q.CorrectChoice(); ok {
		return c.Text
	}
	return string(q.CorrectAnswer)
}

func (q QuestionSpec) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return errors.New("question text is required")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	if q.Type == MultipleChoice {
		n := 0
		for _, c := range q.Choices {
			if c.IsCorrect {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("multiple choice question needs exactly one correct choice, has %d", n)
		}
	}
	return nil
}

type QuizSpec struct {
	ModuleIndex int            `json:"module_index"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuestionSpec `json:"questions"`
}

// Document is one extraction/generation result.
type Document struct {
	Path    PathSpec     `json:"path"`
	Modules []ModuleSpec `json:"modules"`
	Quizzes []QuizSpec   `json:"quizzes"`
}

var ErrInvalidDocument = errors.New("invalid document")

// Validate checks structural invariants: every quiz points at an existing module.
func (d *Document) Validate() error {
	for i, q := range d.Quizzes {
		if q.ModuleIndex < 0 || q.ModuleIndex >= len(d.Modules) {
			return fmt.Errorf("%w: quiz %d references module %d, have %d modules",
				ErrInvalidDocument, i, q.ModuleIndex, len(d.Modules))
		}
	}
	return nil
}
