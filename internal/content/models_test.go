package content_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/content"
)

const extracted = `{
  "path": {"name": "Go Basics", "required_skills": ["typing"]},
  "modules": [{"title": "Intro", "content": "<h2>A</h2>x"}, {"title": "Types"}],
  "quizzes": [
    {"module_index": 1, "title": "Q1", "questions": [
      {"question_text": "Pick b", "choices": ["a", "b", "c"], "correct_answer": "b"},
      {"question_text": "Pick index 2", "question_type": "multiple_choice", "choices": ["a", "b", "c"], "correct_answer": 2, "points": 3},
      {"question_text": "Is Go typed?", "question_type": "true_false", "correct_answer": true}
    ]}
  ]
}`

func TestDocumentDecodeAndNormalize(t *testing.T) {
	var doc content.Document
	require.NoError(t, json.Unmarshal([]byte(extracted), &doc))
	require.NoError(t, doc.Validate())

	doc.Normalize()
	qs := doc.Quizzes[0].Questions

	assert.Equal(t, "q-0", qs[0].ID)
	assert.Equal(t, content.MultipleChoice, qs[0].Type)
	assert.Equal(t, content.DefaultQuestionPoints, qs[0].Points)
	assert.Equal(t, []bool{false, true, false}, correctness(qs[0]))
	assert.Equal(t, "c-0-1", qs[0].Choices[1].ID)

	assert.Equal(t, []bool{false, false, true}, correctness(qs[1]))
	assert.Equal(t, 3, qs[1].Points)
	assert.Equal(t, "c", qs[1].AnswerText())

	assert.Equal(t, content.TrueFalse, qs[2].Type)
	assert.Equal(t, "true", qs[2].AnswerText())
	assert.NoError(t, qs[2].Validate())
}

func TestNormalizeMarksFirstChoiceWhenAnswerUnknown(t *testing.T) {
	doc := content.Document{
		Modules: []content.ModuleSpec{{Title: "m"}},
		Quizzes: []content.QuizSpec{{Questions: []content.QuestionSpec{{
			QuestionText:  "?",
			Choices:       []content.Choice{{Text: "x"}, {Text: "y"}},
			CorrectAnswer: "z",
		}}}},
	}
	doc.Normalize()
	q := doc.Quizzes[0].Questions[0]
	assert.Equal(t, []bool{true, false}, correctness(q))
	assert.NoError(t, q.Validate())
}

func TestNormalizeQuestionsFillsIDs(t *testing.T) {
	qs := []content.QuestionSpec{
		{QuestionText: "a?", Choices: []content.Choice{{Text: "1"}, {Text: "2"}}, CorrectAnswer: "2"},
		{ID: "keep", QuestionText: "b?", Type: content.TrueFalse},
	}
	content.NormalizeQuestions(qs)
	assert.Equal(t, "q-0", qs[0].ID)
	assert.Equal(t, "c-0-1", qs[0].Choices[1].ID)
	assert.Equal(t, []bool{false, true}, correctness(qs[0]))
	assert.Equal(t, "keep", qs[1].ID)
	assert.Equal(t, content.DefaultQuestionPoints, qs[1].Points)
}

func TestValidateRejectsDanglingModuleIndex(t *testing.T) {
	doc := content.Document{
		Modules: []content.ModuleSpec{{Title: "only"}},
		Quizzes: []content.QuizSpec{{ModuleIndex: 0}, {ModuleIndex: 1}},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrInvalidDocument))
}

func TestQuestionValidate(t *testing.T) {
	q := content.QuestionSpec{
		QuestionText: "two right",
		Type:         content.MultipleChoice,
		Choices:      []content.Choice{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
	}
	assert.Error(t, q.Validate())

	q.Choices[1].IsCorrect = false
	assert.NoError(t, q.Validate())

	q.Type = "matching"
	assert.Error(t, q.Validate())
}

func correctness(q content.QuestionSpec) []bool {
	out := make([]bool, len(q.Choices))
	for i, c := range q.Choices {
		out[i] = c.IsCorrect
	}
	return out
}
