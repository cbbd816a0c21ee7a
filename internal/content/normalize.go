package content

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultQuestionPoints = 10

// Normalize prepares an extracted document for editing: questions get stable
// editor ids, a type, points, and choice correctness derived from correct_answer.
func (d *Document) Normalize() {
	for qi := range d.Quizzes {
		for i := range d.Quizzes[qi].Questions {
			normalizeQuestion(&d.Quizzes[qi].Questions[i], i)
		}
	}
}

// NormalizeQuestions applies the same per-question defaults to a standalone
// question list.
func NormalizeQuestions(qs []QuestionSpec) {
	for i := range qs {
		normalizeQuestion(&qs[i], i)
	}
}

func normalizeQuestion(q *QuestionSpec, idx int) {
	if q.ID == "" {
		q.ID = fmt.Sprintf("q-%d", idx)
	}
	if q.Type == "" {
		q.Type = MultipleChoice
	}
	if q.Points <= 0 {
		q.Points = DefaultQuestionPoints
	}

	marked := false
	for _, c := range q.Choices {
		if c.IsCorrect {
			marked = true
			break
		}
	}
	answer := strings.TrimSpace(string(q.CorrectAnswer))
	for ci := range q.Choices {
		c := &q.Choices[ci]
		if c.ID == "" {
			c.ID = fmt.Sprintf("c-%d-%d", idx, ci)
		}
		if !marked && answer != "" {
			c.IsCorrect = c.Text == answer || strconv.Itoa(ci) == answer
		}
	}

	if q.Type == MultipleChoice && len(q.Choices) > 0 {
		// keep exactly one correct choice: the first flagged, or the first choice
		seen := false
		for ci := range q.Choices {
			if q.Choices[ci].IsCorrect && !seen {
				seen = true
				continue
			}
			q.Choices[ci].IsCorrect = false
		}
		if !seen {
			q.Choices[0].IsCorrect = true
		}
	}
}
