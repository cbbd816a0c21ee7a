package sqlgw_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/db"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/gateway/sqlgw"
)

func newStore(t *testing.T) *sqlgw.Store {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return sqlgw.New(conn)
}

func TestCreateAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	pathID, err := s.CreatePath(ctx, content.PathSpec{Name: "Go", RequiredSkills: []string{"cli"}}, "go-x1z")
	require.NoError(t, err)
	modID, err := s.CreateModule(ctx, content.ModuleSpec{Title: "Intro", Content: "<p>hi</p>"}, pathID, 0)
	require.NoError(t, err)
	_, err = s.CreateModule(ctx, content.ModuleSpec{Title: "Next", ModuleType: "video"}, pathID, 1)
	require.NoError(t, err)
	quizID, err := s.CreateQuiz(ctx, content.QuizSpec{Title: "Check"}, modID)
	require.NoError(t, err)
	_, err = s.CreateQuestion(ctx, content.QuestionSpec{
		QuestionText: "2+2?",
		Type:         content.MultipleChoice,
		Choices:      []content.Choice{{ID: "a", Text: "3"}, {ID: "b", Text: "4", IsCorrect: true}},
	}, quizID, 1)
	require.NoError(t, err)

	p, err := s.GetPath(ctx, pathID)
	require.NoError(t, err)
	assert.Equal(t, "go-x1z", p.Slug)
	assert.Equal(t, []string{"cli"}, p.RequiredSkills)
	assert.True(t, p.IsActive)

	mods, err := s.ListModules(ctx, pathID)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Intro", mods[0].Title)
	assert.Equal(t, "text", mods[0].ModuleType)
	assert.Equal(t, "video", mods[1].ModuleType)
	assert.Equal(t, 1, mods[1].Order)
	assert.False(t, mods[0].IsLocked)
	assert.Equal(t, 10, mods[0].PointsReward)

	quizzes, err := s.ListQuizzes(ctx, modID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Quiz for module", quizzes[0].Description)
	assert.Equal(t, 30, quizzes[0].TimeLimitMinutes)
	assert.Equal(t, 70, quizzes[0].PassingScore)
	assert.Equal(t, 3, quizzes[0].MaxAttempts)
	assert.True(t, quizzes[0].RandomizeQuestions)

	qs, err := s.ListQuestions(ctx, quizID)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, content.Answer("4"), qs[0].CorrectAnswer)
	assert.Equal(t, 10, qs[0].Points)
	assert.Len(t, qs[0].Choices, 2)
}

func TestDuplicateSlugRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreatePath(ctx, content.PathSpec{Name: "Go"}, "go-abc")
	require.NoError(t, err)
	_, err = s.CreatePath(ctx, content.PathSpec{Name: "Go"}, "go-abc")
	require.Error(t, err)
	assert.Equal(t, sqlgw.SlugTakenMessage, gateway.Message(err))
}

func TestDanglingParents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateModule(ctx, content.ModuleSpec{Title: "x"}, "nope", 0)
	assert.True(t, errors.Is(err, sqlgw.ErrNotFound))
	_, err = s.CreateQuiz(ctx, content.QuizSpec{Title: "x"}, "nope")
	assert.Equal(t, "module not found", gateway.Message(err))
	_, err = s.CreateQuestion(ctx, content.QuestionSpec{QuestionText: "x"}, "nope", 1)
	assert.Equal(t, "quiz not found", gateway.Message(err))

	_, err = s.GetPath(ctx, "nope")
	assert.True(t, errors.Is(err, sqlgw.ErrNotFound))
}
