package httpgw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
)

func TestExtractID(t *testing.T) {
	cases := map[string]string{
		`{"id":"p1","name":"x"}`:                      "p1",
		`{"id":42}`:                                   "42",
		`{"message":"ok","data":{"id":"d1"}}`:         "d1",
		`{"message":"ok","module":{"id":"m1"}}`:       "m1",
		`{"message":"ok","learning_module":{"id":7}}`: "7",
		`{"message":"ok"}`:                            "",
		`[]`:                                          "",
		`not json`:                                    "",
	}
	for body, want := range cases {
		assert.Equal(t, want, ExtractID([]byte(body)), body)
	}
}

func TestCreatePathSendsPayloadAndToken(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathsEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created","data":{"id":"path-9"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Token: "tok"})
	id, err := c.CreatePath(context.Background(), content.PathSpec{Name: "Go"}, "go-abc")
	require.NoError(t, err)
	assert.Equal(t, "path-9", id)
	assert.Equal(t, "go-abc", got["slug"])
	assert.Equal(t, true, got["is_active"])
	assert.Equal(t, []any{}, got["required_skills"])
}

func TestCreateModuleAndQuizDefaults(t *testing.T) {
	bodies := map[string]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
		bodies[r.URL.Path] = b
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := c.CreateModule(ctx, content.ModuleSpec{Title: "M", Content: "<p/>"}, "p1", 2)
	require.NoError(t, err)
	_, err = c.CreateQuiz(ctx, content.QuizSpec{Title: "Q"}, "m1")
	require.NoError(t, err)
	_, err = c.CreateQuestion(ctx, content.QuestionSpec{
		QuestionText: "2+2?",
		Type:         content.MultipleChoice,
		Choices:      []content.Choice{{Text: "3"}, {Text: "4", IsCorrect: true}},
	}, "q1", 1)
	require.NoError(t, err)

	m := bodies[ModulesEndpoint]
	assert.Equal(t, "p1", m["career_path"])
	assert.Equal(t, "text", m["module_type"])
	assert.EqualValues(t, 2, m["order"])
	assert.EqualValues(t, 10, m["points_reward"])
	assert.Equal(t, false, m["is_locked"])

	q := bodies[QuizzesEndpoint]
	assert.Equal(t, "m1", q["learning_module"])
	assert.Equal(t, "Quiz for module", q["description"])
	assert.EqualValues(t, 30, q["time_limit_minutes"])
	assert.EqualValues(t, 70, q["passing_score"])
	assert.EqualValues(t, 3, q["max_attempts"])
	assert.Equal(t, true, q["randomize_questions"])

	qq := bodies[QuestionsEndpoint]
	assert.Equal(t, "q1", qq["quiz"])
	assert.Equal(t, "4", qq["correct_answer"])
	assert.EqualValues(t, 10, qq["points"])
	assert.EqualValues(t, 1, qq["order"])
}

func TestCreateErrors(t *testing.T) {
	status, body := http.StatusBadRequest, `{"slug":["career path with this slug already exists."]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := c.CreatePath(ctx, content.PathSpec{Name: "Go"}, "go-abc")
	var re *gateway.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "career path with this slug already exists.", gateway.Message(err))

	status, body = http.StatusInternalServerError, `<html>oops</html>`
	_, err = c.CreateModule(ctx, content.ModuleSpec{Title: "M"}, "p", 0)
	assert.Equal(t, "Failed to save module", gateway.Message(err))

	status, body = http.StatusOK, `{"message":"ok"}`
	_, err = c.CreateQuiz(ctx, content.QuizSpec{Title: "Q"}, "m")
	assert.True(t, errors.Is(err, gateway.ErrMissingID))
	assert.Equal(t, "Quiz created but ID not returned", gateway.Message(err))
}

func TestCreateHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{BaseURL: srv.URL}).CreateQuiz(ctx, content.QuizSpec{}, "m")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "Failed to save quiz", gateway.Message(err))
}
