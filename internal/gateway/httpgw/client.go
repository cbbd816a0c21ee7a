// Package httpgw persists wizard output through the learning backend's REST API.
package httpgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
)

const (
	PathsEndpoint     = "/learning/admin/career-paths/"
	ModulesEndpoint   = "/learning/admin/modules/"
	QuizzesEndpoint   = "/learning/quizzes/"
	QuestionsEndpoint = "/learning/questions/"
)

type Config struct {
	BaseURL string
	// Token is sent as a static bearer token. Ignored when TokenURL is set.
	Token string

	TokenURL     string
	ClientID     string
	ClientSecret string

	Timeout time.Duration
}

type Client struct {
	base  string
	http  *http.Client
	token string
}

var _ gateway.Gateway = (*Client)(nil)

func New(cfg Config) *Client {
	var h *http.Client
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
		cfg.Token = ""
	} else {
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), http: h, token: cfg.Token}
}

func (c *Client) CreatePath(ctx context.Context, p content.PathSpec, slug string) (string, error) {
	skills := p.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	return c.create(ctx, gateway.EntityPath, PathsEndpoint, map[string]any{
		"name":               p.Name,
		"slug":               slug,
		"description":        p.Description,
		"program_type":       p.ProgramType,
		"difficulty_level":   p.DifficultyLevel,
		"estimated_duration": p.EstimatedDuration,
		"required_skills":    skills,
		"is_active":          true,
	})
}

func (c *Client) CreateModule(ctx context.Context, m content.ModuleSpec, pathID string, order int) (string, error) {
	mt := m.ModuleType
	if mt == "" {
		mt = gateway.DefaultModuleType
	}
	return c.create(ctx, gateway.EntityModule, ModulesEndpoint, map[string]any{
		"career_path":      pathID,
		"title":            m.Title,
		"description":      m.Description,
		"content":          m.Content,
		"module_type":      mt,
		"difficulty_level": m.DifficultyLevel,
		"duration_minutes": m.DurationMinutes,
		"order":            order,
		"is_locked":        false,
		"points_reward":    gateway.DefaultModulePoints,
	})
}

func (c *Client) CreateQuiz(ctx context.Context, q content.QuizSpec, moduleID string) (string, error) {
	desc := q.Description
	if desc == "" {
		desc = gateway.DefaultQuizDescription
	}
	return c.create(ctx, gateway.EntityQuiz, QuizzesEndpoint, map[string]any{
		"learning_module":     moduleID,
		"title":               q.Title,
		"description":         desc,
		"time_limit_minutes":  gateway.DefaultQuizTimeLimitMins,
		"passing_score":       gateway.DefaultQuizPassingScore,
		"max_attempts":        gateway.DefaultQuizMaxAttempts,
		"randomize_questions": true,
	})
}

func (c *Client) CreateQuestion(ctx context.Context, q content.QuestionSpec, quizID string, order int) (string, error) {
	text := q.QuestionText
	if text == "" {
		text = "Question"
	}
	qt := q.Type
	if qt == "" {
		qt = content.MultipleChoice
	}
	points := q.Points
	if points <= 0 {
		points = content.DefaultQuestionPoints
	}
	body := map[string]any{
		"quiz":           quizID,
		"question_text":  text,
		"question_type":  qt,
		"points":         points,
		"order":          order,
		"correct_answer": q.AnswerText(),
	}
	if q.Explanation != "" {
		body["explanation"] = q.Explanation
	}
	if len(q.Choices) > 0 {
		choices := make([]map[string]any, 0, len(q.Choices))
		for _, ch := range q.Choices {
			choices = append(choices, map[string]any{"text": ch.Text, "is_correct": ch.IsCorrect})
		}
		body["choices"] = choices
	}
	return c.create(ctx, gateway.EntityQuestion, QuestionsEndpoint, body)
}

func (c *Client) create(ctx context.Context, entity gateway.Entity, endpoint string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &gateway.RemoteError{Entity: entity, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &gateway.RemoteError{Entity: entity, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", &gateway.RemoteError{Entity: entity, Err: err}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", &gateway.RemoteError{Entity: entity, Status: res.StatusCode, Err: err}
	}

	if res.StatusCode/100 != 2 {
		return "", &gateway.RemoteError{
			Entity:  entity,
			Status:  res.StatusCode,
			Message: errorMessage(raw),
			Err:     fmt.Errorf("create %s: %s", entity, res.Status),
		}
	}

	id := ExtractID(raw)
	if id == "" {
		return "", &gateway.RemoteError{
			Entity:  entity,
			Status:  res.StatusCode,
			Message: capitalize(string(entity)) + " " + gateway.ErrMissingID.Error(),
			Err:     gateway.ErrMissingID,
		}
	}
	return id, nil
}

// ExtractID finds the new entity's id in a create response. Accepted shapes,
// in order: {"id"}, {"data":{"id"}}, {"module":{"id"}}, and the first
// non-"message" member that is an object carrying an id.
func ExtractID(raw []byte) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return ""
	}
	if id := idOf(top["id"]); id != "" {
		return id
	}
	for _, k := range []string{"data", "module"} {
		if id := nestedID(top[k]); id != "" {
			return id
		}
	}
	// JSON object member order is lost in a map; decode again with a token stream.
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return ""
	}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return ""
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return ""
		}
		if k, _ := t.(string); k != "message" {
			return nestedID(v)
		}
	}
	return ""
}

func nestedID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return idOf(obj["id"])
}

// idOf accepts string and numeric ids.
func idOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// errorMessage pulls the most specific message out of an error body:
// field errors for slug, then name, then detail/error/message.
func errorMessage(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, field := range []string{"slug", "name"} {
		var list []string
		if err := json.Unmarshal(body[field], &list); err == nil && len(list) > 0 {
			return list[0]
		}
	}
	for _, field := range []string{"detail", "error", "message"} {
		var s string
		if err := json.Unmarshal(body[field], &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

