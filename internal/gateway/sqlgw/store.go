// Package sqlgw persists wizard output straight into the authoring database
// (see internal/db for the schema). It is the gateway used when the service
// runs without an upstream learning backend.
package sqlgw

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
)

var ErrNotFound = errors.New("not found")

// SlugTakenMessage mirrors the backend's field error for a duplicate slug.
const SlugTakenMessage = "career path with this slug already exists."

type Store struct {
	db *sql.DB
}

var _ gateway.Gateway = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) CreatePath(ctx context.Context, p content.PathSpec, slug string) (string, error) {
	var exist int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM career_paths WHERE slug=$1`, slug).Scan(&exist)
	switch {
	case err == nil:
		return "", &gateway.RemoteError{Entity: gateway.EntityPath, Message: SlugTakenMessage, Err: fmt.Errorf("slug %q exists", slug)}
	case !errors.Is(err, sql.ErrNoRows):
		return "", &gateway.RemoteError{Entity: gateway.EntityPath, Err: err}
	}

	skills := p.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	sj, err := json.Marshal(skills)
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityPath, Err: err}
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `INSERT INTO career_paths
		(id,name,slug,description,program_type,difficulty_level,estimated_duration,required_skills_json,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, p.Name, slug, p.Description, p.ProgramType, p.DifficultyLevel, p.EstimatedDuration,
		string(sj), true, time.Now().Unix())
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityPath, Err: err}
	}
	return id, nil
}

func (s *Store) CreateModule(ctx context.Context, m content.ModuleSpec, pathID string, order int) (string, error) {
	if err := s.exists(ctx, "career_paths", pathID); err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityModule, Message: "career path not found", Err: err}
	}
	mt := m.ModuleType
	if mt == "" {
		mt = gateway.DefaultModuleType
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO learning_modules
		(id,career_path_id,title,description,content,module_type,difficulty_level,duration_minutes,sort_order,is_locked,points_reward,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		id, pathID, m.Title, m.Description, m.Content, mt, m.DifficultyLevel, m.DurationMinutes,
		order, false, gateway.DefaultModulePoints, time.Now().Unix())
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityModule, Err: err}
	}
	return id, nil
}

func (s *Store) CreateQuiz(ctx context.Context, q content.QuizSpec, moduleID string) (string, error) {
	if err := s.exists(ctx, "learning_modules", moduleID); err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityQuiz, Message: "module not found", Err: err}
	}
	desc := q.Description
	if desc == "" {
		desc = gateway.DefaultQuizDescription
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,learning_module_id,title,description,time_limit_minutes,passing_score,max_attempts,randomize_questions,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		id, moduleID, q.Title, desc, gateway.DefaultQuizTimeLimitMins, gateway.DefaultQuizPassingScore,
		gateway.DefaultQuizMaxAttempts, true, time.Now().Unix())
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityQuiz, Err: err}
	}
	return id, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q content.QuestionSpec, quizID string, order int) (string, error) {
	if err := s.exists(ctx, "quizzes", quizID); err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityQuestion, Message: "quiz not found", Err: err}
	}
	qt := q.Type
	if qt == "" {
		qt = content.MultipleChoice
	}
	points := q.Points
	if points <= 0 {
		points = content.DefaultQuestionPoints
	}
	choices := q.Choices
	if choices == nil {
		choices = []content.Choice{}
	}
	cj, err := json.Marshal(choices)
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityQuestion, Err: err}
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions
		(id,quiz_id,question_text,question_type,choices_json,correct_answer,explanation,points,sort_order,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, quizID, q.QuestionText, string(qt), string(cj), q.AnswerText(), q.Explanation,
		points, order, time.Now().Unix())
	if err != nil {
		return "", &gateway.RemoteError{Entity: gateway.EntityQuestion, Err: err}
	}
	return id, nil
}

// table is always one of the schema's literal names.
func (s *Store) exists(ctx context.Context, table, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", table, id, ErrNotFound)
	}
	return err
}

// ---- reads ----

type Path struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	content.PathSpec
	IsActive bool `json:"is_active"`
}

type Module struct {
	ID     string `json:"id"`
	PathID string `json:"career_path"`
	content.ModuleSpec
	IsLocked     bool `json:"is_locked"`
	PointsReward int  `json:"points_reward"`
}

type Quiz struct {
	ID       string `json:"id"`
	ModuleID string `json:"learning_module"`
	content.QuizSpec
	TimeLimitMinutes   int  `json:"time_limit_minutes"`
	PassingScore       int  `json:"passing_score"`
	MaxAttempts        int  `json:"max_attempts"`
	RandomizeQuestions bool `json:"randomize_questions"`
}

type Question struct {
	QuizID string `json:"quiz"`
	Order  int    `json:"order"`
	content.QuestionSpec
}

func (s *Store) GetPath(ctx context.Context, id string) (Path, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,slug,name,description,program_type,difficulty_level,
		estimated_duration,required_skills_json,is_active FROM career_paths WHERE id=$1`, id)
	var p Path
	var sj string
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.ProgramType, &p.DifficultyLevel,
		&p.EstimatedDuration, &sj, &p.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Path{}, fmt.Errorf("career path %q: %w", id, ErrNotFound)
		}
		return Path{}, err
	}
	if err := json.Unmarshal([]byte(sj), &p.RequiredSkills); err != nil {
		return Path{}, err
	}
	return p, nil
}

// ListModules returns a path's modules by sort order.
func (s *Store) ListModules(ctx context.Context, pathID string) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,career_path_id,title,description,content,module_type,
		difficulty_level,duration_minutes,sort_order,is_locked,points_reward
		FROM learning_modules WHERE career_path_id=$1 ORDER BY sort_order, created_at`, pathID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.PathID, &m.Title, &m.Description, &m.Content, &m.ModuleType,
			&m.DifficultyLevel, &m.DurationMinutes, &m.Order, &m.IsLocked, &m.PointsReward); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListQuizzes(ctx context.Context, moduleID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,learning_module_id,title,description,time_limit_minutes,
		passing_score,max_attempts,randomize_questions
		FROM quizzes WHERE learning_module_id=$1 ORDER BY created_at`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.ModuleID, &q.Title, &q.Description, &q.TimeLimitMinutes,
			&q.PassingScore, &q.MaxAttempts, &q.RandomizeQuestions); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,question_text,question_type,choices_json,
		correct_answer,explanation,points,sort_order
		FROM questions WHERE quiz_id=$1 ORDER BY sort_order`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		var qt, cj, answer string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &qt, &cj, &answer,
			&q.Explanation, &q.Points, &q.Order); err != nil {
			return nil, err
		}
		q.Type = content.QuestionType(qt)
		q.CorrectAnswer = content.Answer(answer)
		if err := json.Unmarshal([]byte(cj), &q.Choices); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
