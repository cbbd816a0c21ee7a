package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-authoring/internal/auth/middleware"
	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/editor"
	"github.com/mind-engage/mindengage-authoring/internal/extract"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/logger"
	"github.com/mind-engage/mindengage-authoring/internal/slides"
	"github.com/mind-engage/mindengage-authoring/internal/storage"
	"github.com/mind-engage/mindengage-authoring/internal/wizard"
)

// MountWizards registers the wizard routes on r. Auth and RBAC are the
// caller's job.
func MountWizards(r chi.Router, reg *wizard.Registry, ex extract.Extractor, bs storage.BlobStore, log *logger.Logger) {
	r.Post("/", CreateWizardHandler(reg, ex, bs, log))
	r.Route("/{wizardID}", func(wr chi.Router) {
		wr.Get("/", GetWizardHandler(reg))
		wr.Delete("/", CancelWizardHandler(reg))

		wr.Patch("/path", UpdatePathHandler(reg))
		wr.Post("/path", SavePathHandler(reg))

		wr.Get("/slides", ListSlidesHandler(reg))
		wr.Post("/slides", AddSlideHandler(reg))
		wr.Put("/slides", ReplaceSlidesHandler(reg))
		wr.Put("/slides/{index}", EditSlideHandler(reg))
		wr.Delete("/slides/{index}", RemoveSlideHandler(reg))

		wr.Post("/modules/{index}/select", SelectModuleHandler(reg))
		wr.Post("/modules/save", SaveModuleHandler(reg))
		wr.Post("/modules/skip", SkipModuleHandler(reg))

		wr.Get("/questions", ListQuestionsHandler(reg))
		wr.Post("/questions", AddQuestionHandler(reg))
		wr.Put("/questions", ReplaceQuestionsHandler(reg))
		wr.Put("/questions/{index}", EditQuestionHandler(reg))
		wr.Delete("/questions/{index}", RemoveQuestionHandler(reg))
		wr.Post("/questions/{index}/choices", AddChoiceHandler(reg))
		wr.Delete("/questions/{index}/choices/{choiceID}", RemoveChoiceHandler(reg))
		wr.Post("/questions/{index}/correct/{choiceID}", SetCorrectHandler(reg))

		wr.Post("/quizzes/save", SaveQuizHandler(reg))
		wr.Post("/quizzes/skip", SkipQuizHandler(reg))
	})
}

func lookup(reg *wizard.Registry, w http.ResponseWriter, r *http.Request) (*wizard.Orchestrator, bool) {
	o, ok := reg.Get(chi.URLParam(r, "wizardID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "wizard not found"})
	}
	return o, ok
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad index"})
		return 0, false
	}
	return i, true
}

// POST /wizards
//
//	multipart: file=<pdf>
//	json:      {"prompt": "...", "module_count": 5, "include_quizzes": true}
func CreateWizardHandler(reg *wizard.Registry, ex extract.Extractor, bs storage.BlobStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extract.Request
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, extract.MaxUploadBytes+1<<20)
			f, hdr, err := r.FormFile("file")
			var tooBig *http.MaxBytesError
			switch {
			case errors.As(err, &tooBig):
				writeError(w, &extract.InputError{Message: "File size must be less than 10MB"})
				return
			case err != nil:
				writeError(w, &extract.InputError{Message: "Please select a PDF file first"})
				return
			}
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, extract.MaxUploadBytes+1))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "read upload: " + err.Error()})
				return
			}
			req.FileName, req.File = hdr.Filename, data
		} else {
			var body struct {
				Prompt         string `json:"prompt"`
				ModuleCount    int    `json:"module_count"`
				IncludeQuizzes bool   `json:"include_quizzes"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
				return
			}
			req.Prompt, req.ModuleCount, req.IncludeQuizzes = body.Prompt, body.ModuleCount, body.IncludeQuizzes
		}
		if err := extract.Validate(&req); err != nil {
			writeError(w, err)
			return
		}

		o := reg.Create(auth.SubjectFromContext(r.Context()))
		if req.IsUpload() && bs != nil {
			key := storage.UploadKey(o.ID(), req.FileName)
			if _, err := bs.Put(key, bytes.NewReader(req.File)); err != nil {
				log.Warn("store upload failed", "wizard", o.ID(), "key", key, "error", err)
			}
		}
		if err := o.Start(r.Context(), ex, req); err != nil {
			reg.Delete(o.ID())
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, o.Snapshot())
	}
}

// GET /wizards/{wizardID}
func GetWizardHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, o.Snapshot())
	}
}

// DELETE /wizards/{wizardID}
// Cancels an unfinished wizard and forgets it. Entities already created stay.
func CancelWizardHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		err := o.Cancel(r.Context())
		if err != nil && !errors.Is(err, wizard.ErrWrongStep) {
			writeError(w, err)
			return
		}
		snap := o.Snapshot()
		reg.Delete(o.ID())
		writeJSON(w, http.StatusOK, snap)
	}
}

// ---- path ----

type pathPatch struct {
	Name              *string   `json:"name"`
	Description       *string   `json:"description"`
	ProgramType       *string   `json:"program_type"`
	DifficultyLevel   *string   `json:"difficulty_level"`
	EstimatedDuration *int      `json:"estimated_duration"`
	RequiredSkills    *[]string `json:"required_skills"`
}

func (pp pathPatch) apply(p *content.PathSpec) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.ProgramType != nil {
		p.ProgramType = *pp.ProgramType
	}
	if pp.DifficultyLevel != nil {
		p.DifficultyLevel = *pp.DifficultyLevel
	}
	if pp.EstimatedDuration != nil {
		p.EstimatedDuration = *pp.EstimatedDuration
	}
	if pp.RequiredSkills != nil {
		p.RequiredSkills = append([]string(nil), (*pp.RequiredSkills)...)
	}
}

// PATCH /wizards/{wizardID}/path
func UpdatePathHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var patch pathPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		if err := o.UpdatePath(patch.apply); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o.Snapshot())
	}
}

// POST /wizards/{wizardID}/path
func SavePathHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		id, err := o.SavePath(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"path_id": id, "wizard": o.Snapshot()})
	}
}

// ---- slides ----

// slidesView lists the editor's slides. Dirty is aligned with Slides;
// Replaced is set only in reply to a full-list PUT.
type slidesView struct {
	Slides   []slides.Slide `json:"slides"`
	Dirty    []bool         `json:"dirty"`
	Active   int            `json:"active"`
	Replaced *bool          `json:"replaced,omitempty"`
}

func slideView(o *wizard.Orchestrator) (slidesView, error) {
	entries, active, err := o.SlideEntries()
	if err != nil {
		return slidesView{}, err
	}
	v := slidesView{Slides: make([]slides.Slide, len(entries)), Dirty: make([]bool, len(entries)), Active: active}
	for i, e := range entries {
		v.Slides[i], v.Dirty[i] = e.Value, e.Dirty
	}
	return v, nil
}

func writeSlides(w http.ResponseWriter, o *wizard.Orchestrator) {
	v, err := slideView(o)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /wizards/{wizardID}/slides
func ListSlidesHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if o, ok := lookup(reg, w, r); ok {
			writeSlides(w, o)
		}
	}
}

// POST /wizards/{wizardID}/slides
func AddSlideHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		err := o.EditSlides(r.Context(), func(s *editor.SlideStore) error {
			editor.AddSlide(s)
			return nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeSlides(w, o)
	}
}

// PUT /wizards/{wizardID}/slides  {"slides": [...]}
//
// Offers a full slide list. The same slide ids in the same order keep the
// author's edits; anything else replaces the editor.
func ReplaceSlidesHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var body struct {
			Slides []slides.Slide `json:"slides"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		replaced, err := o.ReplaceSlides(r.Context(), body.Slides)
		if err != nil {
			writeError(w, err)
			return
		}
		v, err := slideView(o)
		if err != nil {
			writeError(w, err)
			return
		}
		v.Replaced = &replaced
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /wizards/{wizardID}/slides/{index}  {"title": "...", "content": "<p>..</p>"}
func EditSlideHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		i, ok := indexParam(w, r)
		if !ok {
			return
		}
		var body struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		err := o.EditSlides(r.Context(), func(s *editor.SlideStore) error {
			if err := s.SetActive(i); err != nil {
				return err
			}
			if body.Title != nil {
				if err := editor.SetSlideTitle(s, i, *body.Title); err != nil {
					return err
				}
			}
			if body.Content != nil {
				return editor.SetSlideContent(s, i, *body.Content)
			}
			return nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeSlides(w, o)
	}
}

// DELETE /wizards/{wizardID}/slides/{index}
func RemoveSlideHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		i, ok := indexParam(w, r)
		if !ok {
			return
		}
		err := o.EditSlides(r.Context(), func(s *editor.SlideStore) error { return s.Remove(i) })
		if err != nil {
			writeError(w, err)
			return
		}
		writeSlides(w, o)
	}
}

// ---- modules ----

// POST /wizards/{wizardID}/modules/{index}/select
func SelectModuleHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		i, ok := indexParam(w, r)
		if !ok {
			return
		}
		if err := o.SelectModule(i); err != nil {
			writeError(w, err)
			return
		}
		writeSlides(w, o)
	}
}

// POST /wizards/{wizardID}/modules/save
func SaveModuleHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		id, err := o.SaveModule(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"module_id": id, "wizard": o.Snapshot()})
	}
}

// POST /wizards/{wizardID}/modules/skip
func SkipModuleHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		if err := o.SkipModule(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o.Snapshot())
	}
}

// ---- questions ----

type questionsView struct {
	Questions []content.QuestionSpec `json:"questions"`
	Dirty     []bool                 `json:"dirty"`
	Active    int                    `json:"active"`
	Replaced  *bool                  `json:"replaced,omitempty"`
}

func questionView(o *wizard.Orchestrator) (questionsView, error) {
	entries, active, err := o.QuestionEntries()
	if err != nil {
		return questionsView{}, err
	}
	v := questionsView{Questions: make([]content.QuestionSpec, len(entries)), Dirty: make([]bool, len(entries)), Active: active}
	for i, e := range entries {
		v.Questions[i], v.Dirty[i] = e.Value, e.Dirty
	}
	return v, nil
}

func writeQuestions(w http.ResponseWriter, o *wizard.Orchestrator) {
	v, err := questionView(o)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PUT /wizards/{wizardID}/questions  {"questions": [...]}
func ReplaceQuestionsHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var body struct {
			Questions []content.QuestionSpec `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		replaced, err := o.ReplaceQuestions(r.Context(), body.Questions)
		if err != nil {
			writeError(w, err)
			return
		}
		v, err := questionView(o)
		if err != nil {
			writeError(w, err)
			return
		}
		v.Replaced = &replaced
		writeJSON(w, http.StatusOK, v)
	}
}

// editQuestions runs fn against the question editor and replies with the
// resulting list.
func editQuestions(reg *wizard.Registry, fn func(r *http.Request, s *editor.QuestionStore, i int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		i := -1
		if chi.URLParam(r, "index") != "" {
			if i, ok = indexParam(w, r); !ok {
				return
			}
		}
		if err := o.EditQuestions(r.Context(), func(s *editor.QuestionStore) error { return fn(r, s, i) }); err != nil {
			writeError(w, err)
			return
		}
		writeQuestions(w, o)
	}
}

// GET /wizards/{wizardID}/questions
func ListQuestionsHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if o, ok := lookup(reg, w, r); ok {
			writeQuestions(w, o)
		}
	}
}

// POST /wizards/{wizardID}/questions
func AddQuestionHandler(reg *wizard.Registry) http.HandlerFunc {
	return editQuestions(reg, func(_ *http.Request, s *editor.QuestionStore, _ int) error {
		editor.AddQuestion(s)
		return nil
	})
}

type questionPatch struct {
	QuestionText  *string               `json:"question_text"`
	Type          *content.QuestionType `json:"question_type"`
	Explanation   *string               `json:"explanation"`
	Points        *int                  `json:"points"`
	CorrectAnswer *string               `json:"correct_answer"`
	// ChoiceText maps choice id to its new text.
	ChoiceText map[string]string `json:"choice_text"`
}

// PUT /wizards/{wizardID}/questions/{index}
func EditQuestionHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p questionPatch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		editQuestions(reg, func(_ *http.Request, s *editor.QuestionStore, i int) error {
			return p.apply(s, i)
		})(w, r)
	}
}

func (p questionPatch) apply(s *editor.QuestionStore, i int) error {
	if err := s.SetActive(i); err != nil {
		return err
	}
	if p.Type != nil {
		if err := editor.SetQuestionType(s, i, *p.Type); err != nil {
			return &wizard.ValidationError{Field: "question_type", Message: err.Error()}
		}
	}
	for id, text := range p.ChoiceText {
		if err := editor.SetChoiceText(s, i, id, text); err != nil {
			return err
		}
	}
	return s.Edit(i, func(q *content.QuestionSpec) {
		if p.QuestionText != nil {
			q.QuestionText = *p.QuestionText
		}
		if p.Explanation != nil {
			q.Explanation = *p.Explanation
		}
		if p.Points != nil {
			q.Points = *p.Points
		}
		if p.CorrectAnswer != nil {
			q.CorrectAnswer = content.Answer(*p.CorrectAnswer)
		}
	})
}

// DELETE /wizards/{wizardID}/questions/{index}
func RemoveQuestionHandler(reg *wizard.Registry) http.HandlerFunc {
	return editQuestions(reg, func(_ *http.Request, s *editor.QuestionStore, i int) error {
		return s.Remove(i)
	})
}

// POST /wizards/{wizardID}/questions/{index}/choices
func AddChoiceHandler(reg *wizard.Registry) http.HandlerFunc {
	return editQuestions(reg, func(_ *http.Request, s *editor.QuestionStore, i int) error {
		return editor.AddChoice(s, i)
	})
}

// DELETE /wizards/{wizardID}/questions/{index}/choices/{choiceID}
func RemoveChoiceHandler(reg *wizard.Registry) http.HandlerFunc {
	return editQuestions(reg, func(r *http.Request, s *editor.QuestionStore, i int) error {
		return editor.RemoveChoice(s, i, chi.URLParam(r, "choiceID"))
	})
}

// POST /wizards/{wizardID}/questions/{index}/correct/{choiceID}
func SetCorrectHandler(reg *wizard.Registry) http.HandlerFunc {
	return editQuestions(reg, func(r *http.Request, s *editor.QuestionStore, i int) error {
		return editor.SetCorrectChoice(s, i, chi.URLParam(r, "choiceID"))
	})
}

// ---- quizzes ----

type questionFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type quizResult struct {
	QuizIndex       int               `json:"quiz_index"`
	QuizID          string            `json:"quiz_id,omitempty"`
	Skipped         bool              `json:"skipped"`
	Created         int               `json:"created_questions"`
	FailedQuestions []questionFailure `json:"failed_questions,omitempty"`
	Error           string            `json:"error,omitempty"`
	Wizard          wizard.Snapshot   `json:"wizard"`
}

// POST /wizards/{wizardID}/quizzes/save
//
// A quiz whose module was never saved answers 422 with the wizard already
// advanced past it. Question failures are listed in a 200 reply.
func SaveQuizHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		out, err := o.SaveQuiz(r.Context())
		var rerr *wizard.ReferenceError
		if err != nil && !errors.As(err, &rerr) {
			writeError(w, err)
			return
		}
		res := quizResult{QuizIndex: out.QuizIndex, QuizID: out.QuizID, Skipped: out.Skipped}
		for _, q := range out.Questions {
			if q.Err != nil {
				res.FailedQuestions = append(res.FailedQuestions, questionFailure{Index: q.Index, Error: gateway.Message(q.Err)})
			} else {
				res.Created++
			}
		}
		res.Wizard = o.Snapshot()
		status := http.StatusOK
		if rerr != nil {
			status = http.StatusUnprocessableEntity
			res.Error = rerr.Error()
		}
		writeJSON(w, status, res)
	}
}

// POST /wizards/{wizardID}/quizzes/skip
func SkipQuizHandler(reg *wizard.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		if err := o.SkipQuiz(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o.Snapshot())
	}
}
