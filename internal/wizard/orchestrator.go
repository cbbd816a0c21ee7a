// Package wizard walks an extracted document through review and persistence:
// path first, then each module, then each quiz with its questions. Every
// entity is created at most once; quizzes reach their module through the id
// recorded when that module was saved.
package wizard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-authoring/internal/content"
	"github.com/mind-engage/mindengage-authoring/internal/editor"
	"github.com/mind-engage/mindengage-authoring/internal/extract"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/logger"
	"github.com/mind-engage/mindengage-authoring/internal/slides"
	"github.com/mind-engage/mindengage-authoring/internal/slug"
)

type Config struct {
	Gateway gateway.Gateway
	Journal Journal
	Logger  *logger.Logger
	Slugify func(string) string
	Author  string // recorded on journal events and snapshots

	// Optional pre-built state objects; fresh ones are used when nil.
	State     *State
	Slides    *editor.SlideStore
	Questions *editor.QuestionStore
}

type opClass int

const (
	opExtract opClass = iota
	opPath
	opModule
	opQuiz
)

type Orchestrator struct {
	id      string
	author  string
	gw      gateway.Gateway
	journal Journal
	log     *logger.Logger
	slugify func(string) string

	mu            sync.Mutex
	doc           content.Document
	state         *State
	slides        *editor.SlideStore
	questions     *editor.QuestionStore
	slideSaver    *editor.Autosaver[slides.Slide]
	questionSaver *editor.Autosaver[content.QuestionSpec]
	saving        map[opClass]bool
}

func New(id string, cfg Config) *Orchestrator {
	o := &Orchestrator{
		id:        id,
		author:    cfg.Author,
		gw:        cfg.Gateway,
		journal:   cfg.Journal,
		log:       cfg.Logger,
		slugify:   cfg.Slugify,
		state:     cfg.State,
		slides:    cfg.Slides,
		questions: cfg.Questions,
		saving:    map[opClass]bool{},
	}
	if o.journal == nil {
		o.journal = nopJournal{}
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	o.log = o.log.With("wizard", id)
	if o.author != "" {
		o.log = o.log.With("author", o.author)
	}
	if o.slugify == nil {
		o.slugify = slug.Slugify
	}
	if o.state == nil {
		o.state = NewState()
	}
	if o.slides == nil {
		o.slides = editor.NewSlideStore(nil)
	}
	if o.questions == nil {
		o.questions = editor.NewQuestionStore(nil)
	}
	o.slideSaver = editor.NewAutosaver(o.slides, o.writeBackSlides)
	o.questionSaver = editor.NewAutosaver(o.questions, o.writeBackQuestions)
	return o
}

func (o *Orchestrator) ID() string { return o.id }

// ---- input ----

// Start runs extraction or generation and loads the result. On failure the
// wizard stays in the input step.
func (o *Orchestrator) Start(ctx context.Context, ex extract.Extractor, req extract.Request) error {
	o.mu.Lock()
	if err := o.usable(StepInput); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.saving[opExtract] {
		o.mu.Unlock()
		return ErrSaveInFlight
	}
	o.saving[opExtract] = true
	o.mu.Unlock()

	doc, err := ex.Extract(ctx, req)

	o.mu.Lock()
	o.saving[opExtract] = false
	o.mu.Unlock()
	if err != nil {
		o.log.Error("extraction failed", "upload", req.IsUpload(), "error", err)
		return err
	}
	quizzes := true
	if !req.IsUpload() {
		quizzes = req.IncludeQuizzes
	}
	return o.Load(doc, quizzes)
}

// Load installs a document and moves to the path step.
func (o *Orchestrator) Load(doc content.Document, quizzesEnabled bool) error {
	doc = cloneDocument(doc)
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepInput); err != nil {
		return err
	}
	o.doc = doc
	o.state.reset(len(doc.Modules), len(doc.Quizzes))
	o.state.QuizzesEnabled = quizzesEnabled
	o.state.Step = StepPath
	o.log.Info("document loaded", "modules", len(doc.Modules), "quizzes", len(doc.Quizzes))
	return nil
}

// ---- path ----

func (o *Orchestrator) UpdatePath(fn func(p *content.PathSpec)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepPath); err != nil {
		return err
	}
	fn(&o.doc.Path)
	return nil
}

// SavePath creates the path once and enters the modules step.
func (o *Orchestrator) SavePath(ctx context.Context) (string, error) {
	o.mu.Lock()
	if err := o.usable(StepPath); err != nil {
		o.mu.Unlock()
		return "", err
	}
	if o.saving[opPath] {
		o.mu.Unlock()
		return "", ErrSaveInFlight
	}
	p := o.doc.Path
	p.RequiredSkills = slices.Clone(p.RequiredSkills)
	if strings.TrimSpace(p.Name) == "" {
		o.mu.Unlock()
		return "", &ValidationError{Field: "name", Message: "Path name is required"}
	}
	o.saving[opPath] = true
	o.mu.Unlock()

	s := o.slugify(p.Name)
	id, err := o.gw.CreatePath(ctx, p, s)

	o.mu.Lock()
	o.saving[opPath] = false
	if err != nil {
		o.mu.Unlock()
		o.log.Error("create path failed", "name", p.Name, "slug", s, "error", err)
		return "", err
	}
	o.state.SavedPathID = id
	evs := []event{{EventPathCreated, map[string]any{"path_id": id, "slug": s}}}
	if !o.state.Cancelled {
		o.state.Step = StepModules
		o.state.CurrentModuleIndex = 0
		evs = append(evs, o.enterModuleLocked()...)
	}
	o.mu.Unlock()

	o.log.Info("path created", "path_id", id, "slug", s)
	o.emit(ctx, evs)
	return id, nil
}

// ---- modules ----

// SelectModule revisits module i. Only modules already reached can be
// selected; saving a module that was already saved only advances.
func (o *Orchestrator) SelectModule(i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepModules); err != nil {
		return err
	}
	if o.saving[opModule] {
		return ErrSaveInFlight
	}
	if i < 0 || i >= len(o.doc.Modules) {
		return fmt.Errorf("%w: module %d", editor.ErrIndex, i)
	}
	if i > o.state.FurthestModule {
		return fmt.Errorf("%w: module %d not reached yet", ErrWrongStep, i)
	}
	o.state.CurrentModuleIndex = i
	o.enterModuleLocked()
	return nil
}

// SaveModule persists the current module from the slide editor and advances.
func (o *Orchestrator) SaveModule(ctx context.Context) (string, error) {
	o.mu.Lock()
	if err := o.usable(StepModules); err != nil {
		o.mu.Unlock()
		return "", err
	}
	if o.saving[opModule] {
		o.mu.Unlock()
		return "", ErrSaveInFlight
	}
	i := o.state.CurrentModuleIndex
	if id, ok := o.state.ModuleID(i); ok {
		evs := o.advanceModuleLocked()
		o.mu.Unlock()
		o.log.Debug("module already saved", "index", i, "module_id", id)
		o.emit(ctx, evs)
		return id, nil
	}
	items := o.slides.Items()
	for n, s := range items {
		if strings.TrimSpace(s.Content) == "" {
			o.mu.Unlock()
			return "", &ValidationError{Field: fmt.Sprintf("slides[%d].content", n), Message: "Please add content to all slides"}
		}
	}
	m := o.doc.Modules[i]
	m.Content = slides.Assemble(items)
	pathID := o.state.SavedPathID
	o.saving[opModule] = true
	o.mu.Unlock()

	id, err := o.gw.CreateModule(ctx, m, pathID, i)

	o.mu.Lock()
	o.saving[opModule] = false
	if err != nil {
		o.mu.Unlock()
		o.log.Error("create module failed", "index", i, "title", m.Title, "error", err)
		return "", err
	}
	o.state.markModuleSaved(i, id)
	o.doc.Modules[i].Content = m.Content
	evs := []event{{EventModuleCreated, map[string]any{"index": i, "module_id": id, "path_id": pathID}}}
	if !o.state.Cancelled && o.state.Step == StepModules && o.state.CurrentModuleIndex == i {
		evs = append(evs, o.advanceModuleLocked()...)
	}
	o.mu.Unlock()

	o.log.Info("module created", "index", i, "module_id", id, "slides", len(items))
	o.emit(ctx, evs)
	return id, nil
}

// SkipModule advances without persisting. Quizzes that reference a skipped
// module fail their reference lookup later.
func (o *Orchestrator) SkipModule(ctx context.Context) error {
	o.mu.Lock()
	if err := o.usable(StepModules); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.saving[opModule] {
		o.mu.Unlock()
		return ErrSaveInFlight
	}
	i := o.state.CurrentModuleIndex
	var evs []event
	if !o.state.SavedModules[i] {
		evs = append(evs, event{EventModuleSkipped, map[string]any{"index": i}})
	}
	evs = append(evs, o.advanceModuleLocked()...)
	o.mu.Unlock()

	o.log.Info("module skipped", "index", i)
	o.emit(ctx, evs)
	return nil
}

func (o *Orchestrator) advanceModuleLocked() []event {
	o.state.CurrentModuleIndex++
	return o.enterModuleLocked()
}

// enterModuleLocked loads the current module into the slide editor, or leaves
// the modules step once every index has been visited.
func (o *Orchestrator) enterModuleLocked() []event {
	i := o.state.CurrentModuleIndex
	if i >= len(o.doc.Modules) {
		if o.state.QuizzesEnabled && len(o.doc.Quizzes) > 0 {
			o.state.Step = StepQuizzes
			o.state.CurrentQuizIndex = 0
			return o.enterQuizLocked()
		}
		return o.completeLocked()
	}
	o.state.FurthestModule = max(o.state.FurthestModule, i)
	m := o.doc.Modules[i]
	o.slides.Reset(slides.Segment(m.Content, m.Title))
	_ = o.slideSaver.Prime()
	return nil
}

// ---- quizzes ----

// SaveQuiz persists the current quiz and then each of its questions in order.
// A quiz whose module was never saved is skipped with a *ReferenceError; the
// wizard still advances. Failed question creates are reported in the outcome
// and do not stop the remaining questions.
func (o *Orchestrator) SaveQuiz(ctx context.Context) (QuizOutcome, error) {
	o.mu.Lock()
	if err := o.usable(StepQuizzes); err != nil {
		o.mu.Unlock()
		return QuizOutcome{}, err
	}
	if o.saving[opQuiz] {
		o.mu.Unlock()
		return QuizOutcome{}, ErrSaveInFlight
	}
	qi := o.state.CurrentQuizIndex
	out := QuizOutcome{QuizIndex: qi}
	if id := o.state.SavedQuizIDs[qi]; id != "" {
		out.QuizID = id
		evs := o.advanceQuizLocked()
		o.mu.Unlock()
		o.emit(ctx, evs)
		return out, nil
	}

	quiz := o.doc.Quizzes[qi]
	quiz.Questions = cloneQuestions(o.questions.Items())
	moduleID, ok := o.state.ModuleID(quiz.ModuleIndex)
	if !ok {
		rerr := &ReferenceError{QuizIndex: qi, ModuleIndex: quiz.ModuleIndex}
		out.Skipped = true
		evs := []event{{EventQuizSkipped, map[string]any{
			"index": qi, "module_index": quiz.ModuleIndex, "reason": "module not saved",
		}}}
		evs = append(evs, o.advanceQuizLocked()...)
		o.mu.Unlock()
		o.log.Warn("quiz skipped", "index", qi, "error", rerr)
		o.emit(ctx, evs)
		return out, rerr
	}
	for n, q := range quiz.Questions {
		if err := q.Validate(); err != nil {
			o.mu.Unlock()
			return out, &ValidationError{Field: fmt.Sprintf("questions[%d]", n), Message: err.Error()}
		}
	}
	o.saving[opQuiz] = true
	o.mu.Unlock()

	quizID, err := o.gw.CreateQuiz(ctx, quiz, moduleID)
	if err != nil {
		o.mu.Lock()
		o.saving[opQuiz] = false
		o.mu.Unlock()
		o.log.Error("create quiz failed", "index", qi, "module_id", moduleID, "error", err)
		return out, err
	}
	out.QuizID = quizID
	out.Questions = o.createQuestions(ctx, quizID, quiz.Questions)

	o.mu.Lock()
	o.saving[opQuiz] = false
	o.state.SavedQuizIDs[qi] = quizID
	o.doc.Quizzes[qi].Questions = quiz.Questions
	var evs []event
	failed := out.FailedQuestions()
	for _, r := range failed {
		evs = append(evs, event{EventQuestionFailed, map[string]any{
			"quiz_index": qi, "quiz_id": quizID, "question_index": r.Index, "error": gateway.Message(r.Err),
		}})
	}
	evs = append(evs, event{EventQuizCreated, map[string]any{
		"index": qi, "quiz_id": quizID, "module_id": moduleID,
		"questions": len(quiz.Questions), "failed_questions": len(failed),
	}})
	if !o.state.Cancelled && o.state.Step == StepQuizzes && o.state.CurrentQuizIndex == qi {
		evs = append(evs, o.advanceQuizLocked()...)
	}
	o.mu.Unlock()

	o.log.Info("quiz created", "index", qi, "quiz_id", quizID,
		"questions", len(quiz.Questions), "failed_questions", len(failed))
	o.emit(ctx, evs)
	return out, nil
}

// createQuestions issues one create per question, capturing each result.
func (o *Orchestrator) createQuestions(ctx context.Context, quizID string, qs []content.QuestionSpec) []QuestionResult {
	results := make([]QuestionResult, 0, len(qs))
	for n, q := range qs {
		id, err := o.gw.CreateQuestion(ctx, q, quizID, n+1)
		if err != nil {
			o.log.Warn("create question failed", "quiz_id", quizID, "question", n, "error", err)
		}
		results = append(results, QuestionResult{Index: n, ID: id, Err: err})
	}
	return results
}

func (o *Orchestrator) SkipQuiz(ctx context.Context) error {
	o.mu.Lock()
	if err := o.usable(StepQuizzes); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.saving[opQuiz] {
		o.mu.Unlock()
		return ErrSaveInFlight
	}
	qi := o.state.CurrentQuizIndex
	var evs []event
	if o.state.SavedQuizIDs[qi] == "" {
		evs = append(evs, event{EventQuizSkipped, map[string]any{"index": qi, "reason": "skipped by author"}})
	}
	evs = append(evs, o.advanceQuizLocked()...)
	o.mu.Unlock()

	o.log.Info("quiz skipped", "index", qi)
	o.emit(ctx, evs)
	return nil
}

func (o *Orchestrator) advanceQuizLocked() []event {
	o.state.CurrentQuizIndex++
	return o.enterQuizLocked()
}

func (o *Orchestrator) enterQuizLocked() []event {
	i := o.state.CurrentQuizIndex
	if i >= len(o.doc.Quizzes) {
		return o.completeLocked()
	}
	qs := cloneQuestions(o.doc.Quizzes[i].Questions)
	if len(qs) == 0 {
		qs = []content.QuestionSpec{editor.DefaultQuestion(1)}
	}
	o.questions.Reset(qs)
	_ = o.questionSaver.Prime()
	return nil
}

func (o *Orchestrator) completeLocked() []event {
	o.state.Step = StepComplete
	return []event{{EventWizardCompleted, map[string]any{
		"path_id":        o.state.SavedPathID,
		"saved_modules":  len(o.state.SavedModules),
		"modules":        len(o.doc.Modules),
		"saved_quizzes":  countSet(o.state.SavedQuizIDs),
		"quizzes":        len(o.doc.Quizzes),
		"quizzes_active": o.state.QuizzesEnabled,
	}}}
}

// ---- cancellation ----

// Cancel abandons the wizard. Entities already created stay in place.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Cancelled {
		o.mu.Unlock()
		return nil
	}
	if o.state.Step == StepComplete {
		o.mu.Unlock()
		return fmt.Errorf("%w: wizard already complete", ErrWrongStep)
	}
	o.state.Cancelled = true
	ev := event{EventWizardCancelled, map[string]any{
		"step":          string(o.state.Step),
		"path_id":       o.state.SavedPathID,
		"saved_modules": o.state.SavedModuleIndexes(),
	}}
	step := o.state.Step
	o.mu.Unlock()

	o.log.Info("wizard cancelled", "step", step)
	o.emit(ctx, []event{ev})
	return nil
}

// ---- editors ----

// Slides returns the current module's slides and the active slide index.
func (o *Orchestrator) Slides() ([]slides.Slide, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepModules); err != nil {
		return nil, 0, err
	}
	return o.slides.Items(), o.slides.Active(), nil
}

// SlideEntries is Slides with each slide's dirty flag. A slide stays dirty
// from its first edit until the module is saved or re-entered.
func (o *Orchestrator) SlideEntries() ([]editor.Entry[slides.Slide], int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepModules); err != nil {
		return nil, 0, err
	}
	return o.slides.Entries(), o.slides.Active(), nil
}

// EditSlides applies fn to the slide editor and autosaves the draft back into
// the document when anything changed. Edits are refused while the module is
// being saved.
func (o *Orchestrator) EditSlides(ctx context.Context, fn func(s *editor.SlideStore) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepModules); err != nil {
		return err
	}
	if o.saving[opModule] {
		return ErrSaveInFlight
	}
	if err := fn(o.slides); err != nil {
		return err
	}
	if _, err := o.slideSaver.Observe(ctx, o.slides.Items()); err != nil {
		o.log.Warn("slide autosave failed", "module", o.state.CurrentModuleIndex, "error", err)
	}
	return nil
}

// ReplaceSlides offers a full slide list from the host. A list with the same
// slide ids in the same order leaves local edits in place; the result reports
// whether the editor was replaced.
func (o *Orchestrator) ReplaceSlides(ctx context.Context, items []slides.Slide) (bool, error) {
	var replaced bool
	err := o.EditSlides(ctx, func(s *editor.SlideStore) error {
		replaced = s.ReplaceBaseline(items)
		return nil
	})
	return replaced, err
}

func (o *Orchestrator) Questions() ([]content.QuestionSpec, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepQuizzes); err != nil {
		return nil, 0, err
	}
	return o.questions.Items(), o.questions.Active(), nil
}

func (o *Orchestrator) QuestionEntries() ([]editor.Entry[content.QuestionSpec], int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepQuizzes); err != nil {
		return nil, 0, err
	}
	entries := o.questions.Entries()
	for i := range entries {
		entries[i].Value.Choices = slices.Clone(entries[i].Value.Choices)
	}
	return entries, o.questions.Active(), nil
}

func (o *Orchestrator) EditQuestions(ctx context.Context, fn func(s *editor.QuestionStore) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.usable(StepQuizzes); err != nil {
		return err
	}
	if o.saving[opQuiz] {
		return ErrSaveInFlight
	}
	if err := fn(o.questions); err != nil {
		return err
	}
	if _, err := o.questionSaver.Observe(ctx, o.questions.Items()); err != nil {
		o.log.Warn("question autosave failed", "quiz", o.state.CurrentQuizIndex, "error", err)
	}
	return nil
}

func (o *Orchestrator) ReplaceQuestions(ctx context.Context, items []content.QuestionSpec) (bool, error) {
	var replaced bool
	err := o.EditQuestions(ctx, func(s *editor.QuestionStore) error {
		items = cloneQuestions(items)
		content.NormalizeQuestions(items)
		replaced = s.ReplaceBaseline(items)
		return nil
	})
	return replaced, err
}

// writeBackSlides runs under o.mu from an autosave tick.
func (o *Orchestrator) writeBackSlides(_ context.Context, items []slides.Slide) error {
	i := o.state.CurrentModuleIndex
	if o.state.Step != StepModules || i >= len(o.doc.Modules) {
		return nil
	}
	o.doc.Modules[i].Content = slides.Assemble(items)
	return nil
}

func (o *Orchestrator) writeBackQuestions(_ context.Context, items []content.QuestionSpec) error {
	i := o.state.CurrentQuizIndex
	if o.state.Step != StepQuizzes || i >= len(o.doc.Quizzes) {
		return nil
	}
	o.doc.Quizzes[i].Questions = cloneQuestions(items)
	return nil
}

// ---- views ----

type Snapshot struct {
	ID       string           `json:"id"`
	Author   string           `json:"author,omitempty"`
	State    State            `json:"state"`
	Steps    []Step           `json:"steps"`
	Document content.Document `json:"document"`
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		ID:       o.id,
		Author:   o.author,
		State:    o.state.clone(),
		Steps:    Steps(o.state.QuizzesEnabled, len(o.doc.Quizzes)),
		Document: cloneDocument(o.doc),
	}
}

// ---- helpers ----

func (o *Orchestrator) usable(step Step) error {
	if o.state.Cancelled {
		return ErrCancelled
	}
	if o.state.Step != step {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongStep, o.state.Step, step)
	}
	return nil
}

// emit journals events outside the lock. Journal failures are logged only.
func (o *Orchestrator) emit(ctx context.Context, evs []event) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range evs {
		if o.author != "" {
			ev.data["author"] = o.author
		}
		if err := o.journal.Record(ctx, ev.typ, o.id, ev.data); err != nil {
			o.log.Warn("journal append failed", "event", ev.typ, "error", err)
		}
	}
}

func countSet(ids []string) int {
	n := 0
	for _, id := range ids {
		if id != "" {
			n++
		}
	}
	return n
}

func cloneDocument(d content.Document) content.Document {
	c := d
	c.Path.RequiredSkills = slices.Clone(d.Path.RequiredSkills)
	c.Modules = slices.Clone(d.Modules)
	c.Quizzes = slices.Clone(d.Quizzes)
	for i := range c.Quizzes {
		c.Quizzes[i].Questions = cloneQuestions(d.Quizzes[i].Questions)
	}
	return c
}

func cloneQuestions(qs []content.QuestionSpec) []content.QuestionSpec {
	out := slices.Clone(qs)
	for i := range out {
		out[i].Choices = slices.Clone(out[i].Choices)
	}
	return out
}
