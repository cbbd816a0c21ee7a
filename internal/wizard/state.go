package wizard

import (
	"maps"
	"slices"
)

type Step string

const (
	StepInput    Step = "input"
	StepPath     Step = "path"
	StepModules  Step = "modules"
	StepQuizzes  Step = "quizzes"
	StepComplete Step = "complete"
)

// State is the orchestrator's progress through one document.
//
// SavedModuleIDs is aligned to module index; an entry is non-empty iff the
// index is in SavedModules. SavedQuizIDs follows the same rule for quizzes.
type State struct {
	Step               Step         `json:"step"`
	SavedPathID        string       `json:"saved_path_id,omitempty"`
	SavedModuleIDs     []string     `json:"saved_module_ids"`
	SavedModules       map[int]bool `json:"saved_module_indexes"`
	SavedQuizIDs       []string     `json:"saved_quiz_ids"`
	CurrentModuleIndex int          `json:"current_module_index"`
	FurthestModule     int          `json:"furthest_module_index"`
	CurrentQuizIndex   int          `json:"current_quiz_index"`
	QuizzesEnabled     bool         `json:"quizzes_enabled"`
	Cancelled          bool         `json:"cancelled,omitempty"`
}

func NewState() *State {
	return &State{Step: StepInput, SavedModules: map[int]bool{}}
}

// reset sizes the per-index slices for a freshly loaded document.
func (s *State) reset(modules, quizzes int) {
	s.SavedPathID = ""
	s.SavedModuleIDs = make([]string, modules)
	s.SavedModules = map[int]bool{}
	s.SavedQuizIDs = make([]string, quizzes)
	s.CurrentModuleIndex = 0
	s.FurthestModule = 0
	s.CurrentQuizIndex = 0
}

func (s State) ModuleID(i int) (string, bool) {
	if !s.SavedModules[i] || i < 0 || i >= len(s.SavedModuleIDs) {
		return "", false
	}
	return s.SavedModuleIDs[i], true
}

func (s *State) markModuleSaved(i int, id string) {
	s.SavedModuleIDs[i] = id
	s.SavedModules[i] = true
}

// SavedModuleIndexes lists saved module indexes in ascending order.
func (s State) SavedModuleIndexes() []int {
	return slices.Sorted(maps.Keys(s.SavedModules))
}

func (s *State) clone() State {
	c := *s
	c.SavedModuleIDs = slices.Clone(s.SavedModuleIDs)
	c.SavedModules = maps.Clone(s.SavedModules)
	c.SavedQuizIDs = slices.Clone(s.SavedQuizIDs)
	return c
}

// Steps is the step list shown to the author. The quizzes step appears only
// when quizzes are enabled and the document has any.
func Steps(quizzesEnabled bool, quizCount int) []Step {
	steps := []Step{StepInput, StepPath, StepModules}
	if quizzesEnabled && quizCount > 0 {
		steps = append(steps, StepQuizzes)
	}
	return append(steps, StepComplete)
}
