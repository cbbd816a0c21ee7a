package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds the live wizard sessions of one process.
type Registry struct {
	cfg Config

	mu   sync.RWMutex
	byID map[string]*Orchestrator
}

// NewRegistry builds sessions sharing cfg's collaborators. The state and
// editor fields of cfg are ignored; every session gets its own.
func NewRegistry(cfg Config) *Registry {
	cfg.State, cfg.Slides, cfg.Questions = nil, nil, nil
	return &Registry{cfg: cfg, byID: map[string]*Orchestrator{}}
}

// Create starts a session on behalf of author, which may be empty.
func (r *Registry) Create(author string) *Orchestrator {
	cfg := r.cfg
	cfg.Author = author
	o := New(uuid.NewString(), cfg)
	r.mu.Lock()
	r.byID[o.ID()] = o
	r.mu.Unlock()
	return o
}

func (r *Registry) Get(id string) (*Orchestrator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	return o, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
