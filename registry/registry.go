package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/core"
)

// ErrIDExists is returned by Register when id is already registered with a
// differing configuration.
type ErrIDExists struct {
	ID string
}

func (e *ErrIDExists) Error() string {
	return fmt.Sprintf("registry: id %q already registered with different configuration", e.ID)
}

// Registry is the single source of truth for which backends exist and
// their current runtime state. It holds two independent concurrent maps
// keyed by backend id — one for *core.Backend, one for agent.Agent — so a
// read on one key's Backend never blocks a read or write on a different
// key, and so a router can read Backend state without ever touching the
// Agent map (and vice versa).
//
// A registration ledger (registered, guarded by a narrow mutex) exists only
// to make Register idempotency-checkable and Deregister symmetric; it never
// participates in the hot read path (list/get/get_agent).
type Registry struct {
	backends sync.Map // id -> *core.Backend
	agents   sync.Map // id -> agent.Agent

	mu         sync.Mutex
	registered map[string]regKey
}

type regKey struct {
	url string
	typ core.BackendType
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{registered: make(map[string]regKey)}
}

// Register inserts Backend and Agent under the same id atomically.
// Idempotent when called again with an identical (id, url, type): the
// second call is a no-op success. Returns *ErrIDExists if id is already
// registered with a differing url or type.
func (r *Registry) Register(b *core.Backend, a agent.Agent) error {
	key := regKey{url: b.URL, typ: b.Type}

	r.mu.Lock()
	if existing, ok := r.registered[b.ID]; ok {
		r.mu.Unlock()
		if existing != key {
			return &ErrIDExists{ID: b.ID}
		}
		return nil
	}
	r.registered[b.ID] = key
	r.mu.Unlock()

	r.backends.Store(b.ID, b)
	r.agents.Store(b.ID, a)
	return nil
}

// Deregister removes both the Backend and Agent for id. No-op if absent.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	delete(r.registered, id)
	r.mu.Unlock()

	r.backends.Delete(id)
	r.agents.Delete(id)
}

// Get returns the current Backend for id, if registered.
func (r *Registry) Get(id string) (*core.Backend, bool) {
	v, ok := r.backends.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*core.Backend), true
}

// GetAgent returns the Agent handle for id, if registered.
func (r *Registry) GetAgent(id string) (agent.Agent, bool) {
	v, ok := r.agents.Load(id)
	if !ok {
		return nil, false
	}
	return v.(agent.Agent), true
}

// List returns a snapshot of all registered backends. Ordering is
// unspecified.
func (r *Registry) List() []*core.Backend {
	out := make([]*core.Backend, 0)
	r.backends.Range(func(_, v any) bool {
		out = append(out, v.(*core.Backend))
		return true
	})
	return out
}

// ListIDs returns the ids of every registered backend. Ordering is
// unspecified.
func (r *Registry) ListIDs() []string {
	out := make([]string, 0)
	r.backends.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// UpdateStatus writes the status field (and optional error message) for id.
// No-op if id is not registered — a concurrent Deregister may race this
// call, and the health checker must not resurrect a removed backend.
func (r *Registry) UpdateStatus(id string, status core.Status, errMsg string, checkedAt time.Time) {
	b, ok := r.Get(id)
	if !ok {
		return
	}
	b.SetStatus(status, errMsg, checkedAt)
}

// UpdateModels atomically replaces the model set for id. No-op if absent.
func (r *Registry) UpdateModels(id string, models []core.Model) {
	b, ok := r.Get(id)
	if !ok {
		return
	}
	b.ReplaceModels(models)
}

// UpdateLatency folds sampleMs into id's latency EMA. No-op if absent.
func (r *Registry) UpdateLatency(id string, sampleMs float64) {
	b, ok := r.Get(id)
	if !ok {
		return
	}
	b.UpdateLatency(sampleMs)
}

// IncPending increments id's pending-request counter. No-op if absent.
func (r *Registry) IncPending(id string) {
	if b, ok := r.Get(id); ok {
		b.IncPending()
	}
}

// DecPending decrements id's pending-request counter (saturating). No-op
// if absent.
func (r *Registry) DecPending(id string) {
	if b, ok := r.Get(id); ok {
		b.DecPending()
	}
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registered)
}
