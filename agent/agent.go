package agent

import (
	"sort"
	"sync"

	"github.com/arthvani/arthvani/core"
)

// BaseAgent provides the name/description identity shared by all agents.
type BaseAgent struct {
	name        string
	description string
}

// Name returns the agent's canonical registry name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a short statement of the agent's capability.
func (b *BaseAgent) Description() string { return b.description }

// Registry resolves agents by their canonical names. Registration happens at
// assembly time; lookups are concurrency-safe.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register adds an agent under its own name, replacing any previous entry.
func (r *Registry) Register(a core.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
}

// Resolve returns the agent registered under name.
func (r *Registry) Resolve(name string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Names returns the sorted names of all registered agents.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
