package plugin

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/trail"
)

// Factory builds a plugin instance bound to one solver's clause
// database, trail, and request sink (spec §6 "create(id,
// ClauseDatabase, Trail, Request) -> Plugin").
type Factory func(db *clause.DB, tr *trail.Trail, req Request) (Plugin, error)

// Registry is the process-wide table of plugin factories, keyed by
// string id (spec §6 "Plugins register by string id at program
// start"). Registration is deterministic and order-independent: two
// registries built from the same Register calls in any order produce
// the same Create behavior.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds (or replaces) the factory for id.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Create instantiates the plugin registered under id, or returns a
// factory-failure error for an unknown id (spec §7 "Factory failure").
func (r *Registry) Create(id string, db *clause.DB, tr *trail.Trail, req Request) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("plugin: unknown plugin id %q", id)
	}
	p, err := f(db, tr, req)
	if err != nil {
		return nil, errors.Wrapf(err, "plugin: factory for %q failed", id)
	}
	return p, nil
}

// IDs returns every registered id in sorted order, for deterministic
// iteration/debug output.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
