package ability

import (
	"sort"
	"sync"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// ScriptRegistry maps ability IDs to their scripts
type ScriptRegistry struct {
	mu      sync.RWMutex
	scripts map[string]*Script
}

// NewScriptRegistry creates a new script registry
func NewScriptRegistry() *ScriptRegistry {
	return &ScriptRegistry{
		scripts: make(map[string]*Script),
	}
}

// Register adds a script to the registry
func (r *ScriptRegistry) Register(script *Script) error {
	if script == nil || script.ID == "" {
		return engerr.InvalidArgumentf("script needs an ability ID")
	}
	if script.OnActivate == nil {
		return engerr.InvalidArgumentf("script %s has no %s entry point", script.ID, EntryOnActivate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scripts[script.ID]; exists {
		return engerr.AlreadyExistsf("script already registered for ability %s", script.ID)
	}
	r.scripts[script.ID] = script
	return nil
}

// MustRegister registers scripts and panics on an authoring error
func (r *ScriptRegistry) MustRegister(scripts ...*Script) {
	for _, script := range scripts {
		if err := r.Register(script); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a script by ability ID
func (r *ScriptRegistry) Get(id string) (*Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	script, exists := r.scripts[id]
	return script, exists
}

// List returns all registered ability IDs in order
func (r *ScriptRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.scripts))
	for key := range r.scripts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
