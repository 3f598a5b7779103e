package effects

import (
	"sync"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// Observer is told about effects entering and leaving a manager. It is
// called after the manager's lock is released.
type Observer interface {
	EffectApplied(effect *Effect)
	EffectRemoved(effect *Effect, reason RemovalReason)
}

// Manager is the active-effect collection of a single entity. Bonuses are
// never baked into base stats; Bonus sums them at query time.
type Manager struct {
	mu       sync.RWMutex
	ownerID  string
	effects  []*Effect
	observer Observer
}

// NewManager creates a new effect manager for an entity
func NewManager(ownerID string) *Manager {
	return &Manager{
		ownerID: ownerID,
	}
}

// SetObserver installs the lifecycle observer
func (m *Manager) SetObserver(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

// Apply commits a pending effect onto the owner and starts its countdown.
// Either the whole effect is committed or nothing is.
func (m *Manager) Apply(effect *Effect) error {
	if effect == nil {
		return engerr.InvalidArgumentf("effect cannot be nil")
	}

	m.mu.Lock()
	if err := effect.validate(m.ownerID); err != nil {
		m.mu.Unlock()
		return err
	}
	for _, existing := range m.effects {
		if existing.ID == effect.ID {
			m.mu.Unlock()
			return engerr.AlreadyExistsf("effect %s already applied to %s", effect.ID, m.ownerID)
		}
	}

	effect.Elapsed = 0
	effect.state = StateApplied
	m.effects = append(m.effects, effect)
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer.EffectApplied(effect)
	}
	return nil
}

// Remove cleanses an effect by ID. It reports whether anything was removed.
func (m *Manager) Remove(id string) bool {
	removed := m.removeWhere(func(e *Effect) bool { return e.ID == id }, ReasonRemoved)
	return len(removed) > 0
}

// RemoveByTag cleanses every effect carrying the tag
func (m *Manager) RemoveByTag(tag string) []*Effect {
	return m.removeWhere(func(e *Effect) bool { return e.HasTag(tag) }, ReasonRemoved)
}

// Clear removes every effect, e.g. when the owner leaves the area
func (m *Manager) Clear() []*Effect {
	return m.removeWhere(func(*Effect) bool { return true }, ReasonRemoved)
}

// Advance moves every effect's clock forward and sweeps those that expired
func (m *Manager) Advance(dt float64) []*Effect {
	if dt > 0 {
		m.mu.Lock()
		for _, effect := range m.effects {
			effect.Elapsed += dt
		}
		m.mu.Unlock()
	}
	return m.Sweep()
}

// Sweep removes every effect whose elapsed time has reached its duration
func (m *Manager) Sweep() []*Effect {
	return m.removeWhere(func(e *Effect) bool { return e.IsExpired() }, ReasonExpired)
}

// Bonus sums the matching bonus of every active, unexpired effect
func (m *Manager) Bonus(kind BonusKind) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0.0
	for _, effect := range m.effects {
		if effect.IsExpired() {
			continue
		}
		total += effect.Bonus(kind)
	}
	return total
}

// Active returns the active, unexpired effects in application order
func (m *Manager) Active() []*Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]*Effect, 0, len(m.effects))
	for _, effect := range m.effects {
		if !effect.IsExpired() {
			active = append(active, effect)
		}
	}
	return active
}

// Get finds an active effect by ID
func (m *Manager) Get(id string) (*Effect, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, effect := range m.effects {
		if effect.ID == id && !effect.IsExpired() {
			return effect, true
		}
	}
	return nil, false
}

// HasTag reports whether any active effect carries the tag
func (m *Manager) HasTag(tag string) bool {
	return len(m.WithTag(tag)) > 0
}

// WithTag returns the active effects carrying the tag
func (m *Manager) WithTag(tag string) []*Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tagged []*Effect
	for _, effect := range m.effects {
		if !effect.IsExpired() && effect.HasTag(tag) {
			tagged = append(tagged, effect)
		}
	}
	return tagged
}

func (m *Manager) removeWhere(match func(*Effect) bool, reason RemovalReason) []*Effect {
	m.mu.Lock()
	var removed []*Effect
	kept := m.effects[:0]
	for _, effect := range m.effects {
		if match(effect) {
			effect.state = StateRemoved
			removed = append(removed, effect)
			continue
		}
		kept = append(kept, effect)
	}
	// clear the tail so removed effects are not retained by the backing array
	for i := len(kept); i < len(m.effects); i++ {
		m.effects[i] = nil
	}
	m.effects = kept
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		for _, effect := range removed {
			observer.EffectRemoved(effect, reason)
		}
	}
	return removed
}
