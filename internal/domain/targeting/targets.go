package targeting

import (
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// Area answers which entities exist and what an observer can see. Line of
// sight is the map collaborator's concern.
type Area interface {
	Entities() []*combatant.Entity
	IsVisible(observer, target *combatant.Entity) bool
}

// Filter selects entities by faction relative to the origin
type Filter int

const (
	FilterAll Filter = iota
	FilterHostile
	FilterFriendly
)

// Targets is an immutable, ordered collection of entities. Filters return new
// collections so they compose: all.Hostile(actor).Visible(area, actor).
type Targets struct {
	list []*combatant.Entity
}

// NewTargets copies the given entities into a collection
func NewTargets(entities ...*combatant.Entity) Targets {
	list := make([]*combatant.Entity, 0, len(entities))
	for _, e := range entities {
		if e != nil {
			list = append(list, e)
		}
	}
	return Targets{list: list}
}

func (t Targets) filter(keep func(*combatant.Entity) bool) Targets {
	out := make([]*combatant.Entity, 0, len(t.list))
	for _, e := range t.list {
		if keep(e) {
			out = append(out, e)
		}
	}
	return Targets{list: out}
}

// Hostile keeps entities hostile to the given entity
func (t Targets) Hostile(to *combatant.Entity) Targets {
	return t.filter(func(e *combatant.Entity) bool { return to.IsHostileTo(e) })
}

// Friendly keeps entities friendly to the given entity, including itself
func (t Targets) Friendly(to *combatant.Entity) Targets {
	return t.filter(func(e *combatant.Entity) bool { return to.IsFriendlyTo(e) })
}

// Visible keeps entities the observer can currently see
func (t Targets) Visible(area Area, observer *combatant.Entity) Targets {
	return t.filter(func(e *combatant.Entity) bool { return e == observer || area.IsVisible(observer, e) })
}

// Alive keeps entities that are still alive and in the area
func (t Targets) Alive() Targets {
	return t.filter(func(e *combatant.Entity) bool { return e.IsAlive() })
}

// Within keeps entities whose position is within radius of a point
func (t Targets) Within(center combatant.Position, radius float64) Targets {
	return t.filter(func(e *combatant.Entity) bool { return e.Position.Dist(center) <= radius })
}

// Matching applies an arbitrary filter
func (t Targets) Matching(filter Filter, to *combatant.Entity) Targets {
	switch filter {
	case FilterHostile:
		return t.Hostile(to)
	case FilterFriendly:
		return t.Friendly(to)
	default:
		return t
	}
}

// Slice returns a copy of the entities
func (t Targets) Slice() []*combatant.Entity {
	out := make([]*combatant.Entity, len(t.list))
	copy(out, t.list)
	return out
}

// Len returns the number of entities
func (t Targets) Len() int { return len(t.list) }

// IsEmpty reports whether the collection has no entities
func (t Targets) IsEmpty() bool { return len(t.list) == 0 }

// First returns the first entity, for single-target abilities. An empty
// collection is an authoring error.
func (t Targets) First() (*combatant.Entity, error) {
	if len(t.list) == 0 {
		return nil, engerr.InvalidArgumentf("target set is empty, one target is required")
	}
	return t.list[0], nil
}

// Contains reports whether an entity with the ID is in the collection
func (t Targets) Contains(id string) bool {
	for _, e := range t.list {
		if e.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the entity IDs in order
func (t Targets) IDs() []string {
	ids := make([]string, len(t.list))
	for i, e := range t.list {
		ids[i] = e.ID
	}
	return ids
}
