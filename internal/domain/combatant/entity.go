package combatant

import (
	"math"

	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// Faction decides hostility between entities
type Faction string

const (
	FactionPlayer  Faction = "player"
	FactionHostile Faction = "hostile"
	FactionNeutral Faction = "neutral"
)

// Position is a point on the combat map
type Position struct {
	X float64
	Y float64
}

// Dist returns the straight-line distance between two points
func (p Position) Dist(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Entity is a combat participant. It owns its active effects; every stat
// read goes through Stat so bonuses are summed at query time.
type Entity struct {
	ID       string
	Name     string
	Position Position
	Faction  Faction
	Hidden   bool

	MaxHP     int
	HP        int
	CurrentAP int

	base    map[effects.BonusKind]float64
	effects *effects.Manager
	removed bool
}

// New creates an entity with the given base stats at full health
func New(id, name string, faction Faction, maxHP int, stats map[effects.BonusKind]float64) *Entity {
	base := make(map[effects.BonusKind]float64, len(stats))
	for kind, value := range stats {
		base[kind] = value
	}

	return &Entity{
		ID:      id,
		Name:    name,
		Faction: faction,
		MaxHP:   maxHP,
		HP:      maxHP,
		base:    base,
		effects: effects.NewManager(id),
	}
}

// Effects returns the entity's active-effect collection
func (e *Entity) Effects() *effects.Manager {
	return e.effects
}

// BaseStat returns the stat without any effect bonuses
func (e *Entity) BaseStat(kind effects.BonusKind) float64 {
	return e.base[kind]
}

// SetBaseStat overwrites a base stat
func (e *Entity) SetBaseStat(kind effects.BonusKind, value float64) {
	e.base[kind] = value
}

// Stat returns the effective stat: base plus every active effect's bonus
func (e *Entity) Stat(kind effects.BonusKind) float64 {
	return e.base[kind] + e.effects.Bonus(kind)
}

// IsAlive reports whether the entity can still act and be targeted
func (e *Entity) IsAlive() bool {
	return !e.removed && e.HP > 0
}

// IsRemoved reports whether the entity has left the area
func (e *Entity) IsRemoved() bool {
	return e.removed
}

// MarkRemoved flags the entity as gone from the area
func (e *Entity) MarkRemoved() {
	e.removed = true
}

// IsHostileTo reports whether two entities are enemies. Neutral entities are
// hostile to no one.
func (e *Entity) IsHostileTo(other *Entity) bool {
	if other == nil || e.Faction == FactionNeutral || other.Faction == FactionNeutral {
		return false
	}
	return e.Faction != other.Faction
}

// IsFriendlyTo reports whether two entities share a faction
func (e *Entity) IsFriendlyTo(other *Entity) bool {
	if other == nil {
		return false
	}
	return e.Faction == other.Faction
}

// DistanceTo returns the distance between the two entities
func (e *Entity) DistanceTo(other *Entity) float64 {
	return e.Position.Dist(other.Position)
}

// TakeDamage lowers hit points and reports the amount taken and whether the
// entity died
func (e *Entity) TakeDamage(amount int) (taken int, died bool) {
	if amount <= 0 || !e.IsAlive() {
		return 0, false
	}

	taken = amount
	if taken > e.HP {
		taken = e.HP
	}
	e.HP -= taken
	return taken, e.HP == 0
}

// RefillAP resets the AP pool from the effective "ap" stat at turn start
func (e *Entity) RefillAP() int {
	ap := int(math.Round(e.Stat(effects.BonusAP)))
	if ap < 0 {
		ap = 0
	}
	e.CurrentAP = ap
	return ap
}

// HasAP reports whether the pool can pay a cost
func (e *Entity) HasAP(cost int) bool {
	return cost <= e.CurrentAP
}

// SpendAP consumes AP from the pool
func (e *Entity) SpendAP(cost int) error {
	if cost < 0 {
		return engerr.InvalidArgumentf("ap cost cannot be negative: %d", cost)
	}
	if !e.HasAP(cost) {
		return engerr.FailedPreconditionf("%s has %d AP, needs %d", e.Name, e.CurrentAP, cost).
			WithMeta("entity_id", e.ID)
	}
	e.CurrentAP -= cost
	return nil
}
