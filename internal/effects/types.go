package effects

import (
	"sort"
)

// BonusKind is a named numeric stat channel that effects modify additively
type BonusKind string

const (
	BonusAP           BonusKind = "ap"
	BonusMoveAnimRate BonusKind = "move_anim_rate"
	BonusArmor        BonusKind = "armor"
	BonusDefense      BonusKind = "defense"
	BonusWill         BonusKind = "will"
	BonusReflex       BonusKind = "reflex"
	BonusFortitude    BonusKind = "fortitude"

	BonusIntellect      BonusKind = "intellect_bonus"
	BonusSpellAccuracy  BonusKind = "spell_accuracy"
	BonusRangedAccuracy BonusKind = "ranged_accuracy"
	BonusMeleeAccuracy  BonusKind = "melee_accuracy"
)

// State is where an effect is in its lifecycle
type State string

const (
	StatePending State = "pending" // created, still mutable, not on any entity
	StateApplied State = "applied" // owned by the target, counting down
	StateRemoved State = "removed" // expired or cleansed
)

// RemovalReason says why an applied effect left its owner
type RemovalReason string

const (
	ReasonExpired RemovalReason = "expired"
	ReasonRemoved RemovalReason = "removed"
)

// Effect is a timed bundle of stat bonuses and tags attached to one entity
type Effect struct {
	ID          string
	OwnerID     string // entity the effect is created for
	Name        string // source ability name
	Duration    float64
	Elapsed     float64
	AnimationID string

	bonuses map[BonusKind]float64
	kinds   []BonusKind // insertion order of bonuses
	tags    map[string]struct{}
	state   State
}

// State returns the lifecycle state
func (e *Effect) State() State { return e.state }

// expiryEpsilon absorbs float drift from many small clock advances
const expiryEpsilon = 1e-9

// IsExpired reports whether the effect has run its full duration
func (e *Effect) IsExpired() bool {
	return e.Elapsed >= e.Duration-expiryEpsilon
}

// Remaining returns the time left before expiry
func (e *Effect) Remaining() float64 {
	if e.IsExpired() {
		return 0
	}
	return e.Duration - e.Elapsed
}

// Bonus returns this effect's contribution to a bonus kind
func (e *Effect) Bonus(kind BonusKind) float64 {
	return e.bonuses[kind]
}

// Kinds returns the bonus kinds in the order they were added
func (e *Effect) Kinds() []BonusKind {
	out := make([]BonusKind, len(e.kinds))
	copy(out, e.kinds)
	return out
}

// HasTag reports whether the effect carries a tag
func (e *Effect) HasTag(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// Tags returns the effect's tags sorted alphabetically
func (e *Effect) Tags() []string {
	out := make([]string, 0, len(e.tags))
	for tag := range e.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
