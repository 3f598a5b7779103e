package effects

import (
	"math"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// NewEffect creates an inert effect for the owner. It does nothing until it
// is applied through the owner's Manager.
func NewEffect(id, ownerID, name string, duration float64) *Effect {
	return &Effect{
		ID:       id,
		OwnerID:  ownerID,
		Name:     name,
		Duration: duration,
		bonuses:  make(map[BonusKind]float64),
		tags:     make(map[string]struct{}),
		state:    StatePending,
	}
}

// AddNumBonus adds a signed magnitude to a bonus kind. Adding the same kind
// twice accumulates.
func (e *Effect) AddNumBonus(kind BonusKind, magnitude float64) error {
	if err := e.checkPending("add bonus to"); err != nil {
		return err
	}
	if kind == "" {
		return engerr.InvalidArgumentf("effect %s: bonus kind is required", e.ID)
	}
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return engerr.InvalidArgumentf("effect %s: bonus %s magnitude %v is not finite", e.ID, kind, magnitude)
	}

	if _, seen := e.bonuses[kind]; !seen {
		e.kinds = append(e.kinds, kind)
	}
	e.bonuses[kind] += magnitude
	return nil
}

// SetTag labels the effect
func (e *Effect) SetTag(tag string) error {
	if err := e.checkPending("tag"); err != nil {
		return err
	}
	if tag == "" {
		return engerr.InvalidArgumentf("effect %s: tag is required", e.ID)
	}

	e.tags[tag] = struct{}{}
	return nil
}

// SetAnimation attaches a visual handle that lives as long as the effect
func (e *Effect) SetAnimation(animationID string) error {
	if err := e.checkPending("attach animation to"); err != nil {
		return err
	}

	e.AnimationID = animationID
	return nil
}

func (e *Effect) checkPending(op string) error {
	if e.state != StatePending {
		return engerr.FailedPreconditionf("cannot %s effect %s in state %s", op, e.ID, e.state).
			WithMeta("effect_id", e.ID)
	}
	return nil
}

// validate checks everything Apply needs before any state changes
func (e *Effect) validate(ownerID string) error {
	if e.ID == "" {
		return engerr.InvalidArgumentf("effect must have an ID")
	}
	if e.state != StatePending {
		return engerr.FailedPreconditionf("effect %s already %s", e.ID, e.state).
			WithMeta("effect_id", e.ID)
	}
	if e.OwnerID != ownerID {
		return engerr.InvalidArgumentf("effect %s was created for %s, not %s", e.ID, e.OwnerID, ownerID)
	}
	if e.Duration <= 0 || math.IsNaN(e.Duration) || math.IsInf(e.Duration, 0) {
		return engerr.InvalidArgumentf("effect %s duration must be positive and finite, got %v", e.ID, e.Duration)
	}
	for kind, magnitude := range e.bonuses {
		if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
			return engerr.InvalidArgumentf("effect %s bonus %s is not finite", e.ID, kind)
		}
	}
	return nil
}
