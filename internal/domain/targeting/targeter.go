package targeting

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

// Shape is how a selection turns into affected entities
type Shape string

const (
	ShapeSingle     Shape = "single"      // pick one entity
	ShapeCircle     Shape = "circle"      // pick an entity, affect a circle around it
	ShapeFreeSelect Shape = "free_select" // pick any point in range, affect a circle around it
)

// Targeter lifecycle states
const (
	StateCreated   = "created"
	StateActive    = "active"
	StateCommitted = "committed"
	StateCancelled = "cancelled"
)

const (
	eventActivate = "activate"
	eventCommit   = "commit"
	eventCancel   = "cancel"
)

// Selection is what the player or AI picked while the targeter was active
type Selection struct {
	Target *combatant.Entity
	Point  *combatant.Position
}

// SelectEntity selects an entity
func SelectEntity(e *combatant.Entity) Selection {
	return Selection{Target: e}
}

// SelectPoint selects a map point
func SelectPoint(x, y float64) Selection {
	return Selection{Point: &combatant.Position{X: x, Y: y}}
}

// Targeter is a transient selection session for one ability activation. The
// selectable set is what the UI offers; the effectable set is what can
// actually receive mechanics. It never applies anything itself.
type Targeter struct {
	ID      string
	Origin  *combatant.Entity
	Ability *combatant.Ability

	Shape           Shape
	Radius          float64
	FreeSelectRange float64
	RequireVisible  bool
	ShowUI          bool

	selectable Targets
	effectable Targets
	state      *fsm.FSM
}

// Option configures a targeter
type Option func(*Targeter)

// WithShape sets the selection shape
func WithShape(shape Shape) Option {
	return func(t *Targeter) { t.Shape = shape }
}

// WithRadius sets the selection radius
func WithRadius(radius float64) Option {
	return func(t *Targeter) { t.Radius = radius }
}

// WithFreeSelect lets the origin pick any point within rangeLimit; entities
// within radius of that point are affected
func WithFreeSelect(rangeLimit, radius float64) Option {
	return func(t *Targeter) {
		t.Shape = ShapeFreeSelect
		t.FreeSelectRange = rangeLimit
		t.Radius = radius
	}
}

// WithVisibilityRequired limits candidates to entities the origin can see
func WithVisibilityRequired() Option {
	return func(t *Targeter) { t.RequireVisible = true }
}

// WithShowUI controls whether the selection is drawn for the player
func WithShowUI(show bool) Option {
	return func(t *Targeter) { t.ShowUI = show }
}

// WithRadiusScale multiplies the radius, e.g. for caster-level scaling.
// Apply it after any option that sets the radius.
func WithRadiusScale(scale float64) Option {
	return func(t *Targeter) { t.Radius *= scale }
}

// NewTargeter builds a selection session for an origin and ability. The
// ability's declared radius picks circle or single-target by default.
func NewTargeter(id string, origin *combatant.Entity, ability *combatant.Ability, opts ...Option) *Targeter {
	t := &Targeter{
		ID:              id,
		Origin:          origin,
		Ability:         ability,
		Shape:           ShapeSingle,
		FreeSelectRange: ability.Range,
		ShowUI:          true,
	}
	if ability.Radius > 0 {
		t.Shape = ShapeCircle
		t.Radius = ability.Radius
	}

	for _, opt := range opts {
		opt(t)
	}

	t.state = fsm.NewFSM(
		StateCreated,
		fsm.Events{
			{Name: eventActivate, Src: []string{StateCreated}, Dst: StateActive},
			{Name: eventCommit, Src: []string{StateActive}, Dst: StateCommitted},
			{Name: eventCancel, Src: []string{StateCreated, StateActive}, Dst: StateCancelled},
		},
		fsm.Callbacks{},
	)

	return t
}

// State returns the lifecycle state
func (t *Targeter) State() string {
	return t.state.Current()
}

// IsDone reports whether the session has been committed or cancelled
func (t *Targeter) IsDone() bool {
	return t.state.Is(StateCommitted) || t.state.Is(StateCancelled)
}

// SetSelectable sets the entities the UI offers for selection
func (t *Targeter) SetSelectable(targets Targets) error {
	if t.IsDone() {
		return engerr.FailedPreconditionf("targeter %s is %s", t.ID, t.State())
	}
	t.selectable = targets
	return nil
}

// SetEffectable sets the entities that can receive the ability's mechanics
func (t *Targeter) SetEffectable(targets Targets) error {
	if t.IsDone() {
		return engerr.FailedPreconditionf("targeter %s is %s", t.ID, t.State())
	}
	t.effectable = targets
	return nil
}

// Selectable returns the selectable set
func (t *Targeter) Selectable() Targets { return t.selectable }

// Effectable returns the effectable set
func (t *Targeter) Effectable() Targets { return t.effectable }

// Activate opens the session for selection
func (t *Targeter) Activate(ctx context.Context) error {
	return t.transition(ctx, eventActivate)
}

// Cancel ends the session without a selection
func (t *Targeter) Cancel(ctx context.Context) error {
	return t.transition(ctx, eventCancel)
}

// Commit resolves a selection into the effectable entities it touches and
// ends the session. An invalid selection leaves the session active.
func (t *Targeter) Commit(ctx context.Context, sel Selection) (Targets, error) {
	if !t.state.Is(StateActive) {
		return Targets{}, engerr.FailedPreconditionf("targeter %s is %s, not active", t.ID, t.State())
	}

	affected, err := t.resolve(sel)
	if err != nil {
		return Targets{}, err
	}

	if err := t.transition(ctx, eventCommit); err != nil {
		return Targets{}, err
	}
	return affected, nil
}

func (t *Targeter) resolve(sel Selection) (Targets, error) {
	shape := t.Shape
	if shape == ShapeCircle && t.Radius <= 0 {
		shape = ShapeSingle
	}

	switch shape {
	case ShapeSingle, ShapeCircle:
		if sel.Target == nil {
			return Targets{}, engerr.InvalidArgumentf("targeter %s: %s selection needs a target", t.ID, shape)
		}
		if !t.selectable.Contains(sel.Target.ID) {
			return Targets{}, engerr.InvalidArgumentf("targeter %s: %s is not selectable", t.ID, sel.Target.ID).
				WithMeta("target_id", sel.Target.ID)
		}
		if shape == ShapeSingle {
			if !t.effectable.Contains(sel.Target.ID) {
				return NewTargets(), nil
			}
			return NewTargets(sel.Target), nil
		}
		return t.effectable.Within(sel.Target.Position, t.Radius), nil

	case ShapeFreeSelect:
		point := sel.Point
		if point == nil && sel.Target != nil {
			point = &sel.Target.Position
		}
		if point == nil {
			return Targets{}, engerr.InvalidArgumentf("targeter %s: free select needs a point", t.ID)
		}
		if t.FreeSelectRange > 0 && t.Origin.Position.Dist(*point) > t.FreeSelectRange {
			return Targets{}, engerr.InvalidArgumentf("targeter %s: point (%.1f, %.1f) is out of range %.1f",
				t.ID, point.X, point.Y, t.FreeSelectRange)
		}
		return t.effectable.Within(*point, t.Radius), nil
	}

	return Targets{}, engerr.InvalidArgumentf("targeter %s: unknown shape %q", t.ID, t.Shape)
}

func (t *Targeter) transition(ctx context.Context, event string) error {
	if err := t.state.Event(ctx, event); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeFailedPrecondition, "targeter "+t.ID+" cannot "+event)
	}
	return nil
}

// ComputeCandidates returns every living entity in the area matching the
// faction filter, within the ability's reach and, when the targeter requires
// it, visible to the origin
func ComputeCandidates(area Area, t *Targeter, filter Filter) Targets {
	all := NewTargets(area.Entities()...).Alive().Matching(filter, t.Origin)
	if t.RequireVisible {
		all = all.Visible(area, t.Origin)
	}

	reach := t.Ability.Range
	if t.Shape == ShapeFreeSelect && t.FreeSelectRange > 0 {
		reach = t.FreeSelectRange + t.Radius
	}
	if reach > 0 {
		all = all.Within(t.Origin.Position, reach)
	}
	return all
}
