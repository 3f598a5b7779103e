package callbacks

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
)

// Callback lifecycle states. Fired and dropped are terminal.
const (
	StateRegistered = "registered"
	StateBound      = "bound"
	StateFired      = "fired"
	StateDropped    = "dropped"
)

const (
	eventBind = "bind"
	eventFire = "fire"
	eventDrop = "drop"
)

// Trigger is anything a callback can wait on: an animation or a timed event.
// Its owner is the entity whose removal cancels it.
type Trigger interface {
	ID() string
	OwnerID() string

	// IsPending is false once the trigger has completed or been cancelled
	IsPending() bool
}

// Invoker runs a fired callback's entry point
type Invoker interface {
	InvokeCallback(ctx context.Context, cb *Callback) error
}

// Callback is deferred ability work: a named entry point to run on the
// actor's ability with the targets frozen at registration time
type Callback struct {
	ID         string
	Actor      *combatant.Entity
	Ability    *combatant.Ability
	Targets    targeting.Targets
	EntryPoint string
	TriggerID  string

	state *fsm.FSM
}

func newCallback(id string, actor *combatant.Entity, ability *combatant.Ability, targets targeting.Targets, entry string) *Callback {
	return &Callback{
		ID:         id,
		Actor:      actor,
		Ability:    ability,
		Targets:    targeting.NewTargets(targets.Slice()...),
		EntryPoint: entry,
		state: fsm.NewFSM(
			StateRegistered,
			fsm.Events{
				{Name: eventBind, Src: []string{StateRegistered}, Dst: StateBound},
				{Name: eventFire, Src: []string{StateBound}, Dst: StateFired},
				{Name: eventDrop, Src: []string{StateRegistered, StateBound}, Dst: StateDropped},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the lifecycle state
func (c *Callback) State() string {
	return c.state.Current()
}

// IsTerminal reports whether the callback has fired or been dropped
func (c *Callback) IsTerminal() bool {
	return c.state.Is(StateFired) || c.state.Is(StateDropped)
}
