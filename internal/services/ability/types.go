package ability

import (
	"context"

	"github.com/KirkDiggler/rpg-ability-engine/internal/callbacks"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
)

// Entry point names
const (
	EntryOnActivate     = "on_activate"
	EntryOnTargetSelect = "on_target_select"
)

// Service runs ability scripts for the host
type Service interface {
	// Activate runs the ability's on_activate entry point for an actor
	Activate(ctx context.Context, actorID, abilityID string) (*ActivateResult, error)

	// SelectTargets commits the actor's pending targeter and runs on_target_select
	SelectTargets(ctx context.Context, actorID string, sel targeting.Selection) (*SelectResult, error)

	// CancelTargeting abandons the actor's pending targeter
	CancelTargeting(ctx context.Context, actorID string) error

	// PendingTargeter returns the targeter waiting for the actor's selection
	PendingTargeter(actorID string) (*targeting.Targeter, bool)

	// InvokeCallback runs a fired callback's entry point
	InvokeCallback(ctx context.Context, cb *callbacks.Callback) error

	// Abilities resolves ability IDs, skipping unknown ones
	Abilities(ctx context.Context, ids []string) ([]*combatant.Ability, error)
}

// World is the host's view of the combat area
type World interface {
	targeting.Area

	// Entity looks up an entity in the area
	Entity(id string) (*combatant.Entity, bool)

	// RemoveEntity takes an entity out of the area
	RemoveEntity(ctx context.Context, id string) error
}

// ActivateResult describes what an activation did
type ActivateResult struct {
	AbilityID string
	ActorID   string

	// Targeter is set when the ability is waiting for a selection
	Targeter *targeting.Targeter

	// APSpent is zero while a targeter is pending
	APSpent int
}

// SelectResult describes a committed selection
type SelectResult struct {
	AbilityID string
	Targets   targeting.Targets
	APSpent   int
}
