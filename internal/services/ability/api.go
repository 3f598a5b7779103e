package ability

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/rpg-ability-engine/internal/callbacks"
	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/attack"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
)

// API is the capability surface handed to a script for one entry-point
// invocation. It enforces no rules; scripts decide what an outcome means.
type API struct {
	svc      *service
	actor    *combatant.Entity
	ability  *combatant.Ability
	entry    string
	targeter *targeting.Targeter
	log      *logrus.Entry

	// generators created by this invocation
	generators []*render.ParticleGenerator
}

func (s *service) newAPI(actor *combatant.Entity, ability *combatant.Ability, entry string) *API {
	return &API{
		svc:     s,
		actor:   actor,
		ability: ability,
		entry:   entry,
		log: s.log.WithFields(logrus.Fields{
			"actor_id":    actor.ID,
			"ability_id":  ability.ID,
			"entry_point": entry,
		}),
	}
}

// Actor returns the entity using the ability
func (a *API) Actor() *combatant.Entity { return a.actor }

// Ability returns the ability being used
func (a *API) Ability() *combatant.Ability { return a.ability }

// Rules returns the engine combat rules
func (a *API) Rules() *config.Rules { return a.svc.rules }

// Logger returns a logger tagged with the invocation
func (a *API) Logger() *logrus.Entry { return a.log }

// Targets returns every living entity in the area
func (a *API) Targets() targeting.Targets {
	return targeting.NewTargets(a.svc.world.Entities()...).Alive()
}

// Query returns living entities matching a faction filter relative to the actor
func (a *API) Query(filter targeting.Filter) targeting.Targets {
	return a.Targets().Matching(filter, a.actor)
}

// Entity looks up an entity by ID
func (a *API) Entity(id string) (*combatant.Entity, error) {
	e, ok := a.svc.world.Entity(id)
	if !ok {
		return nil, engerr.NotFoundf("entity not found: %s", id)
	}
	return e, nil
}

// NewTargeter creates the selection session for this activation. Only
// on_activate may open one, and only once.
func (a *API) NewTargeter(opts ...targeting.Option) (*targeting.Targeter, error) {
	if a.entry != EntryOnActivate {
		return nil, engerr.FailedPreconditionf("targeters can only be created from %s", EntryOnActivate)
	}
	if a.targeter != nil {
		return nil, engerr.AlreadyExistsf("activation of %s already created targeter %s", a.ability.ID, a.targeter.ID)
	}

	a.targeter = targeting.NewTargeter(a.svc.ids.New(), a.actor, a.ability, opts...)
	return a.targeter, nil
}

// Candidates computes the targeter's candidate set in the current area
func (a *API) Candidates(t *targeting.Targeter, filter targeting.Filter) targeting.Targets {
	return targeting.ComputeCandidates(a.svc.world, t, filter)
}

// ActivateTargeter opens the targeter for the player's or AI's selection
func (a *API) ActivateTargeter(ctx context.Context, t *targeting.Targeter) error {
	if t == nil || t != a.targeter {
		return engerr.InvalidArgumentf("targeter was not created by this activation")
	}
	return t.Activate(ctx)
}

// Attack resolves an attack. Physical damage is applied to the defender and
// a defender reduced to zero hit points leaves the area.
func (a *API) Attack(ctx context.Context, req *attack.Request) (*attack.Result, error) {
	result, err := a.svc.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	a.svc.emit(events.NewEvent(events.EventTypeAttackResolved).
		WithActor(req.Attacker.ID).
		WithTarget(req.Defender.ID).
		WithAbility(a.ability.ID).
		With("outcome", result.Outcome.String()).
		With("roll", result.Roll).
		With("damage", result.Damage))

	if req.Mode == attack.ModePhysical && result.Damage > 0 {
		_, died := req.Defender.TakeDamage(result.Damage)
		if died {
			a.log.WithField("target_id", req.Defender.ID).Info("Target killed")
			if err := a.svc.world.RemoveEntity(ctx, req.Defender.ID); err != nil {
				a.log.WithError(err).Warn("Failed to remove dead entity")
			}
		}
	}

	return result, nil
}

// CreateEffect builds a pending effect for a target. A non-positive duration
// uses the ability's duration.
func (a *API) CreateEffect(target *combatant.Entity, duration float64) (*effects.Effect, error) {
	if target == nil {
		return nil, engerr.InvalidArgumentf("effect target cannot be nil")
	}
	if duration <= 0 {
		duration = a.ability.Duration
	}
	return effects.NewEffect(a.svc.ids.New(), target.ID, a.ability.Name, duration), nil
}

// ApplyEffect commits a pending effect onto its target
func (a *API) ApplyEffect(effect *effects.Effect) error {
	if effect == nil {
		return engerr.InvalidArgumentf("effect cannot be nil")
	}
	target, err := a.Entity(effect.OwnerID)
	if err != nil {
		return err
	}
	if !target.IsAlive() {
		return engerr.FailedPreconditionf("cannot apply %s to %s, target is gone", effect.Name, target.ID)
	}
	return target.Effects().Apply(effect)
}

// RemoveEffect cleanses one effect from a target
func (a *API) RemoveEffect(target *combatant.Entity, effectID string) bool {
	return target.Effects().Remove(effectID)
}

// RemoveEffectsByTag cleanses tagged effects from a target
func (a *API) RemoveEffectsByTag(target *combatant.Entity, tag string) []*effects.Effect {
	return target.Effects().RemoveByTag(tag)
}

// NewParticleGenerator creates an inactive animation owned by an entity
func (a *API) NewParticleGenerator(owner *combatant.Entity, duration float64) (*render.ParticleGenerator, error) {
	if owner == nil {
		return nil, engerr.InvalidArgumentf("generator owner cannot be nil")
	}
	gen, err := a.svc.tracker.NewGenerator(owner.ID, duration)
	if err != nil {
		return nil, err
	}
	a.generators = append(a.generators, gen)
	return gen, nil
}

// ActivateGenerator starts an animation
func (a *API) ActivateGenerator(gen *render.ParticleGenerator) error {
	return a.svc.tracker.Activate(gen)
}

// discardUnstarted cancels generators this invocation created but never
// activated, dropping any callback bound to them
func (a *API) discardUnstarted() int {
	discarded := 0
	for _, gen := range a.generators {
		if gen.IsActive() || !gen.IsPending() {
			continue
		}
		a.svc.tracker.Cancel(gen.ID())
		a.log.WithField("generator_id", gen.ID()).Debug("Discarding animation that was never activated")
		discarded++
	}
	return discarded
}

// RegisterCallback registers a named entry point of this ability's script to
// run later against a frozen copy of targets
func (a *API) RegisterCallback(targets targeting.Targets, entryPoint string) (*callbacks.Callback, error) {
	script, ok := a.svc.scripts.Get(a.ability.ID)
	if !ok {
		return nil, engerr.NotFoundf("no script for ability %s", a.ability.ID)
	}
	if _, ok := script.Entry(entryPoint); !ok {
		return nil, engerr.InvalidArgumentf("script %s has no entry point %q", a.ability.ID, entryPoint)
	}
	return a.svc.scheduler.Register(a.actor, a.ability, targets, entryPoint)
}

// BindCallback attaches a callback to an animation or other trigger
func (a *API) BindCallback(ctx context.Context, cb *callbacks.Callback, trigger callbacks.Trigger) error {
	return a.svc.scheduler.Bind(ctx, cb, trigger)
}

// PlaySound plays a sound effect. Audio failures never stop an ability.
func (a *API) PlaySound(id string) {
	if a.svc.sounds == nil || id == "" {
		return
	}
	if err := a.svc.sounds.Play(id); err != nil {
		a.log.WithError(engerr.WrapWithCode(err, engerr.CodeUnavailable, "sound failed")).
			WithField("sound", id).Warn("Failed to play sound")
	}
}

// ForEachTarget runs fn for each target still alive. Gone targets are
// skipped and a failing target does not stop its siblings. It returns the
// number of targets processed without error.
func (a *API) ForEachTarget(targets targeting.Targets, fn func(target *combatant.Entity) error) int {
	processed := 0
	for _, target := range targets.Slice() {
		if !target.IsAlive() {
			a.log.WithField("target_id", target.ID).Debug("Skipping target that is no longer in play")
			continue
		}
		if err := fn(target); err != nil {
			a.log.WithError(err).WithField("target_id", target.ID).Warn("Ability failed on target")
			continue
		}
		processed++
	}
	return processed
}
