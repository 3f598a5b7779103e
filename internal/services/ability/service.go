package ability

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/rpg-ability-engine/internal/callbacks"
	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/attack"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
	"github.com/KirkDiggler/rpg-ability-engine/internal/repositories/abilities"
	"github.com/KirkDiggler/rpg-ability-engine/internal/telemetry"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

// pendingSelection is an activation waiting on its targeter
type pendingSelection struct {
	targeter *targeting.Targeter
	actor    *combatant.Entity
	ability  *combatant.Ability
	script   *Script
}

type service struct {
	mu        sync.Mutex
	world     World
	abilities abilities.Repository
	scripts   *ScriptRegistry
	resolver  *attack.Resolver
	scheduler *callbacks.Scheduler
	tracker   *render.Tracker
	sounds    render.SoundPlayer
	ids       uuid.Generator
	bus       *events.Bus
	rules     *config.Rules
	log       *logrus.Entry
	tracer    trace.Tracer
	pending   map[string]*pendingSelection
}

// ServiceConfig holds configuration for the ability service
type ServiceConfig struct {
	World     World
	Abilities abilities.Repository
	Scripts   *ScriptRegistry
	Resolver  *attack.Resolver
	Scheduler *callbacks.Scheduler
	Tracker   *render.Tracker
	Sounds    render.SoundPlayer
	IDs       uuid.Generator
	Bus       *events.Bus
	Logger    *logrus.Logger
	Tracer    trace.Tracer
}

// NewService creates the ability service and installs it as the scheduler's
// callback invoker
func NewService(cfg *ServiceConfig) Service {
	if cfg.World == nil {
		panic("world is required")
	}
	if cfg.Abilities == nil {
		panic("ability repository is required")
	}
	if cfg.Scripts == nil {
		panic("script registry is required")
	}
	if cfg.Resolver == nil {
		panic("attack resolver is required")
	}
	if cfg.Scheduler == nil {
		panic("callback scheduler is required")
	}
	if cfg.Tracker == nil {
		panic("animation tracker is required")
	}

	svc := &service{
		world:     cfg.World,
		abilities: cfg.Abilities,
		scripts:   cfg.Scripts,
		resolver:  cfg.Resolver,
		scheduler: cfg.Scheduler,
		tracker:   cfg.Tracker,
		sounds:    cfg.Sounds,
		ids:       cfg.IDs,
		bus:       cfg.Bus,
		rules:     cfg.Resolver.Rules(),
		log:       logger.Component(cfg.Logger, "ability_service"),
		tracer:    cfg.Tracer,
		pending:   make(map[string]*pendingSelection),
	}

	if svc.ids == nil {
		svc.ids = uuid.NewGoogleUUIDGenerator()
	}
	if svc.tracer == nil {
		svc.tracer = telemetry.NoopTracer()
	}

	cfg.Scheduler.SetInvoker(svc)
	return svc
}

// Activate runs on_activate. Abilities that open a targeter pay their AP
// cost when the selection commits; the rest pay once on_activate succeeds.
func (s *service) Activate(ctx context.Context, actorID, abilityID string) (*ActivateResult, error) {
	ctx, span := s.tracer.Start(ctx, "ability.Activate")
	defer span.End()
	span.SetAttributes(attribute.String("ability.id", abilityID), attribute.String("actor.id", actorID))

	actor, err := s.livingActor(actorID)
	if err != nil {
		return nil, err
	}
	if _, waiting := s.PendingTargeter(actorID); waiting {
		return nil, engerr.FailedPreconditionf("%s is already selecting targets", actorID)
	}

	ability, err := s.abilities.Get(ctx, abilityID)
	if err != nil {
		return nil, engerr.Wrapf(err, "failed to get ability %s", abilityID)
	}
	script, ok := s.scripts.Get(abilityID)
	if !ok {
		return nil, engerr.NotFoundf("no script for ability %s", abilityID)
	}
	if !actor.HasAP(ability.APCost) {
		return nil, engerr.FailedPreconditionf("%s has %d AP, %s costs %d", actor.Name, actor.CurrentAP, ability.Name, ability.APCost).
			WithMeta("actor_id", actor.ID).
			WithMeta("ability_id", ability.ID)
	}

	api := s.newAPI(actor, ability, EntryOnActivate)
	err = s.guard(ctx, api, func(ctx context.Context) error {
		return script.OnActivate(ctx, api, actor, ability)
	})
	if err != nil {
		if api.targeter != nil && !api.targeter.IsDone() {
			_ = api.targeter.Cancel(ctx)
		}
		return nil, err
	}

	if api.targeter != nil && api.targeter.State() == targeting.StateCreated {
		// opened but never activated: nothing can select with it
		if err := api.targeter.Cancel(ctx); err != nil {
			return nil, err
		}
		api.log.WithField("targeter_id", api.targeter.ID).Warn("Targeter was created but never activated")
	}

	result := &ActivateResult{AbilityID: ability.ID, ActorID: actor.ID}

	if api.targeter != nil && api.targeter.State() == targeting.StateActive {
		s.mu.Lock()
		s.pending[actor.ID] = &pendingSelection{
			targeter: api.targeter,
			actor:    actor,
			ability:  ability,
			script:   script,
		}
		s.mu.Unlock()
		result.Targeter = api.targeter
	} else {
		if err := actor.SpendAP(ability.APCost); err != nil {
			return nil, err
		}
		result.APSpent = ability.APCost
	}

	s.emit(events.NewEvent(events.EventTypeAbilityActivated).
		WithActor(actor.ID).
		WithAbility(ability.ID).
		With("ap_spent", result.APSpent).
		With("targeting", result.Targeter != nil))

	return result, nil
}

// SelectTargets commits the pending targeter, pays the AP cost and runs
// on_target_select with the affected entities
func (s *service) SelectTargets(ctx context.Context, actorID string, sel targeting.Selection) (*SelectResult, error) {
	ctx, span := s.tracer.Start(ctx, "ability.SelectTargets")
	defer span.End()

	s.mu.Lock()
	p, ok := s.pending[actorID]
	s.mu.Unlock()
	if !ok {
		return nil, engerr.FailedPreconditionf("%s has no pending targeter", actorID)
	}
	span.SetAttributes(attribute.String("ability.id", p.ability.ID))

	if !p.actor.HasAP(p.ability.APCost) {
		return nil, engerr.FailedPreconditionf("%s can no longer pay %d AP for %s", p.actor.Name, p.ability.APCost, p.ability.Name)
	}

	affected, err := p.targeter.Commit(ctx, sel)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.pending, actorID)
	s.mu.Unlock()

	if err := p.actor.SpendAP(p.ability.APCost); err != nil {
		return nil, err
	}

	s.emit(events.NewEvent(events.EventTypeTargetsSelected).
		WithActor(actorID).
		WithAbility(p.ability.ID).
		With("targets", affected.IDs()))

	result := &SelectResult{AbilityID: p.ability.ID, Targets: affected, APSpent: p.ability.APCost}
	if p.script.OnTargetSelect == nil {
		return result, nil
	}

	api := s.newAPI(p.actor, p.ability, EntryOnTargetSelect)
	err = s.guard(ctx, api, func(ctx context.Context) error {
		return p.script.OnTargetSelect(ctx, api, p.actor, p.ability, affected)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// CancelTargeting abandons the pending targeter without paying AP
func (s *service) CancelTargeting(ctx context.Context, actorID string) error {
	s.mu.Lock()
	p, ok := s.pending[actorID]
	delete(s.pending, actorID)
	s.mu.Unlock()

	if !ok {
		return engerr.FailedPreconditionf("%s has no pending targeter", actorID)
	}
	if err := p.targeter.Cancel(ctx); err != nil {
		return err
	}

	s.emit(events.NewEvent(events.EventTypeTargetingEnded).
		WithActor(actorID).
		WithAbility(p.ability.ID))
	return nil
}

// PendingTargeter returns the targeter waiting for the actor's selection
func (s *service) PendingTargeter(actorID string) (*targeting.Targeter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[actorID]
	if !ok {
		return nil, false
	}
	return p.targeter, true
}

// InvokeCallback runs a fired callback's entry point with its frozen targets
func (s *service) InvokeCallback(ctx context.Context, cb *callbacks.Callback) error {
	script, ok := s.scripts.Get(cb.Ability.ID)
	if !ok {
		return engerr.NotFoundf("no script for ability %s", cb.Ability.ID)
	}
	entry, ok := script.Entry(cb.EntryPoint)
	if !ok {
		return engerr.NotFoundf("script %s has no entry point %q", cb.Ability.ID, cb.EntryPoint)
	}
	if !cb.Actor.IsAlive() {
		s.log.WithFields(logrus.Fields{
			"actor_id":    cb.Actor.ID,
			"entry_point": cb.EntryPoint,
		}).Debug("Skipping callback, actor is no longer in play")
		return nil
	}

	api := s.newAPI(cb.Actor, cb.Ability, cb.EntryPoint)
	return s.guard(ctx, api, func(ctx context.Context) error {
		return entry(ctx, api, cb.Actor, cb.Ability, cb.Targets)
	})
}

// Abilities resolves ability IDs. Unknown IDs are logged and skipped.
func (s *service) Abilities(ctx context.Context, ids []string) ([]*combatant.Ability, error) {
	list := make([]*combatant.Ability, 0, len(ids))
	for _, id := range ids {
		ability, err := s.abilities.Get(ctx, id)
		if err != nil {
			if engerr.IsNotFound(err) {
				s.log.WithField("ability_id", id).Warn("Unknown ability in ability list")
				continue
			}
			return nil, engerr.Wrapf(err, "failed to resolve ability %s", id)
		}
		if _, ok := s.scripts.Get(id); !ok {
			s.log.WithField("ability_id", id).Warn("Ability has no script")
			continue
		}
		list = append(list, ability)
	}
	return list, nil
}

// guard runs one entry point. Script errors and panics are logged and
// returned as coded errors. Afterwards, animations the entry point never
// activated are cancelled and unbound callbacks are discarded, so nothing it
// registered can wait forever.
func (s *service) guard(ctx context.Context, api *API, fn func(ctx context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "ability.entry."+api.entry)
	defer span.End()
	span.SetAttributes(attribute.String("ability.id", api.ability.ID))

	defer func() {
		if r := recover(); r != nil {
			err = engerr.Newf(engerr.CodeScript, "%s of %s panicked: %v", api.entry, api.ability.ID, r)
		}
		api.discardUnstarted()
		s.scheduler.DiscardUnbound()
		if err != nil {
			span.RecordError(err)
			api.log.WithError(err).Error("Ability entry point failed")
		}
	}()

	if err := fn(ctx); err != nil {
		if engerr.GetCode(err) == engerr.CodeUnknown {
			return engerr.WrapWithCode(err, engerr.CodeScript, fmt.Sprintf("%s of %s failed", api.entry, api.ability.ID))
		}
		return engerr.Wrapf(err, "%s of %s failed", api.entry, api.ability.ID)
	}
	return nil
}

func (s *service) livingActor(actorID string) (*combatant.Entity, error) {
	actor, ok := s.world.Entity(actorID)
	if !ok {
		return nil, engerr.NotFoundf("entity not found: %s", actorID)
	}
	if !actor.IsAlive() {
		return nil, engerr.FailedPreconditionf("%s is not in play", actor.Name)
	}
	return actor, nil
}

func (s *service) emit(event *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(event); err != nil {
		s.log.WithError(err).WithField("event_type", event.Type).Warn("Event listener failed")
	}
}
