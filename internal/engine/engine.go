// Package engine hosts a combat area: it owns the entities, advances the
// simulation clock and wires the ability service to its collaborators.
package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/rpg-ability-engine/internal/callbacks"
	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	"github.com/KirkDiggler/rpg-ability-engine/internal/dice"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/attack"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
	"github.com/KirkDiggler/rpg-ability-engine/internal/repositories/abilities"
	"github.com/KirkDiggler/rpg-ability-engine/internal/services/ability"
	"github.com/KirkDiggler/rpg-ability-engine/internal/telemetry"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

// DefaultSightRange is used when the config does not set one
const DefaultSightRange = 12.0

// Engine is the combat area and simulation host
type Engine struct {
	mu         sync.RWMutex
	entities   map[string]*combatant.Entity
	order      []string // insertion order for stable iteration
	sightRange float64
	clock      float64

	bus       *events.Bus
	log       *logrus.Entry
	tracer    trace.Tracer
	tracker   *render.Tracker
	scheduler *callbacks.Scheduler
	resolver  *attack.Resolver
	abilities ability.Service
}

// Config holds the engine's dependencies
type Config struct {
	Rules      *config.Rules
	Roller     dice.Roller
	Abilities  abilities.Repository
	Scripts    *ability.ScriptRegistry
	Backend    render.Backend
	Sounds     render.SoundPlayer
	IDs        uuid.Generator
	Bus        *events.Bus
	Logger     *logrus.Logger
	Tracer     trace.Tracer
	SightRange float64
}

// New creates an engine and the services it hosts
func New(cfg *Config) *Engine {
	if cfg == nil {
		panic("engine config is required")
	}
	if cfg.Roller == nil {
		panic("roller is required")
	}
	if cfg.Abilities == nil {
		panic("ability repository is required")
	}
	if cfg.Scripts == nil {
		panic("script registry is required")
	}

	ids := cfg.IDs
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.NoopTracer()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.NewBus(cfg.Logger)
	}
	sight := cfg.SightRange
	if sight <= 0 {
		sight = DefaultSightRange
	}

	e := &Engine{
		entities:   make(map[string]*combatant.Entity),
		sightRange: sight,
		bus:        bus,
		log:        logger.Component(cfg.Logger, "engine"),
		tracer:     tracer,
	}

	e.resolver = attack.NewResolver(&attack.ResolverConfig{
		Rules:  cfg.Rules,
		Roller: cfg.Roller,
		Tracer: tracer,
	})
	e.scheduler = callbacks.NewScheduler(&callbacks.SchedulerConfig{
		IDs:    ids,
		Bus:    bus,
		Logger: cfg.Logger,
		Tracer: tracer,
	})
	e.tracker = render.NewTracker(&render.TrackerConfig{
		IDs:     ids,
		Backend: cfg.Backend,
		Logger:  cfg.Logger,
	})
	e.tracker.SetCompleter(e.scheduler)

	e.abilities = ability.NewService(&ability.ServiceConfig{
		World:     e,
		Abilities: cfg.Abilities,
		Scripts:   cfg.Scripts,
		Resolver:  e.resolver,
		Scheduler: e.scheduler,
		Tracker:   e.tracker,
		Sounds:    cfg.Sounds,
		IDs:       ids,
		Bus:       bus,
		Logger:    cfg.Logger,
		Tracer:    tracer,
	})

	return e
}

// Abilities returns the ability service bound to this area
func (e *Engine) Abilities() ability.Service { return e.abilities }

// Bus returns the engine event bus
func (e *Engine) Bus() *events.Bus { return e.bus }

// Rules returns the combat rules in force
func (e *Engine) Rules() *config.Rules { return e.resolver.Rules() }

// Scheduler returns the callback scheduler
func (e *Engine) Scheduler() *callbacks.Scheduler { return e.scheduler }

// Tracker returns the animation tracker
func (e *Engine) Tracker() *render.Tracker { return e.tracker }

// Clock returns the simulation time elapsed so far
func (e *Engine) Clock() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock
}

// AddEntity places an entity in the area
func (e *Engine) AddEntity(entity *combatant.Entity) error {
	if entity == nil || entity.ID == "" {
		return engerr.InvalidArgumentf("entity with an ID is required")
	}

	e.mu.Lock()
	if _, exists := e.entities[entity.ID]; exists {
		e.mu.Unlock()
		return engerr.AlreadyExistsf("entity %s is already in the area", entity.ID)
	}
	e.entities[entity.ID] = entity
	e.order = append(e.order, entity.ID)
	e.mu.Unlock()

	entity.Effects().SetObserver(&effectObserver{engine: e, entityID: entity.ID})

	e.log.WithFields(logrus.Fields{
		"entity_id": entity.ID,
		"faction":   entity.Faction,
	}).Debug("Entity joined area")
	return nil
}

// Entities returns every entity in the area in the order they joined
func (e *Engine) Entities() []*combatant.Entity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := make([]*combatant.Entity, 0, len(e.order))
	for _, id := range e.order {
		list = append(list, e.entities[id])
	}
	return list
}

// Entity looks up an entity in the area
func (e *Engine) Entity(id string) (*combatant.Entity, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entity, ok := e.entities[id]
	return entity, ok
}

// IsVisible reports whether observer can see target. Hidden entities are
// seen only by their own faction; everyone else must be within sight range.
func (e *Engine) IsVisible(observer, target *combatant.Entity) bool {
	if observer == nil || target == nil {
		return false
	}
	if observer.ID == target.ID {
		return true
	}
	if target.Hidden && !target.IsFriendlyTo(observer) {
		return false
	}
	return observer.DistanceTo(target) <= e.sightRange
}

// RemoveEntity takes an entity out of play. Its animations are cancelled,
// callbacks waiting on them are dropped and its effects are cleared.
func (e *Engine) RemoveEntity(ctx context.Context, id string) error {
	e.mu.Lock()
	entity, ok := e.entities[id]
	if ok {
		delete(e.entities, id)
		for i, existing := range e.order {
			if existing == id {
				e.order = append(e.order[:i:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()

	if !ok {
		return engerr.NotFoundf("entity not found: %s", id)
	}

	entity.MarkRemoved()
	cancelled := e.tracker.RemoveOwner(id)
	dropped := e.scheduler.OwnerRemoved(id)
	cleared := entity.Effects().Clear()

	e.log.WithFields(logrus.Fields{
		"entity_id":            id,
		"animations_cancelled": cancelled,
		"callbacks_dropped":    dropped,
		"effects_cleared":      len(cleared),
	}).Info("Entity removed from area")

	e.emit(events.NewEvent(events.EventTypeEntityRemoved).WithTarget(id))
	return nil
}

// BeginTurn refills an entity's AP pool from its effective AP stat
func (e *Engine) BeginTurn(ctx context.Context, id string) (int, error) {
	entity, ok := e.Entity(id)
	if !ok {
		return 0, engerr.NotFoundf("entity not found: %s", id)
	}
	if !entity.IsAlive() {
		return 0, engerr.FailedPreconditionf("%s is not in play", entity.Name)
	}

	ap := entity.RefillAP()
	e.emit(events.NewEvent(events.EventTypeTurnStarted).
		WithActor(id).
		With("ap", ap))
	return ap, nil
}

// Tick advances the simulation clock. Expired effects are swept before
// animations advance so callbacks fired this tick read current stats.
func (e *Engine) Tick(ctx context.Context, dt float64) error {
	if dt < 0 {
		return engerr.InvalidArgumentf("tick size cannot be negative: %v", dt)
	}

	ctx, span := e.tracer.Start(ctx, "engine.Tick")
	defer span.End()
	span.SetAttributes(attribute.Float64("tick.dt", dt))

	e.mu.Lock()
	e.clock += dt
	e.mu.Unlock()

	expired := 0
	for _, entity := range e.Entities() {
		expired += len(entity.Effects().Advance(dt))
	}

	completed := e.tracker.Update(ctx, dt)
	span.SetAttributes(
		attribute.Int("tick.effects_expired", expired),
		attribute.Int("tick.animations_completed", completed),
	)
	return nil
}

// Run advances the clock in fixed steps until no animation is playing or
// the time limit is reached. It returns the time advanced.
func (e *Engine) Run(ctx context.Context, step, limit float64) (float64, error) {
	if step <= 0 {
		return 0, engerr.InvalidArgumentf("step must be positive: %v", step)
	}

	elapsed := 0.0
	for elapsed < limit && e.tracker.Active() > 0 {
		if err := ctx.Err(); err != nil {
			return elapsed, err
		}
		if err := e.Tick(ctx, step); err != nil {
			return elapsed, err
		}
		elapsed += step
	}
	return elapsed, nil
}

// Living returns the IDs of entities still in play, sorted
func (e *Engine) Living() []string {
	var ids []string
	for _, entity := range e.Entities() {
		if entity.IsAlive() {
			ids = append(ids, entity.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) emit(event *events.Event) {
	if err := e.bus.Emit(event); err != nil {
		e.log.WithError(err).WithField("event_type", event.Type).Warn("Event listener failed")
	}
}

// effectObserver turns an entity's effect lifecycle into engine events and
// stops an effect's animation when the effect leaves
type effectObserver struct {
	engine   *Engine
	entityID string
}

func (o *effectObserver) EffectApplied(effect *effects.Effect) {
	o.engine.emit(events.NewEvent(events.EventTypeEffectApplied).
		WithTarget(o.entityID).
		With("effect_id", effect.ID).
		With("effect", effect.Name).
		With("duration", effect.Duration))
}

func (o *effectObserver) EffectRemoved(effect *effects.Effect, reason effects.RemovalReason) {
	eventType := events.EventTypeEffectRemoved
	if reason == effects.ReasonExpired {
		eventType = events.EventTypeEffectExpired
	}
	o.engine.emit(events.NewEvent(eventType).
		WithTarget(o.entityID).
		With("effect_id", effect.ID).
		With("effect", effect.Name))

	if effect.AnimationID != "" {
		o.engine.tracker.Cancel(effect.AnimationID)
	}
}
