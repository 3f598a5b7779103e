package callbacks

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
	"github.com/KirkDiggler/rpg-ability-engine/internal/telemetry"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

// Scheduler holds callbacks until their trigger completes. Each trigger has
// at most one callback and each callback fires at most once.
type Scheduler struct {
	mu        sync.Mutex
	ids       uuid.Generator
	invoker   Invoker
	bus       *events.Bus
	log       *logrus.Entry
	tracer    trace.Tracer
	unbound   map[string]*Callback
	byTrigger map[string]*Callback
	owners    map[string]string // trigger id -> owning entity id
}

// SchedulerConfig holds the scheduler's dependencies
type SchedulerConfig struct {
	IDs    uuid.Generator
	Bus    *events.Bus
	Logger *logrus.Logger
	Tracer trace.Tracer
}

// NewScheduler creates a scheduler. The invoker is installed separately
// because it usually depends on the scheduler.
func NewScheduler(cfg *SchedulerConfig) *Scheduler {
	if cfg == nil {
		cfg = &SchedulerConfig{}
	}

	s := &Scheduler{
		ids:       cfg.IDs,
		bus:       cfg.Bus,
		log:       logger.Component(cfg.Logger, "callback_scheduler"),
		tracer:    cfg.Tracer,
		unbound:   make(map[string]*Callback),
		byTrigger: make(map[string]*Callback),
		owners:    make(map[string]string),
	}
	if s.ids == nil {
		s.ids = uuid.NewGoogleUUIDGenerator()
	}
	if s.tracer == nil {
		s.tracer = telemetry.NoopTracer()
	}
	return s
}

// SetInvoker installs the entry-point runner
func (s *Scheduler) SetInvoker(invoker Invoker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoker = invoker
}

// Register creates a callback for an entry point with a frozen copy of the
// targets. It does nothing until bound.
func (s *Scheduler) Register(actor *combatant.Entity, ability *combatant.Ability, targets targeting.Targets, entryPoint string) (*Callback, error) {
	if entryPoint == "" {
		return nil, engerr.InvalidArgumentf("callback entry point is required")
	}
	if actor == nil || ability == nil {
		return nil, engerr.InvalidArgumentf("callback needs an actor and an ability")
	}

	cb := newCallback(s.ids.New(), actor, ability, targets, entryPoint)

	s.mu.Lock()
	s.unbound[cb.ID] = cb
	s.mu.Unlock()

	return cb, nil
}

// Bind attaches a registered callback to a trigger
func (s *Scheduler) Bind(ctx context.Context, cb *Callback, trigger Trigger) error {
	if cb == nil || trigger == nil {
		return engerr.InvalidArgumentf("bind needs a callback and a trigger")
	}
	if !trigger.IsPending() {
		return engerr.FailedPreconditionf("trigger %s has already completed or been cancelled", trigger.ID()).
			WithMeta("trigger_id", trigger.ID())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unbound[cb.ID]; !ok || !cb.state.Is(StateRegistered) {
		return engerr.FailedPreconditionf("callback %s is %s, not registered", cb.ID, cb.State())
	}
	if existing, ok := s.byTrigger[trigger.ID()]; ok {
		return engerr.AlreadyExistsf("trigger %s already has callback %s", trigger.ID(), existing.ID).
			WithMeta("trigger_id", trigger.ID())
	}

	if err := cb.state.Event(ctx, eventBind); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeFailedPrecondition, "failed to bind callback")
	}

	delete(s.unbound, cb.ID)
	cb.TriggerID = trigger.ID()
	s.byTrigger[trigger.ID()] = cb
	s.owners[trigger.ID()] = trigger.OwnerID()
	return nil
}

// Complete fires the callback bound to a completed trigger, if any. Entry
// point errors are logged, never returned.
func (s *Scheduler) Complete(ctx context.Context, triggerID string) bool {
	s.mu.Lock()
	cb, ok := s.byTrigger[triggerID]
	if ok {
		delete(s.byTrigger, triggerID)
		delete(s.owners, triggerID)
	}
	invoker := s.invoker
	s.mu.Unlock()

	if !ok {
		return false
	}

	if err := cb.state.Event(ctx, eventFire); err != nil {
		s.log.WithError(err).WithField("callback_id", cb.ID).Warn("Callback could not fire")
		return false
	}

	ctx, span := s.tracer.Start(ctx, "callbacks.Fire")
	defer span.End()
	span.SetAttributes(
		attribute.String("callback.entry_point", cb.EntryPoint),
		attribute.String("callback.ability", cb.Ability.ID),
	)

	s.emit(events.NewEvent(events.EventTypeCallbackFired).
		WithActor(cb.Actor.ID).
		WithAbility(cb.Ability.ID).
		With("entry_point", cb.EntryPoint).
		With("trigger_id", triggerID))

	if invoker == nil {
		s.log.WithField("callback_id", cb.ID).Error("No invoker installed, callback discarded")
		return true
	}

	if err := invoker.InvokeCallback(ctx, cb); err != nil {
		span.RecordError(err)
		s.log.WithError(err).WithFields(logrus.Fields{
			"callback_id": cb.ID,
			"ability_id":  cb.Ability.ID,
			"entry_point": cb.EntryPoint,
		}).Error("Callback entry point failed")
	}
	return true
}

// Cancel drops the callback bound to a trigger without running it
func (s *Scheduler) Cancel(triggerID string) bool {
	s.mu.Lock()
	cb, ok := s.byTrigger[triggerID]
	if ok {
		delete(s.byTrigger, triggerID)
		delete(s.owners, triggerID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.drop(cb, "trigger_cancelled")
	return true
}

// OwnerRemoved drops every callback whose trigger belongs to the entity
func (s *Scheduler) OwnerRemoved(entityID string) int {
	s.mu.Lock()
	var triggers []string
	for triggerID, owner := range s.owners {
		if owner == entityID {
			triggers = append(triggers, triggerID)
		}
	}
	sort.Strings(triggers)

	dropped := make([]*Callback, 0, len(triggers))
	for _, triggerID := range triggers {
		dropped = append(dropped, s.byTrigger[triggerID])
		delete(s.byTrigger, triggerID)
		delete(s.owners, triggerID)
	}
	s.mu.Unlock()

	for _, cb := range dropped {
		s.drop(cb, "owner_removed")
	}
	return len(dropped)
}

// DiscardUnbound drops callbacks that were registered but never bound. The
// ability service calls it at the end of every entry-point invocation.
func (s *Scheduler) DiscardUnbound() int {
	s.mu.Lock()
	discarded := make([]*Callback, 0, len(s.unbound))
	for _, cb := range s.unbound {
		discarded = append(discarded, cb)
	}
	s.unbound = make(map[string]*Callback)
	s.mu.Unlock()

	for _, cb := range discarded {
		s.log.WithFields(logrus.Fields{
			"callback_id": cb.ID,
			"entry_point": cb.EntryPoint,
		}).Debug("Discarding callback that was never bound")
		_ = cb.state.Event(context.Background(), eventDrop)
	}
	return len(discarded)
}

// Pending returns the number of bound callbacks waiting on a trigger
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTrigger)
}

// BoundTo returns the callback waiting on a trigger
func (s *Scheduler) BoundTo(triggerID string) (*Callback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.byTrigger[triggerID]
	return cb, ok
}

func (s *Scheduler) drop(cb *Callback, reason string) {
	if err := cb.state.Event(context.Background(), eventDrop); err != nil {
		s.log.WithError(err).WithField("callback_id", cb.ID).Warn("Callback could not be dropped")
		return
	}

	s.log.WithFields(logrus.Fields{
		"callback_id": cb.ID,
		"trigger_id":  cb.TriggerID,
		"reason":      reason,
	}).Debug("Callback dropped")

	s.emit(events.NewEvent(events.EventTypeCallbackDropped).
		WithActor(cb.Actor.ID).
		WithAbility(cb.Ability.ID).
		With("entry_point", cb.EntryPoint).
		With("reason", reason))
}

func (s *Scheduler) emit(event *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(event); err != nil {
		s.log.WithError(err).WithField("event_type", event.Type).Warn("Event listener failed")
	}
}
