package callbacks

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

type trigger struct {
	id    string
	owner string
	done  bool
}

func (t trigger) ID() string      { return t.id }
func (t trigger) OwnerID() string { return t.owner }
func (t trigger) IsPending() bool { return !t.done }

type recordingInvoker struct {
	calls []*Callback
	err   error
}

func (r *recordingInvoker) InvokeCallback(_ context.Context, cb *Callback) error {
	r.calls = append(r.calls, cb)
	return r.err
}

type SchedulerTestSuite struct {
	suite.Suite
	ctx       context.Context
	scheduler *Scheduler
	invoker   *recordingInvoker
	hook      *test.Hook
	events    []*events.Event
	mage      *combatant.Entity
	goblin    *combatant.Entity
	ability   *combatant.Ability
}

func (s *SchedulerTestSuite) SetupTest() {
	s.ctx = context.Background()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s.hook = hook
	s.events = nil

	bus := events.NewBus(log)
	bus.Subscribe(&events.ListenerFunc{Name: "recorder", Fn: func(e *events.Event) error {
		s.events = append(s.events, e)
		return nil
	}}, events.EventTypeCallbackFired, events.EventTypeCallbackDropped)

	s.scheduler = NewScheduler(&SchedulerConfig{
		IDs:    uuid.NewSequentialGenerator("cb"),
		Bus:    bus,
		Logger: log,
	})
	s.invoker = &recordingInvoker{}
	s.scheduler.SetInvoker(s.invoker)

	s.mage = combatant.New("mage", "Mage", combatant.FactionPlayer, 10, nil)
	s.goblin = combatant.New("goblin", "Goblin", combatant.FactionHostile, 10, nil)
	s.ability = &combatant.Ability{ID: "arcane_bolt", Name: "Arcane Bolt"}
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) register(entry string) *Callback {
	cb, err := s.scheduler.Register(s.mage, s.ability, targeting.NewTargets(s.goblin), entry)
	s.Require().NoError(err)
	return cb
}

func (s *SchedulerTestSuite) TestFiresExactlyOnce() {
	cb := s.register("on_hit")
	s.Equal("cb-1", cb.ID)
	s.Require().NoError(s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-1", owner: "mage"}))
	s.Equal(StateBound, cb.State())
	s.Equal(1, s.scheduler.Pending())

	s.True(s.scheduler.Complete(s.ctx, "anim-1"))
	s.False(s.scheduler.Complete(s.ctx, "anim-1"))

	s.Require().Len(s.invoker.calls, 1)
	s.Equal("on_hit", s.invoker.calls[0].EntryPoint)
	s.Equal([]string{"goblin"}, s.invoker.calls[0].Targets.IDs())
	s.Equal(StateFired, cb.State())
	s.Zero(s.scheduler.Pending())
	s.Require().Len(s.events, 1)
	s.Equal(events.EventTypeCallbackFired, s.events[0].Type)
}

func (s *SchedulerTestSuite) TestCancelDropsWithoutRunning() {
	cb := s.register("on_hit")
	s.Require().NoError(s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-1", owner: "mage"}))

	s.True(s.scheduler.Cancel("anim-1"))
	s.False(s.scheduler.Complete(s.ctx, "anim-1"))

	s.Empty(s.invoker.calls)
	s.Equal(StateDropped, cb.State())
	s.True(cb.IsTerminal())
	s.Require().Len(s.events, 1)
	s.Equal(events.EventTypeCallbackDropped, s.events[0].Type)
	s.Equal("trigger_cancelled", s.events[0].Data["reason"])
}

func (s *SchedulerTestSuite) TestOwnerRemovedDropsOnlyTheirTriggers() {
	first := s.register("on_hit")
	second := s.register("on_hit")
	other := s.register("on_hit")
	s.Require().NoError(s.scheduler.Bind(s.ctx, first, trigger{id: "anim-1", owner: "mage"}))
	s.Require().NoError(s.scheduler.Bind(s.ctx, second, trigger{id: "anim-2", owner: "mage"}))
	s.Require().NoError(s.scheduler.Bind(s.ctx, other, trigger{id: "anim-3", owner: "goblin"}))

	s.Equal(2, s.scheduler.OwnerRemoved("mage"))
	s.Equal(1, s.scheduler.Pending())
	s.Equal(StateDropped, first.State())
	s.Equal(StateDropped, second.State())
	s.Equal(StateBound, other.State())
}

func (s *SchedulerTestSuite) TestBindErrors() {
	cb := s.register("on_hit")
	s.Require().NoError(s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-1", owner: "mage"}))

	err := s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-2", owner: "mage"})
	s.True(engerr.IsFailedPrecondition(err), "a bound callback cannot bind again")

	second := s.register("on_hit")
	err = s.scheduler.Bind(s.ctx, second, trigger{id: "anim-1", owner: "mage"})
	s.True(engerr.IsAlreadyExists(err))
	s.Equal(StateRegistered, second.State())

	s.True(engerr.IsInvalidArgument(s.scheduler.Bind(s.ctx, nil, trigger{id: "anim-3"})))
}

func (s *SchedulerTestSuite) TestBindRejectsFinishedTrigger() {
	cb := s.register("on_hit")

	err := s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-1", owner: "mage", done: true})
	s.True(engerr.IsFailedPrecondition(err))
	s.Equal(StateRegistered, cb.State())
	s.Zero(s.scheduler.Pending())

	s.Equal(1, s.scheduler.DiscardUnbound())
	s.Equal(StateDropped, cb.State())
}

func (s *SchedulerTestSuite) TestRegisterRequiresEntryPoint() {
	_, err := s.scheduler.Register(s.mage, s.ability, targeting.NewTargets(), "")
	s.True(engerr.IsInvalidArgument(err))
}

func (s *SchedulerTestSuite) TestTargetsAreFrozen() {
	targets := targeting.NewTargets(s.goblin)
	cb, err := s.scheduler.Register(s.mage, s.ability, targets, "on_hit")
	s.Require().NoError(err)

	slice := cb.Targets.Slice()
	slice[0] = s.mage
	s.Equal([]string{"goblin"}, cb.Targets.IDs())
}

func (s *SchedulerTestSuite) TestDiscardUnbound() {
	unbound := s.register("on_hit")
	bound := s.register("on_hit")
	s.Require().NoError(s.scheduler.Bind(s.ctx, bound, trigger{id: "anim-1", owner: "mage"}))

	s.Equal(1, s.scheduler.DiscardUnbound())
	s.Equal(StateDropped, unbound.State())
	s.Equal(1, s.scheduler.Pending())

	err := s.scheduler.Bind(s.ctx, unbound, trigger{id: "anim-2", owner: "mage"})
	s.True(engerr.IsFailedPrecondition(err))
}

func (s *SchedulerTestSuite) TestInvokerErrorIsLogged() {
	s.invoker.err = errors.New("script exploded")
	cb := s.register("on_hit")
	s.Require().NoError(s.scheduler.Bind(s.ctx, cb, trigger{id: "anim-1", owner: "mage"}))

	s.True(s.scheduler.Complete(s.ctx, "anim-1"))

	entry := s.hook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(logrus.ErrorLevel, entry.Level)
	s.Equal("Callback entry point failed", entry.Message)
	s.Equal(StateFired, cb.State())
}
