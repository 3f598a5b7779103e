package render

//go:generate mockgen -destination=mock/mock_render.go -package=mockrender -source=tracker.go

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

// completionEpsilon absorbs float drift from many small clock advances
const completionEpsilon = 1e-9

// Backend plays generators on screen
type Backend interface {
	Play(gen *ParticleGenerator) error
	Stop(id string) error
}

// SoundPlayer plays sound effects by id
type SoundPlayer interface {
	Play(id string) error
}

// Completer is told when a generator finishes or is cancelled
type Completer interface {
	Complete(ctx context.Context, triggerID string) bool
	Cancel(triggerID string) bool
}

// Tracker times active generators on the simulation clock and reports their
// completion. Timing never depends on the backend succeeding.
type Tracker struct {
	ids       uuid.Generator
	backend   Backend
	completer Completer
	log       *logrus.Entry

	created map[string]*ParticleGenerator
	active  []*ParticleGenerator
}

// TrackerConfig holds the tracker's dependencies
type TrackerConfig struct {
	IDs     uuid.Generator
	Backend Backend
	Logger  *logrus.Logger
}

// NewTracker creates a tracker. A nil backend plays nothing.
func NewTracker(cfg *TrackerConfig) *Tracker {
	if cfg == nil {
		cfg = &TrackerConfig{}
	}

	t := &Tracker{
		ids:     cfg.IDs,
		backend: cfg.Backend,
		log:     logger.Component(cfg.Logger, "animation_tracker"),
		created: make(map[string]*ParticleGenerator),
	}
	if t.ids == nil {
		t.ids = uuid.NewGoogleUUIDGenerator()
	}
	return t
}

// SetCompleter installs the completion listener, normally the callback
// scheduler
func (t *Tracker) SetCompleter(c Completer) {
	t.completer = c
}

// NewGenerator creates an inactive generator owned by an entity
func (t *Tracker) NewGenerator(ownerID string, duration float64) (*ParticleGenerator, error) {
	if ownerID == "" {
		return nil, engerr.InvalidArgumentf("generator owner is required")
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, engerr.InvalidArgumentf("invalid generator duration %v", duration)
	}

	gen := &ParticleGenerator{
		id:       t.ids.New(),
		ownerID:  ownerID,
		Duration: duration,
		params:   make(map[string]Dist),
	}
	t.created[gen.id] = gen
	return gen, nil
}

// Activate starts timing a generator and hands it to the backend
func (t *Tracker) Activate(gen *ParticleGenerator) error {
	if gen == nil {
		return engerr.InvalidArgumentf("generator cannot be nil")
	}
	if _, ok := t.created[gen.id]; !ok {
		return engerr.FailedPreconditionf("generator %s is not waiting for activation", gen.id)
	}

	delete(t.created, gen.id)
	gen.active = true
	t.active = append(t.active, gen)

	if t.backend != nil {
		if err := t.backend.Play(gen); err != nil {
			t.log.WithError(err).WithField("generator_id", gen.id).Warn("Animation backend failed, continuing without playback")
		}
	}
	return nil
}

// Update advances every active generator and reports completions in the
// order they finished. Generators activated by a completion start on the
// next update.
func (t *Tracker) Update(ctx context.Context, dt float64) int {
	if dt < 0 {
		dt = 0
	}

	var finished, still []*ParticleGenerator
	for _, gen := range t.active {
		gen.Elapsed += dt
		if gen.Elapsed >= gen.Duration-completionEpsilon {
			finished = append(finished, gen)
		} else {
			still = append(still, gen)
		}
	}
	t.active = still

	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].Duration-(finished[i].Elapsed-dt) < finished[j].Duration-(finished[j].Elapsed-dt)
	})

	for _, gen := range finished {
		gen.active = false
		gen.done = true
		if t.completer != nil {
			t.completer.Complete(ctx, gen.id)
		}
	}
	return len(finished)
}

// Cancel stops a generator and drops whatever was waiting on it
func (t *Tracker) Cancel(id string) bool {
	found := false
	if gen, ok := t.created[id]; ok {
		delete(t.created, id)
		gen.done = true
		found = true
	}
	for i, gen := range t.active {
		if gen.id != id {
			continue
		}
		gen.active = false
		gen.done = true
		t.active = append(t.active[:i:i], t.active[i+1:]...)
		t.stop(id)
		found = true
		break
	}

	if t.completer != nil {
		t.completer.Cancel(id)
	}
	return found
}

// RemoveOwner cancels every generator owned by an entity
func (t *Tracker) RemoveOwner(ownerID string) int {
	var ids []string
	for id, gen := range t.created {
		if gen.ownerID == ownerID {
			ids = append(ids, id)
		}
	}
	for _, gen := range t.active {
		if gen.ownerID == ownerID {
			ids = append(ids, gen.id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		t.Cancel(id)
	}
	return len(ids)
}

// Active returns the number of generators being timed
func (t *Tracker) Active() int {
	return len(t.active)
}

func (t *Tracker) stop(id string) {
	if t.backend == nil {
		return
	}
	if err := t.backend.Stop(id); err != nil {
		t.log.WithError(err).WithField("generator_id", id).Warn("Animation backend failed to stop generator")
	}
}
