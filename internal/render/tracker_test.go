package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
	mockrender "github.com/KirkDiggler/rpg-ability-engine/internal/render/mock"
	"github.com/KirkDiggler/rpg-ability-engine/internal/uuid"
)

func newTracker(t *testing.T, backend render.Backend) (*render.Tracker, *mockrender.MockCompleter) {
	ctrl := gomock.NewController(t)
	completer := mockrender.NewMockCompleter(ctrl)

	tracker := render.NewTracker(&render.TrackerConfig{
		IDs:     uuid.NewSequentialGenerator("anim"),
		Backend: backend,
	})
	tracker.SetCompleter(completer)
	return tracker, completer
}

func TestTracker_CompletesInFinishOrder(t *testing.T) {
	ctx := context.Background()
	tracker, completer := newTracker(t, nil)

	slow, err := tracker.NewGenerator("mage", 0.5)
	require.NoError(t, err)
	fast, err := tracker.NewGenerator("mage", 0.2)
	require.NoError(t, err)
	require.NoError(t, tracker.Activate(slow))
	require.NoError(t, tracker.Activate(fast))

	gomock.InOrder(
		completer.EXPECT().Complete(ctx, fast.ID()).Return(true),
		completer.EXPECT().Complete(ctx, slow.ID()).Return(true),
	)

	assert.Equal(t, 0, tracker.Update(ctx, 0.1))
	assert.Equal(t, 2, tracker.Update(ctx, 1.0))
	assert.Zero(t, tracker.Active())
	assert.False(t, fast.IsActive())
}

func TestTracker_DriftDoesNotDelayCompletion(t *testing.T) {
	ctx := context.Background()
	tracker, completer := newTracker(t, nil)

	gen, err := tracker.NewGenerator("mage", 0.7)
	require.NoError(t, err)
	require.NoError(t, tracker.Activate(gen))

	completer.EXPECT().Complete(ctx, gen.ID()).Return(true).Times(1)

	for i := 0; i < 7; i++ {
		tracker.Update(ctx, 0.1)
	}
	assert.Zero(t, tracker.Active())
}

func TestTracker_BackendFailureKeepsTiming(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mockrender.NewMockBackend(ctrl)
	tracker, completer := newTracker(t, backend)

	gen, err := tracker.NewGenerator("mage", 0.3)
	require.NoError(t, err)

	backend.EXPECT().Play(gen).Return(errors.New("gpu lost"))
	completer.EXPECT().Complete(ctx, gen.ID()).Return(true)

	require.NoError(t, tracker.Activate(gen))
	assert.Equal(t, 1, tracker.Update(ctx, 0.3))
}

func TestTracker_BackendFailureIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mockrender.NewMockBackend(ctrl)
	log, hook := test.NewNullLogger()

	tracker := render.NewTracker(&render.TrackerConfig{
		IDs:     uuid.NewSequentialGenerator("anim"),
		Backend: backend,
		Logger:  log,
	})

	gen, err := tracker.NewGenerator("mage", 1)
	require.NoError(t, err)
	backend.EXPECT().Play(gen).Return(errors.New("gpu lost"))

	require.NoError(t, tracker.Activate(gen))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, tracker.Active())
}

func TestTracker_CancelNotifiesCompleter(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mockrender.NewMockBackend(ctrl)
	tracker, completer := newTracker(t, backend)

	gen, err := tracker.NewGenerator("mage", 1)
	require.NoError(t, err)
	backend.EXPECT().Play(gen).Return(nil)
	require.NoError(t, tracker.Activate(gen))

	backend.EXPECT().Stop(gen.ID()).Return(nil)
	completer.EXPECT().Cancel(gen.ID()).Return(true)

	assert.True(t, tracker.Cancel(gen.ID()))
	assert.Zero(t, tracker.Update(ctx, 5))
}

func TestTracker_RemoveOwner(t *testing.T) {
	tracker, completer := newTracker(t, nil)

	mine, err := tracker.NewGenerator("mage", 1)
	require.NoError(t, err)
	require.NoError(t, tracker.Activate(mine))
	pending, err := tracker.NewGenerator("mage", 1)
	require.NoError(t, err)
	theirs, err := tracker.NewGenerator("goblin", 1)
	require.NoError(t, err)
	require.NoError(t, tracker.Activate(theirs))

	completer.EXPECT().Cancel(mine.ID()).Return(true)
	completer.EXPECT().Cancel(pending.ID()).Return(false)

	assert.Equal(t, 2, tracker.RemoveOwner("mage"))
	assert.Equal(t, 1, tracker.Active())
	assert.True(t, engerr.IsFailedPrecondition(tracker.Activate(pending)))
}

func TestTracker_GeneratorValidation(t *testing.T) {
	tracker, _ := newTracker(t, nil)

	_, err := tracker.NewGenerator("", 1)
	assert.True(t, engerr.IsInvalidArgument(err))
	_, err = tracker.NewGenerator("mage", -1)
	assert.True(t, engerr.IsInvalidArgument(err))

	gen, err := tracker.NewGenerator("mage", 1)
	require.NoError(t, err)
	require.NoError(t, tracker.Activate(gen))
	assert.True(t, engerr.IsFailedPrecondition(tracker.Activate(gen)), "double activation")
}

func TestParticleGenerator_Params(t *testing.T) {
	tracker, _ := newTracker(t, nil)
	gen, err := tracker.NewGenerator("mage", 2)
	require.NoError(t, err)

	gen.SetPosition(1, 2)
	gen.SetVelocity(render.Fixed(3), render.Uniform(2, -2))
	gen.SetParam(render.ParamSize, render.Uniform(0.5, 1))

	size, ok := gen.Param(render.ParamSize)
	require.True(t, ok)
	assert.Equal(t, render.DistUniform, size.Kind)
	assert.Equal(t, -2.0, gen.VY.Min)
	assert.Equal(t, 1.0, gen.Position.X)
	assert.Equal(t, 2.0, gen.Remaining())
}

func TestTracker_PendingUntilCompletedOrCancelled(t *testing.T) {
	ctx := context.Background()
	tracker, completer := newTracker(t, nil)

	played, err := tracker.NewGenerator("mage", 0.2)
	require.NoError(t, err)
	unstarted, err := tracker.NewGenerator("mage", 0.2)
	require.NoError(t, err)
	assert.True(t, played.IsPending())
	assert.True(t, unstarted.IsPending())

	require.NoError(t, tracker.Activate(played))
	completer.EXPECT().Complete(ctx, played.ID()).Return(false)
	completer.EXPECT().Cancel(unstarted.ID()).Return(false)

	tracker.Update(ctx, 0.2)
	assert.False(t, played.IsPending())

	assert.True(t, tracker.Cancel(unstarted.ID()))
	assert.False(t, unstarted.IsPending())
	assert.True(t, engerr.IsFailedPrecondition(tracker.Activate(unstarted)))
}
