package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

type recordingObserver struct {
	applied []string
	removed map[string]RemovalReason
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{removed: make(map[string]RemovalReason)}
}

func (o *recordingObserver) EffectApplied(e *Effect) { o.applied = append(o.applied, e.ID) }
func (o *recordingObserver) EffectRemoved(e *Effect, reason RemovalReason) {
	o.removed[e.ID] = reason
}

func apBonus(t *testing.T, id string, magnitude, duration float64) *Effect {
	t.Helper()
	effect := NewEffect(id, "goblin", "slow", duration)
	require.NoError(t, effect.AddNumBonus(BonusAP, magnitude))
	return effect
}

func TestManager_BonusSummation(t *testing.T) {
	manager := NewManager("goblin")
	base := 100.0

	first := apBonus(t, "fx-1", -10, 6)
	second := apBonus(t, "fx-2", -5, 6)
	require.NoError(t, manager.Apply(first))
	require.NoError(t, manager.Apply(second))

	assert.Equal(t, 85.0, base+manager.Bonus(BonusAP))

	assert.True(t, manager.Remove("fx-1"))
	assert.Equal(t, 95.0, base+manager.Bonus(BonusAP))
	assert.Equal(t, StateRemoved, first.State())
}

func TestManager_Expiry(t *testing.T) {
	manager := NewManager("goblin")
	observer := newRecordingObserver()
	manager.SetObserver(observer)

	require.NoError(t, manager.Apply(apBonus(t, "short", -10, 2)))
	require.NoError(t, manager.Apply(apBonus(t, "long", -5, 6)))

	expired := manager.Advance(1.5)
	assert.Empty(t, expired)
	assert.Equal(t, -15.0, manager.Bonus(BonusAP))

	expired = manager.Advance(0.5)
	require.Len(t, expired, 1)
	assert.Equal(t, "short", expired[0].ID)
	assert.Equal(t, -5.0, manager.Bonus(BonusAP))
	assert.Equal(t, ReasonExpired, observer.removed["short"])

	t.Run("many small steps still expire on time", func(t *testing.T) {
		for i := 0; i < 40; i++ {
			manager.Advance(0.1)
		}
		assert.Empty(t, manager.Active())
		assert.Equal(t, 0.0, manager.Bonus(BonusAP))
	})
}

func TestManager_ExpiredEffectExcludedBeforeSweep(t *testing.T) {
	manager := NewManager("goblin")
	effect := apBonus(t, "fx", -10, 1)
	require.NoError(t, manager.Apply(effect))

	// clock pushed past duration by someone other than Advance
	effect.Elapsed = 1

	assert.Equal(t, 0.0, manager.Bonus(BonusAP))
	assert.Empty(t, manager.Active())
}

func TestManager_ApplyIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name     string
		effect   func(t *testing.T) *Effect
		wantCode engerr.Code
	}{
		{
			name: "missing id",
			effect: func(t *testing.T) *Effect {
				return apBonus(t, "", -10, 6)
			},
			wantCode: engerr.CodeInvalidArgument,
		},
		{
			name: "zero duration",
			effect: func(t *testing.T) *Effect {
				return apBonus(t, "fx", -10, 0)
			},
			wantCode: engerr.CodeInvalidArgument,
		},
		{
			name: "wrong owner",
			effect: func(t *testing.T) *Effect {
				effect := NewEffect("fx", "orc", "slow", 6)
				require.NoError(t, effect.AddNumBonus(BonusAP, -1))
				return effect
			},
			wantCode: engerr.CodeInvalidArgument,
		},
		{
			name: "already applied elsewhere",
			effect: func(t *testing.T) *Effect {
				effect := apBonus(t, "fx", -10, 6)
				require.NoError(t, NewManager("goblin").Apply(effect))
				return effect
			},
			wantCode: engerr.CodeFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager("goblin")
			err := manager.Apply(tt.effect(t))

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, engerr.GetCode(err))
			assert.Empty(t, manager.Active())
			assert.Equal(t, 0.0, manager.Bonus(BonusAP))
		})
	}
}

func TestEffect_MutationsOnlyWhilePending(t *testing.T) {
	manager := NewManager("goblin")
	effect := NewEffect("fx", "goblin", "slow", 6)

	require.NoError(t, effect.AddNumBonus(BonusAP, -2))
	require.NoError(t, effect.AddNumBonus(BonusAP, -2))
	require.NoError(t, effect.AddNumBonus(BonusMoveAnimRate, -0.3))
	require.NoError(t, effect.SetTag("slow"))
	require.NoError(t, effect.SetAnimation("anim-1"))

	assert.Equal(t, -4.0, effect.Bonus(BonusAP))
	assert.Equal(t, []BonusKind{BonusAP, BonusMoveAnimRate}, effect.Kinds())

	assert.True(t, engerr.IsInvalidArgument(effect.AddNumBonus(BonusAP, math.NaN())))
	assert.True(t, engerr.IsInvalidArgument(effect.SetTag("")))

	require.NoError(t, manager.Apply(effect))

	assert.True(t, engerr.IsFailedPrecondition(effect.AddNumBonus(BonusAP, -100)))
	assert.True(t, engerr.IsFailedPrecondition(effect.SetTag("haste")))
	assert.Equal(t, -4.0, manager.Bonus(BonusAP))
}

func TestManager_Tags(t *testing.T) {
	manager := NewManager("goblin")

	slow := apBonus(t, "slow-1", -10, 6)
	require.NoError(t, slow.SetTag("slow"))
	require.NoError(t, manager.Apply(slow))

	other := apBonus(t, "curse-1", -1, 6)
	require.NoError(t, other.SetTag("curse"))
	require.NoError(t, manager.Apply(other))

	assert.True(t, manager.HasTag("slow"))
	assert.Len(t, manager.WithTag("curse"), 1)

	removed := manager.RemoveByTag("slow")
	require.Len(t, removed, 1)
	assert.False(t, manager.HasTag("slow"))
	assert.Equal(t, -1.0, manager.Bonus(BonusAP))

	got, ok := manager.Get("curse-1")
	require.True(t, ok)
	assert.Equal(t, []string{"curse"}, got.Tags())
}

func TestManager_DuplicateID(t *testing.T) {
	manager := NewManager("goblin")
	require.NoError(t, manager.Apply(apBonus(t, "fx", -1, 6)))

	err := manager.Apply(apBonus(t, "fx", -1, 6))
	assert.True(t, engerr.IsAlreadyExists(err))
	assert.Equal(t, -1.0, manager.Bonus(BonusAP))
}
