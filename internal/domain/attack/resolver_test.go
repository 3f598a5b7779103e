package attack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	mockdice "github.com/KirkDiggler/rpg-ability-engine/internal/dice/mock"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

func newDuel(accuracy, will, armor float64) (*combatant.Entity, *combatant.Entity) {
	mage := combatant.New("mage", "Mage", combatant.FactionPlayer, 20, map[effects.BonusKind]float64{
		effects.BonusSpellAccuracy:  accuracy,
		effects.BonusRangedAccuracy: accuracy,
	})
	goblin := combatant.New("goblin", "Goblin", combatant.FactionHostile, 20, map[effects.BonusKind]float64{
		effects.BonusWill:    will,
		effects.BonusDefense: will,
		effects.BonusArmor:   armor,
	})
	return mage, goblin
}

func TestResolver_ContestOutcomes(t *testing.T) {
	mage, goblin := newDuel(40, 40, 0)

	tests := []struct {
		name string
		roll int
		want Outcome
	}{
		{name: "below graze threshold", roll: 10, want: Miss},
		{name: "graze", roll: 15, want: Graze},
		{name: "just below hit", roll: 49, want: Graze},
		{name: "hit", roll: 50, want: Hit},
		{name: "crit", roll: 95, want: Crit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetNextRoll(tt.roll)
			resolver := NewResolver(&ResolverConfig{Roller: roller})

			result, err := resolver.Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Equal(t, tt.roll, result.Roll)
		})
	}
}

func TestResolver_MissWhenRollCannotReachDefense(t *testing.T) {
	mage, goblin := newDuel(0, 80, 0)
	roller := mockdice.NewManualMockRoller()
	roller.SetNextRoll(70)

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
	require.NoError(t, err)
	assert.Equal(t, Miss, result.Outcome)
	assert.False(t, result.Outcome.Applies())
}

func TestResolver_Deterministic(t *testing.T) {
	mage, goblin := newDuel(25, 30, 0)

	resolve := func() Outcome {
		roller := mockdice.NewManualMockRoller()
		roller.SetRolls([]int{62})
		result, err := NewResolver(&ResolverConfig{Roller: roller}).
			Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
		require.NoError(t, err)
		return result.Outcome
	}

	first := resolve()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, resolve())
	}
}

func TestResolver_UsesEffectiveStats(t *testing.T) {
	mage, goblin := newDuel(40, 40, 0)
	hex := effects.NewEffect("fx-1", goblin.ID, "hex", 5)
	require.NoError(t, hex.AddNumBonus(effects.BonusWill, -20))
	require.NoError(t, goblin.Effects().Apply(hex))

	roller := mockdice.NewManualMockRoller()
	roller.SetNextRoll(35)

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
	require.NoError(t, err)
	assert.Equal(t, Hit, result.Outcome, "35 + 40 - 20 clears the hit threshold")
}

func TestResolver_CustomRules(t *testing.T) {
	mage, goblin := newDuel(40, 40, 0)
	roller := mockdice.NewManualMockRoller()
	roller.SetNextRoll(30)

	rules := &config.Rules{BaseAP: 100, DisplayAP: 10, GrazePercentile: 5, HitPercentile: 25, CritPercentile: 60}
	result, err := NewResolver(&ResolverConfig{Rules: rules, Roller: roller}).
		Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
	require.NoError(t, err)
	assert.Equal(t, Hit, result.Outcome)
}

func TestResolver_PhysicalDamage(t *testing.T) {
	mage, goblin := newDuel(40, 40, 2)

	roller := mockdice.NewManualMockRoller()
	// d100 then a d5 for the 4-8 damage range
	roller.SetRolls([]int{60, 5})

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Physical(mage, goblin, effects.BonusRangedAccuracy, 4, 8, DamageShock))
	require.NoError(t, err)

	assert.Equal(t, Hit, result.Outcome)
	assert.Equal(t, 8, result.RolledDamage)
	assert.Equal(t, 2.0, result.Armor)
	assert.Equal(t, 6, result.Damage)
	assert.Equal(t, DamageShock, result.DamageType)
}

func TestResolver_PhysicalGrazeAndRaw(t *testing.T) {
	mage, goblin := newDuel(40, 40, 50)

	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{20, 1})

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Physical(mage, goblin, effects.BonusRangedAccuracy, 10, 20, DamageRaw))
	require.NoError(t, err)

	assert.Equal(t, Graze, result.Outcome)
	assert.Equal(t, 10, result.RolledDamage)
	assert.Equal(t, 5, result.Damage, "raw damage ignores armor")
}

func TestResolver_PhysicalArmorFloorsAtZero(t *testing.T) {
	mage, goblin := newDuel(40, 40, 50)

	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{60, 3})

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Physical(mage, goblin, effects.BonusRangedAccuracy, 4, 8, DamagePiercing))
	require.NoError(t, err)
	assert.Zero(t, result.Damage)
}

func TestResolver_PhysicalMissRollsNoDamage(t *testing.T) {
	mage, goblin := newDuel(0, 90, 0)

	roller := mockdice.NewManualMockRoller()
	roller.SetNextRoll(10)

	result, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Physical(mage, goblin, effects.BonusRangedAccuracy, 4, 8, DamageFire))
	require.NoError(t, err)
	assert.Equal(t, Miss, result.Outcome)
	assert.Zero(t, result.Damage)
	assert.Zero(t, roller.Remaining())
}

func TestResolver_InvalidRequests(t *testing.T) {
	mage, goblin := newDuel(40, 40, 0)
	resolver := NewResolver(&ResolverConfig{Roller: mockdice.NewManualMockRoller()})
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, nil)
	assert.True(t, engerr.IsInvalidArgument(err))

	_, err = resolver.Resolve(ctx, &Request{Attacker: mage, Defender: goblin, Mode: ModePhysical})
	assert.True(t, engerr.IsInvalidArgument(err))

	_, err = resolver.Resolve(ctx, Physical(mage, goblin, effects.BonusRangedAccuracy, 8, 4, DamageFire))
	assert.True(t, engerr.IsInvalidArgument(err))

	_, err = resolver.Resolve(ctx, &Request{Attacker: mage, Defender: goblin, Mode: "psychic"})
	assert.True(t, engerr.IsInvalidArgument(err))
}

func TestResolver_RollerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	roller := mockdice.NewMockRoller(ctrl)
	roller.EXPECT().Roll(1, 100, 0).Return(nil, errors.New("entropy exhausted"))

	mage, goblin := newDuel(40, 40, 0)
	_, err := NewResolver(&ResolverConfig{Roller: roller}).
		Resolve(context.Background(), Contest(mage, goblin, effects.BonusSpellAccuracy, effects.BonusWill))
	assert.Error(t, err)
}

func TestOutcome_Scaling(t *testing.T) {
	assert.Equal(t, []float64{0, 5, 10, 15}, []float64{
		Miss.Scale(10), Graze.Scale(10), Hit.Scale(10), Crit.Scale(10),
	})
	assert.Equal(t, 8, Crit.ScaleInt(5))
	assert.Equal(t, -3, Graze.ScaleInt(-5))
	assert.True(t, Miss < Graze && Graze < Hit && Hit < Crit)
	assert.Equal(t, "Crit", Crit.Label())
	assert.Equal(t, "graze", Graze.String())
}
