package abilities_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/repositories/abilities"
)

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := abilities.NewInMemoryRepository(&combatant.Ability{ID: "slow", Name: "Slow", Duration: 6})

	t.Run("Returns seeded ability", func(t *testing.T) {
		ability, err := repo.Get(ctx, "slow")
		require.NoError(t, err)
		assert.Equal(t, "Slow", ability.Name)
	})

	t.Run("Returns not found for unknown ability", func(t *testing.T) {
		_, err := repo.Get(ctx, "fireball")
		assert.True(t, engerr.IsNotFound(err))
	})

	t.Run("Stored abilities cannot be mutated by callers", func(t *testing.T) {
		ability := &combatant.Ability{ID: "bolt", Consts: map[string]float64{"speed": 10}}
		require.NoError(t, repo.Put(ctx, ability))
		ability.Consts["speed"] = 99

		stored, err := repo.Get(ctx, "bolt")
		require.NoError(t, err)
		assert.Equal(t, 10.0, stored.Consts["speed"])

		stored.Name = "changed"
		again, err := repo.Get(ctx, "bolt")
		require.NoError(t, err)
		assert.Empty(t, again.Name)
	})

	t.Run("Lists abilities ordered by ID", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "bolt", list[0].ID)
		assert.Equal(t, "slow", list[1].ID)
	})

	t.Run("Rejects invalid abilities", func(t *testing.T) {
		assert.True(t, engerr.IsInvalidArgument(repo.Put(ctx, &combatant.Ability{})))
	})
}
