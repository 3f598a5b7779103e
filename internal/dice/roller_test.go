package dice_test

import (
	"errors"
	"testing"

	"github.com/KirkDiggler/rpg-ability-engine/internal/dice"
	mockdice "github.com/KirkDiggler/rpg-ability-engine/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestManualMockRoller_Roll(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		count      int
		sides      int
		bonus      int
		wantTotal  int
		wantErr    bool
	}{
		{
			name:       "single d100",
			setupRolls: []int{42},
			count:      1,
			sides:      100,
			wantTotal:  42,
		},
		{
			name:       "2d6+3",
			setupRolls: []int{4, 5},
			count:      2,
			sides:      6,
			bonus:      3,
			wantTotal:  12,
		},
		{
			name:       "not enough rolls",
			setupRolls: []int{10},
			count:      2,
			sides:      6,
			wantErr:    true,
		},
		{
			name:       "invalid roll for die size",
			setupRolls: []int{7},
			count:      1,
			sides:      6,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetRolls(tt.setupRolls)

			result, err := roller.Roll(tt.count, tt.sides, tt.bonus)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
		})
	}
}

func TestBetween(t *testing.T) {
	t.Run("maps a die onto the range", func(t *testing.T) {
		roller := mockdice.NewManualMockRoller()
		roller.SetRolls([]int{1, 6})

		low, err := dice.Between(roller, 5, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, low)

		high, err := dice.Between(roller, 5, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, high)
	})

	t.Run("degenerate range consumes nothing", func(t *testing.T) {
		roller := mockdice.NewManualMockRoller()

		v, err := dice.Between(roller, 7, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 0, roller.Remaining())
	})

	t.Run("swapped bounds", func(t *testing.T) {
		roller := mockdice.NewManualMockRoller()
		roller.SetRolls([]int{2})

		v, err := dice.Between(roller, 10, 5)
		require.NoError(t, err)
		assert.Equal(t, 6, v)
	})
}

func TestPercentile_PropagatesRollerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	roller := mockdice.NewMockRoller(ctrl)
	roller.EXPECT().Roll(1, 100, 0).Return(nil, errors.New("exhausted"))

	_, err := dice.Percentile(roller)
	assert.Error(t, err)
}

func TestSeededRoller_IsDeterministic(t *testing.T) {
	a := dice.NewSeededRoller(99)
	b := dice.NewSeededRoller(99)

	for i := 0; i < 20; i++ {
		ra, err := a.Roll(1, 100, 0)
		require.NoError(t, err)
		rb, err := b.Roll(1, 100, 0)
		require.NoError(t, err)

		assert.Equal(t, ra.Total, rb.Total)
		assert.GreaterOrEqual(t, ra.Total, 1)
		assert.LessOrEqual(t, ra.Total, 100)
	}
}
