package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller is the single source of randomness for combat resolution.
// Tests inject a mock so every roll is predetermined.
type Roller interface {
	// Roll rolls count dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)
}

// RollResult holds the outcome of a roll
type RollResult struct {
	Total    int
	RawTotal int
	Rolls    []int
	Bonus    int
	Count    int
	Sides    int
}

// Percentile rolls a single d100
func Percentile(r Roller) (int, error) {
	result, err := r.Roll(1, 100, 0)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// Between rolls a uniform integer in [lo, hi]. A degenerate range returns lo
// without consuming a roll.
func Between(r Roller, lo, hi int) (int, error) {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return lo, nil
	}

	result, err := r.Roll(1, hi-lo+1, lo-1)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}
