package attack

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Outcome is the ordered result of an attack roll: Miss < Graze < Hit < Crit
type Outcome int

const (
	Miss Outcome = iota
	Graze
	Hit
	Crit
)

var outcomeNames = map[Outcome]string{
	Miss:  "miss",
	Graze: "graze",
	Hit:   "hit",
	Crit:  "crit",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Label is the display form used in feedback text
func (o Outcome) Label() string {
	return cases.Title(language.English).String(o.String())
}

// Multiplier is the fixed scaling factor for the outcome
func (o Outcome) Multiplier() float64 {
	switch o {
	case Graze:
		return 0.5
	case Hit:
		return 1.0
	case Crit:
		return 1.5
	default:
		return 0
	}
}

// Scale applies the outcome's multiplier to a magnitude
func (o Outcome) Scale(magnitude float64) float64 {
	return magnitude * o.Multiplier()
}

// ScaleInt scales and rounds half away from zero
func (o Outcome) ScaleInt(magnitude int) int {
	return int(math.Round(o.Scale(float64(magnitude))))
}

// Applies reports whether the outcome carries any effect. A miss applies
// nothing.
func (o Outcome) Applies() bool {
	return o > Miss
}
