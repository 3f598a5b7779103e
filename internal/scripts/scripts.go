// Package scripts holds the built-in ability scripts and their static
// definitions.
package scripts

import (
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/services/ability"
)

// Ability IDs
const (
	SlowID       = "slow"
	ArcaneBoltID = "arcane_bolt"
)

// Definitions returns the static data of every built-in ability
func Definitions() []*combatant.Ability {
	return []*combatant.Ability{
		{
			ID:       SlowID,
			Name:     "Slow",
			Range:    12,
			Duration: 6,
			APCost:   30,
			Sound:    "slow_cast",
			Consts: map[string]float64{
				constBaseAPPenalty: 2,
				constMoveAnimRate:  -0.3,
			},
		},
		{
			ID:     ArcaneBoltID,
			Name:   "Arcane Bolt",
			Range:  15,
			APCost: 20,
			Sound:  "bolt_fire",
			Consts: map[string]float64{
				constMinDamage: 4,
				constMaxDamage: 8,
				constBoltSpeed: 10,
			},
		},
	}
}

// Scripts returns every built-in script
func Scripts() []*ability.Script {
	return []*ability.Script{
		Slow(),
		ArcaneBolt(),
	}
}

// Register adds every built-in script to a registry
func Register(registry *ability.ScriptRegistry) error {
	for _, script := range Scripts() {
		if err := registry.Register(script); err != nil {
			return err
		}
	}
	return nil
}
