package testutils

import (
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
)

// CreateTestEntity creates an entity at a position with the given base stats
func CreateTestEntity(id, name string, faction combatant.Faction, x, y float64, stats map[effects.BonusKind]float64) *combatant.Entity {
	e := combatant.New(id, name, faction, 20, stats)
	e.Position = combatant.Position{X: x, Y: y}
	return e
}

// CreateTestMage creates a player caster with a full AP pool
func CreateTestMage(id string, x, y float64) *combatant.Entity {
	mage := CreateTestEntity(id, "Mage", combatant.FactionPlayer, x, y, map[effects.BonusKind]float64{
		effects.BonusAP:             100,
		effects.BonusIntellect:      20,
		effects.BonusSpellAccuracy:  40,
		effects.BonusRangedAccuracy: 40,
		effects.BonusMeleeAccuracy:  10,
		effects.BonusDefense:        20,
		effects.BonusWill:           30,
	})
	mage.RefillAP()
	return mage
}

// CreateTestGoblin creates a hostile target with even defenses
func CreateTestGoblin(id string, x, y float64) *combatant.Entity {
	return CreateTestEntity(id, "Goblin", combatant.FactionHostile, x, y, map[effects.BonusKind]float64{
		effects.BonusAP:        100,
		effects.BonusDefense:   40,
		effects.BonusWill:      40,
		effects.BonusReflex:    40,
		effects.BonusFortitude: 40,
		effects.BonusArmor:     0,
	})
}

// CreateTestAbility creates an ability definition
func CreateTestAbility(id, name string, rangeLimit, duration float64, apCost int) *combatant.Ability {
	return &combatant.Ability{
		ID:       id,
		Name:     name,
		Range:    rangeLimit,
		Duration: duration,
		APCost:   apCost,
	}
}
