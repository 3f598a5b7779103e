package scripts

import (
	"context"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/attack"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
	"github.com/KirkDiggler/rpg-ability-engine/internal/services/ability"
)

const (
	constMinDamage = "min_damage"
	constMaxDamage = "max_damage"
	constBoltSpeed = "speed"

	entryOnHit = "on_hit"
)

// ArcaneBolt launches a projectile at one hostile target. The damage roll
// happens when the projectile lands, against the target captured at launch.
func ArcaneBolt() *ability.Script {
	return &ability.Script{
		ID:             ArcaneBoltID,
		OnActivate:     openHostileTargeter,
		OnTargetSelect: launchBolt,
		Callbacks: map[string]ability.EntryPoint{
			entryOnHit: boltHit,
		},
	}
}

func launchBolt(ctx context.Context, api *ability.API, actor *combatant.Entity, def *combatant.Ability, targets targeting.Targets) error {
	target, err := targets.First()
	if err != nil {
		return err
	}

	speed := def.Const(constBoltSpeed, 10)
	dist := actor.DistanceTo(target)

	gen, err := api.NewParticleGenerator(actor, dist/speed)
	if err != nil {
		return err
	}
	gen.Sprite = "particles/arcane_bolt"
	gen.SetPosition(actor.Position.X, actor.Position.Y)
	if dist > 0 {
		dx := (target.Position.X - actor.Position.X) / dist * speed
		dy := (target.Position.Y - actor.Position.Y) / dist * speed
		gen.SetVelocity(render.Fixed(dx), render.Fixed(dy))
	}
	gen.SetParam(render.ParamSize, render.Fixed(0.5))

	cb, err := api.RegisterCallback(targeting.NewTargets(target), entryOnHit)
	if err != nil {
		return err
	}
	if err := api.BindCallback(ctx, cb, gen); err != nil {
		return err
	}

	api.PlaySound(def.Sound)
	return api.ActivateGenerator(gen)
}

func boltHit(ctx context.Context, api *ability.API, actor *combatant.Entity, def *combatant.Ability, targets targeting.Targets) error {
	minDamage := int(def.Const(constMinDamage, 4))
	maxDamage := int(def.Const(constMaxDamage, 8))

	api.ForEachTarget(targets, func(target *combatant.Entity) error {
		result, err := api.Attack(ctx, attack.Physical(actor, target, effects.BonusRangedAccuracy, minDamage, maxDamage, attack.DamageShock))
		if err != nil {
			return err
		}
		api.Logger().WithField("target_id", target.ID).Infof("Arcane bolt: %s", result)
		return nil
	})
	return nil
}
