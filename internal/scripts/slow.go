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
	constBaseAPPenalty = "base_ap_penalty"
	constMoveAnimRate  = "move_anim_rate"

	// SlowTag marks the slow effect; a target carries at most one
	SlowTag = "slow"
)

// Slow contests spell accuracy against will. On any non-miss the target
// loses AP scaled by the outcome and moves slower for the ability's duration.
// A new slow replaces an existing one once it has been applied; if it cannot
// be applied the old one stays.
func Slow() *ability.Script {
	return &ability.Script{
		ID:             SlowID,
		OnActivate:     openHostileTargeter,
		OnTargetSelect: slowTargets,
	}
}

func openHostileTargeter(ctx context.Context, api *ability.API, actor *combatant.Entity, _ *combatant.Ability) error {
	t, err := api.NewTargeter(targeting.WithVisibilityRequired())
	if err != nil {
		return err
	}

	candidates := api.Candidates(t, targeting.FilterHostile)
	if err := t.SetSelectable(candidates); err != nil {
		return err
	}
	if err := t.SetEffectable(candidates); err != nil {
		return err
	}
	return api.ActivateTargeter(ctx, t)
}

func slowTargets(ctx context.Context, api *ability.API, actor *combatant.Entity, def *combatant.Ability, targets targeting.Targets) error {
	target, err := targets.First()
	if err != nil {
		return err
	}
	api.PlaySound(def.Sound)

	result, err := api.Attack(ctx, attack.Contest(actor, target, effects.BonusSpellAccuracy, effects.BonusWill))
	if err != nil {
		return err
	}
	if !result.Outcome.Applies() {
		api.Logger().WithField("target_id", target.ID).Info("Slow missed")
		return nil
	}

	effect, err := api.CreateEffect(target, def.Duration)
	if err != nil {
		return err
	}

	penalty := def.Const(constBaseAPPenalty, 2) + actor.Stat(effects.BonusIntellect)/20.0
	apBonus := -penalty * float64(api.Rules().DisplayAP)
	if err := effect.AddNumBonus(effects.BonusAP, result.Outcome.Scale(apBonus)); err != nil {
		return err
	}
	if err := effect.AddNumBonus(effects.BonusMoveAnimRate, def.Const(constMoveAnimRate, -0.3)); err != nil {
		return err
	}
	if err := effect.SetTag(SlowTag); err != nil {
		return err
	}

	gen := slowAnimation(api, target, effect)

	if err := api.ApplyEffect(effect); err != nil {
		return err
	}

	// the new slow replaces older ones only once it is in place
	for _, old := range target.Effects().WithTag(SlowTag) {
		if old.ID != effect.ID {
			api.RemoveEffect(target, old.ID)
		}
	}

	if gen != nil {
		if err := api.ActivateGenerator(gen); err != nil {
			api.Logger().WithError(err).Warn("Slow animation failed to start")
		}
	}
	return nil
}

// slowAnimation attaches particles to the effect. The effect does not depend
// on them, so a failure is only logged.
func slowAnimation(api *ability.API, target *combatant.Entity, effect *effects.Effect) *render.ParticleGenerator {
	gen, err := api.NewParticleGenerator(target, effect.Duration)
	if err != nil {
		api.Logger().WithError(err).Warn("Slow animation unavailable")
		return nil
	}
	gen.SetPosition(target.Position.X, target.Position.Y)
	gen.SetVelocity(render.Uniform(-0.2, 0.2), render.Uniform(-0.5, -0.1))
	gen.SetParam(render.ParamSize, render.Uniform(0.3, 0.6))
	gen.Sprite = "particles/slow"
	if err := effect.SetAnimation(gen.ID()); err != nil {
		api.Logger().WithError(err).Warn("Slow animation could not be attached")
	}
	return gen
}
