package attack

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	"github.com/KirkDiggler/rpg-ability-engine/internal/dice"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
	"github.com/KirkDiggler/rpg-ability-engine/internal/telemetry"
)

// Mode picks how an attack is resolved
type Mode string

const (
	ModeContest  Mode = "contest"  // attacker stat vs a named defense
	ModePhysical Mode = "physical" // accuracy vs defense plus a damage roll
)

// DamageType tags physical damage. Raw damage ignores armor.
type DamageType string

const (
	DamageRaw      DamageType = "raw"
	DamagePiercing DamageType = "piercing"
	DamageSlashing DamageType = "slashing"
	DamageCrushing DamageType = "crushing"
	DamageFire     DamageType = "fire"
	DamageCold     DamageType = "cold"
	DamageShock    DamageType = "shock"
	DamageAcid     DamageType = "acid"
)

// DamageRoll is a uniform damage range
type DamageRoll struct {
	Min  int
	Max  int
	Type DamageType
}

// Request describes one attack. AttackerValue and DefenderValue are the
// effective stats already read from the entities.
type Request struct {
	Attacker      *combatant.Entity
	Defender      *combatant.Entity
	Mode          Mode
	AttackerValue float64
	DefenderValue float64
	Damage        *DamageRoll
}

// Result is the resolved attack
type Result struct {
	Outcome Outcome
	Roll    int
	Margin  float64

	// Physical mode only
	RolledDamage int
	Damage       int
	Armor        float64
	DamageType   DamageType
}

func (r *Result) String() string {
	if r.DamageType == "" {
		return fmt.Sprintf("%s (roll: %d, margin: %.0f)", r.Outcome, r.Roll, r.Margin)
	}
	return fmt.Sprintf("%s (roll: %d, margin: %.0f) for %d %s", r.Outcome, r.Roll, r.Margin, r.Damage, r.DamageType)
}

// Contest builds a stat-contest request from effective stats, e.g. spell
// accuracy against will
func Contest(attacker, defender *combatant.Entity, accuracy, defense effects.BonusKind) *Request {
	return &Request{
		Attacker:      attacker,
		Defender:      defender,
		Mode:          ModeContest,
		AttackerValue: attacker.Stat(accuracy),
		DefenderValue: defender.Stat(defense),
	}
}

// Physical builds an accuracy-vs-defense request with a damage roll
func Physical(attacker, defender *combatant.Entity, accuracy effects.BonusKind, minDamage, maxDamage int, damageType DamageType) *Request {
	return &Request{
		Attacker:      attacker,
		Defender:      defender,
		Mode:          ModePhysical,
		AttackerValue: attacker.Stat(accuracy),
		DefenderValue: defender.Stat(effects.BonusDefense),
		Damage:        &DamageRoll{Min: minDamage, Max: maxDamage, Type: damageType},
	}
}

// Resolver turns attack requests into outcomes. It is pure apart from the
// roller.
type Resolver struct {
	rules  *config.Rules
	roller dice.Roller
	tracer trace.Tracer
}

// ResolverConfig holds the resolver's dependencies
type ResolverConfig struct {
	Rules  *config.Rules
	Roller dice.Roller
	Tracer trace.Tracer
}

// NewResolver creates a resolver. Missing rules fall back to the defaults.
func NewResolver(cfg *ResolverConfig) *Resolver {
	if cfg == nil || cfg.Roller == nil {
		panic("attack resolver requires a roller")
	}

	r := &Resolver{
		rules:  cfg.Rules,
		roller: cfg.Roller,
		tracer: cfg.Tracer,
	}
	if r.rules == nil {
		r.rules = config.DefaultRules()
	}
	if r.tracer == nil {
		r.tracer = telemetry.NoopTracer()
	}
	return r
}

// Rules returns the thresholds in use
func (r *Resolver) Rules() *config.Rules {
	return r.rules
}

// Resolve rolls a percentile and classifies the margin against the rules
// thresholds
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.Attacker == nil || req.Defender == nil {
		return nil, engerr.InvalidArgumentf("attack needs an attacker and a defender")
	}

	_, span := r.tracer.Start(ctx, "attack.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("attack.mode", string(req.Mode)),
		attribute.String("attack.attacker", req.Attacker.ID),
		attribute.String("attack.defender", req.Defender.ID),
	)

	switch req.Mode {
	case ModeContest:
	case ModePhysical:
		if req.Damage == nil {
			return nil, engerr.InvalidArgumentf("physical attack needs a damage roll")
		}
		if req.Damage.Min < 0 || req.Damage.Max < req.Damage.Min {
			return nil, engerr.InvalidArgumentf("invalid damage range %d-%d", req.Damage.Min, req.Damage.Max)
		}
	default:
		return nil, engerr.InvalidArgumentf("unknown attack mode %q", req.Mode)
	}

	roll, err := dice.Percentile(r.roller)
	if err != nil {
		span.RecordError(err)
		return nil, engerr.Wrap(err, "failed to roll attack")
	}

	result := &Result{
		Roll:    roll,
		Outcome: r.classify(float64(roll), req.AttackerValue, req.DefenderValue),
		Margin:  float64(roll) + req.AttackerValue - req.DefenderValue,
	}

	if req.Mode == ModePhysical {
		if err := r.rollDamage(req, result); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("attack.roll", roll),
		attribute.String("attack.outcome", result.Outcome.String()),
	)
	return result, nil
}

func (r *Resolver) classify(roll, attacker, defender float64) Outcome {
	if roll+attacker < defender {
		return Miss
	}

	margin := roll + attacker - defender
	switch {
	case margin >= float64(r.rules.CritPercentile):
		return Crit
	case margin >= float64(r.rules.HitPercentile):
		return Hit
	case margin >= float64(r.rules.GrazePercentile):
		return Graze
	default:
		return Miss
	}
}

func (r *Resolver) rollDamage(req *Request, result *Result) error {
	result.DamageType = req.Damage.Type
	if !result.Outcome.Applies() {
		return nil
	}

	rolled, err := dice.Between(r.roller, req.Damage.Min, req.Damage.Max)
	if err != nil {
		return engerr.Wrap(err, "failed to roll damage")
	}
	result.RolledDamage = rolled

	damage := result.Outcome.Scale(float64(rolled))
	if req.Damage.Type != DamageRaw {
		result.Armor = req.Defender.Stat(effects.BonusArmor)
		damage -= result.Armor
	}
	if damage < 0 {
		damage = 0
	}
	result.Damage = int(damage + 0.5)
	return nil
}
