package render

import (
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
)

// DistKind is how a particle parameter is sampled
type DistKind string

const (
	DistFixed   DistKind = "fixed"
	DistUniform DistKind = "uniform"
)

// Dist is a particle parameter distribution. Sampling happens in the
// renderer; the engine only carries the description.
type Dist struct {
	Kind DistKind
	Min  float64
	Max  float64
}

// Fixed is a constant distribution
func Fixed(v float64) Dist {
	return Dist{Kind: DistFixed, Min: v, Max: v}
}

// Uniform is a uniform distribution over [lo, hi]
func Uniform(lo, hi float64) Dist {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Dist{Kind: DistUniform, Min: lo, Max: hi}
}

// Well-known generator parameters
const (
	ParamSize     = "size"
	ParamRotation = "rotation"
	ParamSpread   = "spread"
)

// ParticleGenerator is an animation handle with a finite duration. Its ID and
// owner make it a callback trigger.
type ParticleGenerator struct {
	id       string
	ownerID  string
	Duration float64
	Elapsed  float64
	Sprite   string

	Position combatant.Position
	VX       Dist
	VY       Dist
	params   map[string]Dist

	active bool
	done   bool // completed or cancelled
}

// ID identifies the generator
func (g *ParticleGenerator) ID() string { return g.id }

// OwnerID is the entity whose removal cancels the generator
func (g *ParticleGenerator) OwnerID() string { return g.ownerID }

// SetPosition places the generator
func (g *ParticleGenerator) SetPosition(x, y float64) {
	g.Position = combatant.Position{X: x, Y: y}
}

// SetVelocity sets the particle velocity distributions
func (g *ParticleGenerator) SetVelocity(vx, vy Dist) {
	g.VX = vx
	g.VY = vy
}

// SetParam sets a named parameter distribution
func (g *ParticleGenerator) SetParam(name string, d Dist) {
	g.params[name] = d
}

// Param returns a named parameter distribution
func (g *ParticleGenerator) Param(name string) (Dist, bool) {
	d, ok := g.params[name]
	return d, ok
}

// IsActive reports whether the generator is playing
func (g *ParticleGenerator) IsActive() bool { return g.active }

// IsPending reports whether the generator can still complete: it is waiting
// for activation or playing
func (g *ParticleGenerator) IsPending() bool { return !g.done }

// Remaining returns the time left before completion
func (g *ParticleGenerator) Remaining() float64 {
	if r := g.Duration - g.Elapsed; r > 0 {
		return r
	}
	return 0
}
