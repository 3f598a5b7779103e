package combatant

// Ability is the static definition of a combat ability. It is read-only
// during an activation.
type Ability struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Range    float64            `json:"range"`    // 0 means unlimited
	Duration float64            `json:"duration"` // base duration of effects it creates
	APCost   int                `json:"ap_cost"`
	Radius   float64            `json:"radius"` // declared shape radius, 0 for single target
	Sound    string             `json:"sound,omitempty"`
	Consts   map[string]float64 `json:"consts,omitempty"`
}

// Const returns a declared per-ability constant or the fallback
func (a *Ability) Const(name string, fallback float64) float64 {
	if v, ok := a.Consts[name]; ok {
		return v
	}
	return fallback
}

// InRange reports whether a distance is within the declared range
func (a *Ability) InRange(distance float64) bool {
	return a.Range <= 0 || distance <= a.Range
}
