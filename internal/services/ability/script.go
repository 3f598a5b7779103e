package ability

import (
	"context"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
)

// ActivateFunc is the on_activate entry point
type ActivateFunc func(ctx context.Context, api *API, actor *combatant.Entity, ability *combatant.Ability) error

// EntryPoint is on_target_select or a custom callback entry point
type EntryPoint func(ctx context.Context, api *API, actor *combatant.Entity, ability *combatant.Ability, targets targeting.Targets) error

// Script is an ability's behavior: named entry points keyed by ability ID
type Script struct {
	ID             string
	OnActivate     ActivateFunc
	OnTargetSelect EntryPoint
	Callbacks      map[string]EntryPoint
}

// Entry looks up a named entry point other than on_activate
func (s *Script) Entry(name string) (EntryPoint, bool) {
	if name == EntryOnTargetSelect {
		return s.OnTargetSelect, s.OnTargetSelect != nil
	}
	fn, ok := s.Callbacks[name]
	return fn, ok && fn != nil
}
