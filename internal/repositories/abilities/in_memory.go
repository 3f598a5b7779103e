package abilities

import (
	"context"
	"sort"
	"sync"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

type inMemoryRepository struct {
	mu        sync.RWMutex
	abilities map[string]*combatant.Ability
}

// NewInMemoryRepository creates a new in-memory ability repository
func NewInMemoryRepository(seed ...*combatant.Ability) Repository {
	r := &inMemoryRepository{
		abilities: make(map[string]*combatant.Ability),
	}
	for _, a := range seed {
		if a != nil && a.ID != "" {
			r.abilities[a.ID] = copyAbility(a)
		}
	}
	return r
}

// Get retrieves an ability by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combatant.Ability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ability, exists := r.abilities[id]
	if !exists {
		return nil, engerr.NotFoundf("ability not found: %s", id)
	}

	return copyAbility(ability), nil
}

// Put creates or replaces an ability
func (r *inMemoryRepository) Put(ctx context.Context, ability *combatant.Ability) error {
	if err := validate(ability); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.abilities[ability.ID] = copyAbility(ability)
	return nil
}

// List returns every stored ability ordered by ID
func (r *inMemoryRepository) List(ctx context.Context) ([]*combatant.Ability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*combatant.Ability, 0, len(r.abilities))
	for _, ability := range r.abilities {
		list = append(list, copyAbility(ability))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	return list, nil
}

func validate(ability *combatant.Ability) error {
	if ability == nil {
		return engerr.InvalidArgumentf("ability cannot be nil")
	}
	if ability.ID == "" {
		return engerr.InvalidArgumentf("ability ID cannot be empty")
	}
	if ability.APCost < 0 {
		return engerr.InvalidArgumentf("ability %s has negative AP cost %d", ability.ID, ability.APCost)
	}
	return nil
}

// copyAbility keeps callers from mutating stored definitions
func copyAbility(a *combatant.Ability) *combatant.Ability {
	c := *a
	if a.Consts != nil {
		c.Consts = make(map[string]float64, len(a.Consts))
		for k, v := range a.Consts {
			c.Consts[k] = v
		}
	}
	return &c
}
