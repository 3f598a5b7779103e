package abilities

//go:generate mockgen -destination=mock/mock_repository.go -package=mockabilities -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
)

// Repository stores static ability definitions
type Repository interface {
	// Get retrieves an ability by ID
	Get(ctx context.Context, id string) (*combatant.Ability, error)

	// Put creates or replaces an ability
	Put(ctx context.Context, ability *combatant.Ability) error

	// List returns every stored ability ordered by ID
	List(ctx context.Context) ([]*combatant.Ability, error)
}
