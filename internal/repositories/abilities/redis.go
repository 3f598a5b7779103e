package abilities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	engerr "github.com/KirkDiggler/rpg-ability-engine/internal/errors"
)

const (
	abilityKeyPrefix = "ability:"
	abilityIndexKey  = "abilities"
)

// Data is the stored form of an ability
type Data struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Range    float64            `json:"range"`
	Duration float64            `json:"duration"`
	APCost   int                `json:"ap_cost"`
	Radius   float64            `json:"radius"`
	Sound    string             `json:"sound,omitempty"`
	Consts   map[string]float64 `json:"consts,omitempty"`
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed ability repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}

	return &redisRepository{
		client: cfg.Client,
	}
}

// NewRedis creates a Redis-backed repository with default configuration
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

// Get retrieves an ability by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*combatant.Ability, error) {
	jsonData, err := r.client.Get(ctx, abilityKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, engerr.NotFoundf("ability not found: %s", id)
		}
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to get ability from Redis")
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, engerr.Wrapf(err, "failed to unmarshal ability %s", id)
	}

	return toAbility(&data), nil
}

// Put creates or replaces an ability
func (r *redisRepository) Put(ctx context.Context, ability *combatant.Ability) error {
	if err := validate(ability); err != nil {
		return err
	}

	jsonData, err := json.Marshal(toData(ability))
	if err != nil {
		return engerr.Wrap(err, "failed to marshal ability data")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, abilityKeyPrefix+ability.ID, string(jsonData), 0)
	pipe.SAdd(ctx, abilityIndexKey, ability.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return engerr.WrapWithCode(err, engerr.CodeUnavailable, fmt.Sprintf("failed to store ability %s in Redis", ability.ID))
	}

	return nil
}

// List returns every stored ability ordered by ID
func (r *redisRepository) List(ctx context.Context) ([]*combatant.Ability, error) {
	ids, err := r.client.SMembers(ctx, abilityIndexKey).Result()
	if err != nil {
		return nil, engerr.WrapWithCode(err, engerr.CodeUnavailable, "failed to list abilities from Redis")
	}
	sort.Strings(ids)

	list := make([]*combatant.Ability, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			ability, err := r.Get(ctx, id)
			if err != nil {
				return engerr.Wrapf(err, "failed to get ability %s", id)
			}
			list[i] = ability
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return list, nil
}

func toData(a *combatant.Ability) *Data {
	return &Data{
		ID:       a.ID,
		Name:     a.Name,
		Range:    a.Range,
		Duration: a.Duration,
		APCost:   a.APCost,
		Radius:   a.Radius,
		Sound:    a.Sound,
		Consts:   a.Consts,
	}
}

func toAbility(data *Data) *combatant.Ability {
	return &combatant.Ability{
		ID:       data.ID,
		Name:     data.Name,
		Range:    data.Range,
		Duration: data.Duration,
		APCost:   data.APCost,
		Radius:   data.Radius,
		Sound:    data.Sound,
		Consts:   data.Consts,
	}
}
