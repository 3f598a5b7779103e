package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/rpg-ability-engine/internal/config"
	"github.com/KirkDiggler/rpg-ability-engine/internal/dice"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/combatant"
	"github.com/KirkDiggler/rpg-ability-engine/internal/domain/targeting"
	"github.com/KirkDiggler/rpg-ability-engine/internal/effects"
	"github.com/KirkDiggler/rpg-ability-engine/internal/engine"
	"github.com/KirkDiggler/rpg-ability-engine/internal/events"
	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
	"github.com/KirkDiggler/rpg-ability-engine/internal/render"
	"github.com/KirkDiggler/rpg-ability-engine/internal/repositories/abilities"
	"github.com/KirkDiggler/rpg-ability-engine/internal/scripts"
	"github.com/KirkDiggler/rpg-ability-engine/internal/services/ability"
	"github.com/KirkDiggler/rpg-ability-engine/internal/telemetry"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	rounds := flag.Int("rounds", 5, "Number of rounds to simulate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(cfg.Log.Level, cfg.Log.Format)

	rules, err := config.LoadRules(cfg.Engine.RulesPath)
	if err != nil {
		lg.WithError(err).Fatal("Failed to load rules")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			lg.WithError(err).Warn("Failed to set up telemetry, continuing without tracing")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					lg.WithError(err).Warn("Failed to flush telemetry")
				}
			}()
		}
	}

	repo, closeRepo := abilityRepository(ctx, cfg, lg)
	defer closeRepo()

	registry := ability.NewScriptRegistry()
	if err := scripts.Register(registry); err != nil {
		lg.WithError(err).Fatal("Failed to register scripts")
	}

	roller := dice.NewRandomRoller()
	if cfg.Engine.Seed != 0 {
		roller = dice.NewSeededRoller(cfg.Engine.Seed)
	}

	backend := render.NewLogBackend(lg)
	bus := events.NewBus(lg)
	bus.Subscribe(events.NewLogListener(lg), events.AllEventTypes...)

	eng := engine.New(&engine.Config{
		Rules:      rules,
		Roller:     roller,
		Abilities:  repo,
		Scripts:    registry,
		Backend:    backend,
		Sounds:     backend.Sounds(),
		Bus:        bus,
		Logger:     lg,
		Tracer:     telemetry.Tracer("engine"),
		SightRange: cfg.Engine.SightRange,
	})

	if err := runEncounter(ctx, eng, lg, cfg.Engine.TickSize, *rounds); err != nil {
		lg.WithError(err).Error("Encounter stopped")
		os.Exit(1)
	}
}

// abilityRepository returns the Redis store when REDIS_URL is set and
// reachable, otherwise an in-memory store. Either way it is seeded with the
// built-in definitions.
func abilityRepository(ctx context.Context, cfg *config.Config, lg *logrus.Logger) (abilities.Repository, func()) {
	var repo abilities.Repository = abilities.NewInMemoryRepository()
	closeFn := func() {}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			lg.WithError(err).Warn("Failed to parse Redis URL, falling back to in-memory store")
		} else {
			client := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx).Err()
			cancel()

			if err != nil {
				lg.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory store")
				_ = client.Close()
			} else {
				lg.Info("Using Redis ability store")
				repo = abilities.NewRedis(client)
				closeFn = func() {
					if err := client.Close(); err != nil {
						lg.WithError(err).Warn("Failed to close Redis connection")
					}
				}
			}
		}
	}

	for _, def := range scripts.Definitions() {
		if err := repo.Put(ctx, def); err != nil {
			lg.WithError(err).WithField("ability_id", def.ID).Fatal("Failed to seed ability")
		}
	}
	return repo, closeFn
}

func runEncounter(ctx context.Context, eng *engine.Engine, lg *logrus.Logger, tick float64, rounds int) error {
	mage := combatant.New("mage", "Mage", combatant.FactionPlayer, 20, map[effects.BonusKind]float64{
		effects.BonusAP:             float64(eng.Rules().BaseAP),
		effects.BonusIntellect:      40,
		effects.BonusSpellAccuracy:  45,
		effects.BonusRangedAccuracy: 40,
		effects.BonusDefense:        20,
		effects.BonusWill:           30,
	})
	party := []*combatant.Entity{mage}
	hostiles := []*combatant.Entity{
		goblin("goblin-1", 4, 1),
		goblin("goblin-2", 6, -2),
	}

	for _, e := range append(party, hostiles...) {
		if err := eng.AddEntity(e); err != nil {
			return err
		}
	}

	svc := eng.Abilities()
	known, err := svc.Abilities(ctx, []string{scripts.SlowID, scripts.ArcaneBoltID})
	if err != nil {
		return err
	}

	for round := 1; round <= rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining := livingHostiles(hostiles)
		if len(remaining) == 0 {
			fmt.Printf("All hostiles defeated after %d rounds\n", round-1)
			return nil
		}

		ap, err := eng.BeginTurn(ctx, mage.ID)
		if err != nil {
			return err
		}
		lg.WithFields(logrus.Fields{"round": round, "ap": ap}).Info("Round started")

		for _, def := range known {
			if !mage.HasAP(def.APCost) {
				continue
			}
			if err := castAtFirstCandidate(ctx, svc, mage, def); err != nil {
				lg.WithError(err).WithField("ability_id", def.ID).Warn("Cast failed")
			}
		}

		if _, err := eng.Run(ctx, tick, 10); err != nil {
			return err
		}
		for _, h := range livingHostiles(hostiles) {
			hostileAP, err := eng.BeginTurn(ctx, h.ID)
			if err != nil {
				return err
			}
			fmt.Printf("round %d: %s hp=%d ap=%d\n", round, h.Name, h.HP, hostileAP)
		}

		// rest of the round
		for i := 0; i < int(1/tick); i++ {
			if err := eng.Tick(ctx, tick); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Encounter over, still standing: %v\n", eng.Living())
	return nil
}

func castAtFirstCandidate(ctx context.Context, svc ability.Service, actor *combatant.Entity, def *combatant.Ability) error {
	activated, err := svc.Activate(ctx, actor.ID, def.ID)
	if err != nil {
		return err
	}
	if activated.Targeter == nil {
		return nil
	}

	target, err := activated.Targeter.Selectable().First()
	if err != nil {
		return svc.CancelTargeting(ctx, actor.ID)
	}
	_, err = svc.SelectTargets(ctx, actor.ID, targeting.SelectEntity(target))
	return err
}

func goblin(id string, x, y float64) *combatant.Entity {
	g := combatant.New(id, "Goblin "+id[len(id)-1:], combatant.FactionHostile, 12, map[effects.BonusKind]float64{
		effects.BonusAP:      100,
		effects.BonusDefense: 35,
		effects.BonusWill:    30,
		effects.BonusArmor:   1,
	})
	g.Position = combatant.Position{X: x, Y: y}
	return g
}

func livingHostiles(hostiles []*combatant.Entity) []*combatant.Entity {
	var living []*combatant.Entity
	for _, h := range hostiles {
		if h.IsAlive() {
			living = append(living, h)
		}
	}
	return living
}
