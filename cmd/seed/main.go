package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
	"sentinel-echo/internal/repository"
)

// Seeds a handful of demo players so matchmaking and twin assignment have
// someone to work with on a fresh database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	rules := config.DefaultRules()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	players := repository.NewPlayerRepo(db)

	now := time.Now()
	seeds := []struct {
		id       int64
		username string
		level    int
		rating   int
	}{
		{1000001, "echo_prime", 7, 1250},
		{1000002, "null_sector", 4, 620},
		{1000003, "ghost_relay", 2, 180},
		{1000004, "cold_cipher", 9, 2100},
	}

	for _, s := range seeds {
		existing, err := players.GetByID(ctx, s.id)
		if err != nil {
			log.Fatalf("Lookup %s: %v", s.username, err)
		}
		if existing != nil {
			fmt.Printf("skip %s (exists)\n", s.username)
			continue
		}

		step := rules.Levels[s.level-1]
		player := &model.Player{
			TelegramID:      s.id,
			Username:        s.username,
			Stars:           rules.Game.StartStars * s.level,
			Energy:          step.MaxEnergy,
			MaxEnergy:       step.MaxEnergy,
			Level:           s.level,
			Experience:      step.ExpNeeded,
			LastEnergyRegen: now,
			Soul: &model.Soul{
				Current:   rules.Soul.Max,
				Max:       rules.Soul.Max,
				LastDecay: now,
			},
			PvP:       model.PvPStats{Rating: s.rating},
			CreatedAt: now.Add(-time.Duration(s.level) * 24 * time.Hour),
		}
		if err := players.Create(ctx, player); err != nil {
			log.Fatalf("Seed %s: %v", s.username, err)
		}
		fmt.Printf("seeded %s (lvl %d, rating %d)\n", s.username, s.level, s.rating)
	}

	fmt.Println("done")
}
