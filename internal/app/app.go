package app

import (
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"sentinel-echo/internal/cache"
	"sentinel-echo/internal/config"
	"sentinel-echo/internal/repository"
	"sentinel-echo/internal/service"
)

// App wires repositories, caches and services together.
type App struct {
	Rules *config.Rules

	Players   repository.PlayerRepo
	Artifacts repository.ArtifactRepo
	Matches   repository.MatchRepo
	Fame      repository.FameRepo

	Leaderboard cache.LeaderboardCache

	Queue    *service.Queue
	Registry *service.MatchRegistry

	Soul  *service.SoulService
	Twins *service.TwinService
	PvP   *service.PvPService
	Game  *service.GameService
}

// New builds the full dependency graph. rdb may be nil; the leaderboard
// mirror is optional.
func New(db *mongo.Database, rdb *redis.Client, rules *config.Rules) *App {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	players := repository.NewPlayerRepo(db)
	artifacts := repository.NewArtifactRepo(db)
	matches := repository.NewMatchRepo(db)
	fame := repository.NewFameRepo(db)

	queue := service.NewQueue()
	registry := service.NewMatchRegistry()

	soul := service.NewSoulService(players, fame, rules)
	twins := service.NewTwinService(players, rules, rng)
	pvp := service.NewPvPService(players, matches, soul, rules, queue, registry, rng)
	game := service.NewGameService(players, artifacts, soul, twins, rules, rng)

	a := &App{
		Rules:     rules,
		Players:   players,
		Artifacts: artifacts,
		Matches:   matches,
		Fame:      fame,
		Queue:     queue,
		Registry:  registry,
		Soul:      soul,
		Twins:     twins,
		PvP:       pvp,
		Game:      game,
	}

	if rdb != nil {
		a.Leaderboard = cache.NewLeaderboardCache(rdb)
		soul.SetLeaderboard(a.Leaderboard)
		pvp.SetLeaderboard(a.Leaderboard)
	}
	return a
}
