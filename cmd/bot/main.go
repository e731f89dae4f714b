package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/app"
	"sentinel-echo/internal/config"
	"sentinel-echo/internal/repository"
	"sentinel-echo/internal/transport/rest"
	"sentinel-echo/internal/transport/telegram"
)

func main() {
	log.Println("started")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	rules := config.DefaultRules()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	// Redis connection; the game runs without it, just slower top listings.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("Redis unavailable, leaderboard mirror disabled: %v", err)
		rdb = nil
	} else {
		log.Println("Connected to Redis")
		defer rdb.Close()
	}

	a := app.New(db, rdb, rules)

	// Backfill the soul system onto records that predate it.
	migrated, err := a.Players.BackfillSouls(ctx, rules.Soul.Max, time.Now())
	if err != nil {
		log.Fatal("Soul migration failed:", err)
	}
	if migrated > 0 {
		log.Printf("Soul migration: %d players backfilled", migrated)
	}

	// Restore in-flight matches so a restart doesn't strand anyone.
	restored, err := a.Registry.Load(ctx, a.Matches)
	if err != nil {
		log.Fatal("Match registry reload failed:", err)
	}
	log.Printf("Match registry restored: %d active matches", restored)

	// Telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("Failed to create bot:", err)
	}
	log.Printf("Bot authorized on account %s", api.Self.UserName)

	bot := telegram.NewBot(api, a.Game, a.Soul, a.Twins, a.PvP, a.Players, rules)
	go bot.Run(ctx)

	// Background sweeps
	go runSweeps(ctx, a)

	// Admin read API
	router := rest.NewRouter(&rest.Container{
		SoulService: a.Soul,
		PvPService:  a.PvP,
		Leaderboard: a.Leaderboard,
	})
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}
	go func() {
		log.Printf("Admin API listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Exited")
}

// runSweeps drives the periodic maintenance loops: stale matches become
// draws, overdue souls decay, expired rescue requests are dropped.
func runSweeps(ctx context.Context, a *app.App) {
	matchTicker := time.NewTicker(time.Minute)
	soulTicker := time.NewTicker(time.Hour)
	defer matchTicker.Stop()
	defer soulTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-matchTicker.C:
			if n, err := a.PvP.SweepStale(ctx); err != nil {
				log.Printf("stale match sweep: %v", err)
			} else if n > 0 {
				log.Printf("stale match sweep: %d matches closed", n)
			}
		case <-soulTicker.C:
			if n, err := a.Soul.SweepDecay(ctx); err != nil {
				log.Printf("decay sweep: %v", err)
			} else if n > 0 {
				log.Printf("decay sweep: %d souls settled", n)
			}
			if n, err := a.Soul.PruneRescueRequests(ctx); err != nil {
				log.Printf("rescue request prune: %v", err)
			} else if n > 0 {
				log.Printf("rescue request prune: %d requests dropped", n)
			}
		}
	}
}
