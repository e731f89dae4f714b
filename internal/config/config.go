package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything read from the environment.
type Config struct {
	BotToken      string `env:"BOT_TOKEN"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"sentinel_echo"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
