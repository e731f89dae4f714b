package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes every query path relies on. Safe to run
// on each boot; Mongo treats existing indexes as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	players := []mongo.IndexModel{
		{Keys: bson.D{{Key: "telegramId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "soul.current", Value: 1}}},
		{Keys: bson.D{{Key: "soul.lastDecay", Value: 1}}},
		{Keys: bson.D{{Key: "twins.id", Value: 1}}},
		{Keys: bson.D{{Key: "stats.twinCount", Value: 1}}},
		{Keys: bson.D{{Key: "pvp.rating", Value: -1}}},
	}
	if _, err := db.Collection("players").Indexes().CreateMany(ctx, players); err != nil {
		return err
	}

	matches := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "player1", Value: 1}, {Key: "player2", Value: 1}}},
	}
	if _, err := db.Collection("pvp_matches").Indexes().CreateMany(ctx, matches); err != nil {
		return err
	}

	artifacts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "telegramId", Value: 1}}},
		{Keys: bson.D{{Key: "rarity", Value: 1}}},
	}
	if _, err := db.Collection("artifacts").Indexes().CreateMany(ctx, artifacts); err != nil {
		return err
	}

	fame := []mongo.IndexModel{
		{Keys: bson.D{{Key: "diedAt", Value: -1}}},
	}
	_, err := db.Collection("hall_of_fame").Indexes().CreateMany(ctx, fame)
	return err
}
