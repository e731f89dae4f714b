package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/model"
)

type MatchRepo interface {
	Create(ctx context.Context, match *model.Match) error
	GetByID(ctx context.Context, id string) (*model.Match, error)
	Update(ctx context.Context, match *model.Match) error
	// FindActive returns every match still marked ACTIVE, used to rebuild the
	// in-process registry after a restart.
	FindActive(ctx context.Context) ([]*model.Match, error)
	// FindFinishedByPlayer returns finished matches the player took part in.
	FindFinishedByPlayer(ctx context.Context, telegramID int64) ([]*model.Match, error)
}

type matchRepo struct {
	collection *mongo.Collection
}

func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{collection: db.Collection("pvp_matches")}
}

func (r *matchRepo) Create(ctx context.Context, match *model.Match) error {
	_, err := r.collection.InsertOne(ctx, match)
	return err
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.Match, error) {
	var match model.Match
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) Update(ctx context.Context, match *model.Match) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": match.ID}, match)
	return err
}

func (r *matchRepo) FindActive(ctx context.Context) ([]*model.Match, error) {
	return r.findAll(ctx, bson.M{"status": model.MatchStatusActive}, options.Find())
}

func (r *matchRepo) FindFinishedByPlayer(ctx context.Context, telegramID int64) ([]*model.Match, error) {
	filter := bson.M{
		"status": model.MatchStatusFinished,
		"$or": []bson.M{
			{"player1": telegramID},
			{"player2": telegramID},
		},
	}
	return r.findAll(ctx, filter, options.Find())
}

func (r *matchRepo) findAll(ctx context.Context, filter any, opts *options.FindOptions) ([]*model.Match, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var matches []*model.Match
	if err := cur.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
