package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/model"
)

type FameRepo interface {
	Insert(ctx context.Context, record *model.FameRecord) error
	// Delete removes a record. Only used to compensate a failed permanent
	// death: the archive must never hold a player who was not reset.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]*model.FameRecord, error)
}

type fameRepo struct {
	collection *mongo.Collection
}

func NewFameRepo(db *mongo.Database) FameRepo {
	return &fameRepo{collection: db.Collection("hall_of_fame")}
}

func (r *fameRepo) Insert(ctx context.Context, record *model.FameRecord) error {
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

func (r *fameRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *fameRepo) List(ctx context.Context, limit int) ([]*model.FameRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "diedAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []*model.FameRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
