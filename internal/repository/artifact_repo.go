package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/model"
)

type ArtifactRepo interface {
	Create(ctx context.Context, artifact *model.Artifact) error
	GetByID(ctx context.Context, id string) (*model.Artifact, error)
	ListByOwner(ctx context.Context, telegramID int64, limit int) ([]*model.Artifact, error)
}

type artifactRepo struct {
	collection *mongo.Collection
}

func NewArtifactRepo(db *mongo.Database) ArtifactRepo {
	return &artifactRepo{collection: db.Collection("artifacts")}
}

func (r *artifactRepo) Create(ctx context.Context, artifact *model.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, artifact)
	return err
}

func (r *artifactRepo) GetByID(ctx context.Context, id string) (*model.Artifact, error) {
	var artifact model.Artifact
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&artifact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

func (r *artifactRepo) ListByOwner(ctx context.Context, telegramID int64, limit int) ([]*model.Artifact, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "foundAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.collection.Find(ctx, bson.M{"telegramId": telegramID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var artifacts []*model.Artifact
	if err := cur.All(ctx, &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}
