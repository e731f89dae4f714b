package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sentinel-echo/internal/model"
)

type PlayerRepo interface {
	Create(ctx context.Context, player *model.Player) error
	GetByID(ctx context.Context, telegramID int64) (*model.Player, error)
	GetByUsername(ctx context.Context, username string) (*model.Player, error)
	Update(ctx context.Context, player *model.Player) error

	// GetOriginalOf resolves the original that lists twinID among its twins.
	GetOriginalOf(ctx context.Context, twinID int64) (*model.Player, error)
	// FindTwinCandidates returns up to limit players (excluding exclude) with
	// fewer than maxTwins shadows, fewest first.
	FindTwinCandidates(ctx context.Context, exclude int64, maxTwins, limit int) ([]*model.Player, error)

	// FindByRatingRange returns players inside a rating bracket, highest first.
	FindByRatingRange(ctx context.Context, min, max int) ([]*model.Player, error)
	// TopSouls returns living players ordered by soul, then level.
	TopSouls(ctx context.Context, limit int) ([]*model.Player, error)
	// FindDecayDue returns players whose last decay settlement is older than
	// before.
	FindDecayDue(ctx context.Context, before time.Time, limit int) ([]*model.Player, error)

	// PruneExpiredRescues drops rescue requests past their expiry.
	PruneExpiredRescues(ctx context.Context, now time.Time) (int64, error)
	// BackfillSouls initializes the soul sub-document on records that predate
	// the soul system. Returns how many were migrated.
	BackfillSouls(ctx context.Context, soulMax int, now time.Time) (int64, error)
}

type playerRepo struct {
	collection *mongo.Collection
}

func NewPlayerRepo(db *mongo.Database) PlayerRepo {
	return &playerRepo{collection: db.Collection("players")}
}

func (r *playerRepo) Create(ctx context.Context, player *model.Player) error {
	_, err := r.collection.InsertOne(ctx, player)
	return err
}

func (r *playerRepo) GetByID(ctx context.Context, telegramID int64) (*model.Player, error) {
	var player model.Player
	err := r.collection.FindOne(ctx, bson.M{"telegramId": telegramID}).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) GetByUsername(ctx context.Context, username string) (*model.Player, error) {
	filter := bson.M{"username": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(username) + "$",
		Options: "i",
	}}
	var player model.Player
	err := r.collection.FindOne(ctx, filter).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) Update(ctx context.Context, player *model.Player) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"telegramId": player.TelegramID}, player)
	return err
}

func (r *playerRepo) GetOriginalOf(ctx context.Context, twinID int64) (*model.Player, error) {
	var player model.Player
	err := r.collection.FindOne(ctx, bson.M{"twins.id": twinID}).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) FindTwinCandidates(ctx context.Context, exclude int64, maxTwins, limit int) ([]*model.Player, error) {
	filter := bson.M{
		"telegramId":      bson.M{"$ne": exclude},
		"stats.twinCount": bson.M{"$lt": maxTwins},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "stats.twinCount", Value: 1}}).
		SetLimit(int64(limit))
	return r.findAll(ctx, filter, opts)
}

func (r *playerRepo) FindByRatingRange(ctx context.Context, min, max int) ([]*model.Player, error) {
	filter := bson.M{"pvp.rating": bson.M{"$gte": min, "$lte": max}}
	opts := options.Find().SetSort(bson.D{{Key: "pvp.rating", Value: -1}})
	return r.findAll(ctx, filter, opts)
}

func (r *playerRepo) TopSouls(ctx context.Context, limit int) ([]*model.Player, error) {
	filter := bson.M{"soul.current": bson.M{"$gt": 0}}
	opts := options.Find().
		SetSort(bson.D{{Key: "soul.current", Value: -1}, {Key: "level", Value: -1}}).
		SetLimit(int64(limit))
	return r.findAll(ctx, filter, opts)
}

func (r *playerRepo) FindDecayDue(ctx context.Context, before time.Time, limit int) ([]*model.Player, error) {
	filter := bson.M{"soul.lastDecay": bson.M{"$lt": before}}
	opts := options.Find().SetLimit(int64(limit))
	return r.findAll(ctx, filter, opts)
}

func (r *playerRepo) findAll(ctx context.Context, filter any, opts *options.FindOptions) ([]*model.Player, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var players []*model.Player
	if err := cur.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepo) PruneExpiredRescues(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"rescueRequests.expiresAt": bson.M{"$lt": now}},
		bson.M{"$pull": bson.M{
			"rescueRequests": bson.M{"expiresAt": bson.M{"$lt": now}},
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *playerRepo) BackfillSouls(ctx context.Context, soulMax int, now time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"soul": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"soul": model.Soul{
				Current:   soulMax,
				Max:       soulMax,
				LastDecay: now,
			},
			"stats.resurrectionsGiven": 0,
			"stats.twinContributions":  0,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
