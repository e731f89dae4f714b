package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache mirrors pvp ratings and soul levels into Redis ZSETs so
// top listings don't hit Mongo on every command. Mongo stays the source of
// truth; a cache miss just means a slower read.
type LeaderboardCache interface {
	UpdateRating(ctx context.Context, telegramID int64, rating int) error
	TopRatings(ctx context.Context, limit int) ([]Entry, error)
	RatingRank(ctx context.Context, telegramID int64) (int64, error)

	UpdateSoul(ctx context.Context, telegramID int64, soul int) error
	TopSouls(ctx context.Context, limit int) ([]Entry, error)
}

// Entry is a single leaderboard row.
type Entry struct {
	TelegramID int64 `json:"telegramId"`
	Score      int   `json:"score"`
	Rank       int   `json:"rank"`
}

const (
	ratingKey = "pvp:rating"
	soulKey   = "soul:top"
)

type leaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) UpdateRating(ctx context.Context, telegramID int64, rating int) error {
	return c.client.ZAdd(ctx, ratingKey, redis.Z{
		Score:  float64(rating),
		Member: strconv.FormatInt(telegramID, 10),
	}).Err()
}

func (c *leaderboardCache) TopRatings(ctx context.Context, limit int) ([]Entry, error) {
	return c.top(ctx, ratingKey, limit)
}

func (c *leaderboardCache) RatingRank(ctx context.Context, telegramID int64) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, ratingKey, strconv.FormatInt(telegramID, 10)).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) UpdateSoul(ctx context.Context, telegramID int64, soul int) error {
	return c.client.ZAdd(ctx, soulKey, redis.Z{
		Score:  float64(soul),
		Member: strconv.FormatInt(telegramID, 10),
	}).Err()
}

func (c *leaderboardCache) TopSouls(ctx context.Context, limit int) ([]Entry, error) {
	return c.top(ctx, soulKey, limit)
}

func (c *leaderboardCache) top(ctx context.Context, key string, limit int) ([]Entry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		id, _ := strconv.ParseInt(z.Member.(string), 10, 64)
		entries[i] = Entry{
			TelegramID: id,
			Score:      int(z.Score),
			Rank:       i + 1,
		}
	}
	return entries, nil
}
