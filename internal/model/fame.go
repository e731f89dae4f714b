package model

import "time"

// FameRecord is an immutable hall-of-fame entry written when a player falls
// permanently. Records are only ever inserted, never updated.
type FameRecord struct {
	ID             string    `json:"id" bson:"_id"`
	TelegramID     int64     `json:"telegramId" bson:"telegramId"`
	Username       string    `json:"username" bson:"username"`
	Level          int       `json:"level" bson:"level"`
	ArtifactsFound int       `json:"artifactsFound" bson:"artifactsFound"`
	DiedAt         time.Time `json:"diedAt" bson:"diedAt"`
	Resurrected    bool      `json:"resurrected" bson:"resurrected"`
}
