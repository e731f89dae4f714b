package model

import "time"

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
	RarityMythic    Rarity = "MYTHIC"
)

// Artifact is a loot drop from a successful hack.
type Artifact struct {
	ID         string    `json:"id" bson:"_id"`
	TelegramID int64     `json:"telegramId" bson:"telegramId"`
	Name       string    `json:"name" bson:"name"`
	Rarity     Rarity    `json:"rarity" bson:"rarity"`
	Value      int       `json:"value" bson:"value"`
	FoundAt    time.Time `json:"foundAt" bson:"foundAt"`
	Equipped   bool      `json:"equipped,omitempty" bson:"equipped,omitempty"`
	LoreName   string    `json:"loreName,omitempty" bson:"loreName,omitempty"`
	Story      string    `json:"story,omitempty" bson:"story,omitempty"`
}
