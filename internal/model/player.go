package model

import "time"

// Player is one document in the players collection. Created on first contact,
// mutated by every game action, never hard-deleted: a permanent death resets
// fields in place.
type Player struct {
	TelegramID      int64           `json:"telegramId" bson:"telegramId"`
	Username        string          `json:"username" bson:"username"`
	FirstName       string          `json:"firstName,omitempty" bson:"firstName,omitempty"`
	Stars           int             `json:"stars" bson:"stars"`
	Energy          int             `json:"energy" bson:"energy"`
	MaxEnergy       int             `json:"maxEnergy" bson:"maxEnergy"`
	Level           int             `json:"level" bson:"level"`
	Experience      int             `json:"experience" bson:"experience"`
	Inventory       []string        `json:"inventory" bson:"inventory"`
	LastEnergyRegen time.Time       `json:"lastEnergyRegen" bson:"lastEnergyRegen"`
	LastHackTime    time.Time       `json:"lastHackTime,omitempty" bson:"lastHackTime,omitempty"`
	LastPvPTime     time.Time       `json:"lastPvpTime,omitempty" bson:"lastPvpTime,omitempty"`
	LastAction      time.Time       `json:"lastAction,omitempty" bson:"lastAction,omitempty"`
	Soul            *Soul           `json:"soul,omitempty" bson:"soul,omitempty"`
	Twin            *TwinBond       `json:"twin,omitempty" bson:"twin,omitempty"`
	Twins           []TwinRecord    `json:"twins,omitempty" bson:"twins,omitempty"`
	RescueRequests  []RescueRequest `json:"rescueRequests,omitempty" bson:"rescueRequests,omitempty"`
	PvP             PvPStats        `json:"pvp" bson:"pvp"`
	Achievements    []string        `json:"achievements" bson:"achievements"`
	Stats           Stats           `json:"stats" bson:"stats"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
}

// Soul is the bounded decaying resource. Invariant: 0 <= Current <= Max.
type Soul struct {
	Current          int         `json:"current" bson:"current"`
	Max              int         `json:"max" bson:"max"`
	LastDecay        time.Time   `json:"lastDecay" bson:"lastDecay"`
	ResurrectedBy    int64       `json:"resurrectedBy,omitempty" bson:"resurrectedBy,omitempty"`
	LastResurrection time.Time   `json:"lastResurrection,omitempty" bson:"lastResurrection,omitempty"`
	History          []SoulEvent `json:"history,omitempty" bson:"history,omitempty"`
}

// SoulEvent is one entry of the append-only soul history log.
type SoulEvent struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Change    int       `json:"change" bson:"change"`
	Reason    string    `json:"reason" bson:"reason"`
	NewValue  int       `json:"newValue" bson:"newValue"`
}

// TwinBond is the shadow side of the twin relationship: a one-way snapshot of
// the original plus a bond strength in [0,1].
type TwinBond struct {
	Original     *OriginalSnapshot `json:"original,omitempty" bson:"original,omitempty"`
	BondStrength float64           `json:"bondStrength" bson:"bondStrength"`
	IsVirtual    bool              `json:"isVirtual,omitempty" bson:"isVirtual,omitempty"`
}

// OriginalSnapshot deliberately carries no name or id: the shadow must never
// learn who the original is.
type OriginalSnapshot struct {
	JoinedAt       time.Time `json:"joinedAt" bson:"joinedAt"`
	Level          int       `json:"level" bson:"level"`
	HacksDone      int       `json:"hacksDone" bson:"hacksDone"`
	ArtifactsFound int       `json:"artifactsFound" bson:"artifactsFound"`
}

// TwinRecord is the original side: one entry per attached shadow.
type TwinRecord struct {
	ID           int64     `json:"id" bson:"id"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	Level        int       `json:"level" bson:"level"`
	Contribution int       `json:"contribution" bson:"contribution"`
}

// RescueRequest is queued on the twin when a shadow's soul hits zero.
type RescueRequest struct {
	From      int64     `json:"from" bson:"from"`
	Username  string    `json:"username" bson:"username"`
	SentAt    time.Time `json:"sentAt" bson:"sentAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

type PvPStats struct {
	Rating int `json:"rating" bson:"rating"`
	Wins   int `json:"wins" bson:"wins"`
	Losses int `json:"losses" bson:"losses"`
}

// Stats are cumulative lifetime counters.
type Stats struct {
	HacksDone          int `json:"hacksDone" bson:"hacksDone"`
	ArtifactsFound     int `json:"artifactsFound" bson:"artifactsFound"`
	PvPBattles         int `json:"pvpBattles" bson:"pvpBattles"`
	PvPWins            int `json:"pvpWins" bson:"pvpWins"`
	SuccessfulHacks    int `json:"successfulHacks" bson:"successfulHacks"`
	FailedHacks        int `json:"failedHacks" bson:"failedHacks"`
	TwinCount          int `json:"twinCount" bson:"twinCount"`
	TwinContributions  int `json:"twinContributions" bson:"twinContributions"`
	ResurrectionsGiven int `json:"resurrectionsGiven" bson:"resurrectionsGiven"`
}
