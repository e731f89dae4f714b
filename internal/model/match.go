package model

import "time"

type MatchStatus string

const (
	MatchStatusActive      MatchStatus = "ACTIVE"
	MatchStatusFinished    MatchStatus = "FINISHED"
	MatchStatusSurrendered MatchStatus = "SURRENDERED"
)

// Match is an ephemeral PvP battle between two players. Active matches live
// in the in-process registry and are mirrored to the pvp_matches collection;
// finished ones survive only in the collection.
type Match struct {
	ID              string        `json:"id" bson:"_id"`
	Player1         int64         `json:"player1" bson:"player1"`
	Player2         int64         `json:"player2" bson:"player2"`
	Status          MatchStatus   `json:"status" bson:"status"`
	StartTime       time.Time     `json:"startTime" bson:"startTime"`
	EndTime         time.Time     `json:"endTime,omitempty" bson:"endTime,omitempty"`
	Turn            int64         `json:"turn" bson:"turn"`
	Player1Health   int           `json:"player1Health" bson:"player1Health"`
	Player2Health   int           `json:"player2Health" bson:"player2Health"`
	Round           int           `json:"round" bson:"round"`
	MemoryStrikes1  int           `json:"memoryStrikes1" bson:"memoryStrikes1"`
	MemoryStrikes2  int           `json:"memoryStrikes2" bson:"memoryStrikes2"`
	Winner          int64         `json:"winner,omitempty" bson:"winner,omitempty"`
	Logs            []MatchAction `json:"logs,omitempty" bson:"logs,omitempty"`
}

// MatchAction is one entry of the append-only battle log.
type MatchAction struct {
	Attacker       int64     `json:"attacker" bson:"attacker"`
	Damage         int       `json:"damage" bson:"damage"`
	IsCrit         bool      `json:"isCrit" bson:"isCrit"`
	IsMemoryStrike bool      `json:"isMemoryStrike" bson:"isMemoryStrike"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	Round          int       `json:"round" bson:"round"`
	HealthLeft     int       `json:"healthLeft" bson:"healthLeft"`
}

// Clone returns a deep copy with a detached battle log.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Logs = append([]MatchAction(nil), m.Logs...)
	return &cp
}

// Opponent returns the other side of the match.
func (m *Match) Opponent(id int64) int64 {
	if m.Player1 == id {
		return m.Player2
	}
	return m.Player1
}

// HealthOf returns the health of the given side.
func (m *Match) HealthOf(id int64) int {
	if m.Player1 == id {
		return m.Player1Health
	}
	return m.Player2Health
}

// MemoryStrikesOf returns how many memory strikes the given side landed.
func (m *Match) MemoryStrikesOf(id int64) int {
	if m.Player1 == id {
		return m.MemoryStrikes1
	}
	return m.MemoryStrikes2
}
