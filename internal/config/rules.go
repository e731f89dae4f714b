package config

import "time"

// Rules bundles every gameplay constant. Services take a *Rules so tests can
// pin chances to 0 or 1 instead of fighting the RNG.
type Rules struct {
	Game    GameRules
	Soul    SoulRules
	PvP     PvPRules
	Leagues []League
	Levels  []LevelStep
}

type GameRules struct {
	StartStars          int
	StartEnergy         int
	MaxEnergy           int
	HackCost            int
	HackCooldown        time.Duration
	EnergyRegen         int
	EnergyRegenInterval time.Duration
	HackBaseChance      float64
	HackLevelChance     float64
	HackWinExp          int
	HackFailExp         int
	Artifacts           []ArtifactOdds
}

// ArtifactOdds is one row of the loot table, ordered rarest first so a single
// cumulative roll walks the slice.
type ArtifactOdds struct {
	Rarity string
	Chance float64
	Value  int
}

type SoulRules struct {
	Max                  int
	HackFailLoss         int
	PvPLoss              int
	IdleDailyLoss        int
	ResurrectionCost     int
	ResurrectionCooldown time.Duration
	RescueRequestTTL     time.Duration
	CriticalBelow        int
}

type PvPRules struct {
	EnergyCost             int
	BaseReward             int
	RatingWin              int
	RatingLoss             int
	CrossLeagueBonus       int
	MinDamage              int
	MaxDamage              int
	CritChance             float64
	CritMultiplier         float64
	MemoryStrikeChance     float64
	MemoryStrikeMultiplier float64
	MemoryStrikeCost       int
	MaxRounds              int
	StaleAfter             time.Duration
	RatingRange            int
	PromotionCount         int
	RelegationCount        int
}

// League is a rating bracket with a cosmetic title.
type League struct {
	Name   string `yaml:"name"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
	Reward int    `yaml:"reward"`
	Title  string `yaml:"title"`
	Icon   string `yaml:"icon"`
}

// LevelStep is one row of the experience table.
type LevelStep struct {
	Level     int `yaml:"level"`
	ExpNeeded int `yaml:"expNeeded"`
	MaxEnergy int `yaml:"maxEnergy"`
}

func DefaultRules() *Rules {
	return &Rules{
		Game: GameRules{
			StartStars:          100,
			StartEnergy:         50,
			MaxEnergy:           100,
			HackCost:            20,
			HackCooldown:        30 * time.Second,
			EnergyRegen:         10,
			EnergyRegenInterval: time.Minute,
			HackBaseChance:      0.7,
			HackLevelChance:     0.02,
			HackWinExp:          20,
			HackFailExp:         5,
			Artifacts: []ArtifactOdds{
				{Rarity: "MYTHIC", Chance: 0.05, Value: 2500},
				{Rarity: "LEGENDARY", Chance: 0.1, Value: 1000},
				{Rarity: "EPIC", Chance: 0.15, Value: 400},
				{Rarity: "RARE", Chance: 0.3, Value: 150},
				{Rarity: "COMMON", Chance: 0.4, Value: 50},
			},
		},
		Soul: SoulRules{
			Max:                  100,
			HackFailLoss:         2,
			PvPLoss:              10,
			IdleDailyLoss:        1,
			ResurrectionCost:     30,
			ResurrectionCooldown: 7 * 24 * time.Hour,
			RescueRequestTTL:     24 * time.Hour,
			CriticalBelow:        30,
		},
		PvP: PvPRules{
			EnergyCost:             20,
			BaseReward:             150,
			RatingWin:              25,
			RatingLoss:             10,
			CrossLeagueBonus:       10,
			MinDamage:              10,
			MaxDamage:              25,
			CritChance:             0.2,
			CritMultiplier:         2,
			MemoryStrikeChance:     0.3,
			MemoryStrikeMultiplier: 1.5,
			MemoryStrikeCost:       1,
			MaxRounds:              20,
			StaleAfter:             time.Hour,
			RatingRange:            100,
			PromotionCount:         3,
			RelegationCount:        3,
		},
		Leagues: loadLeagues(),
		Levels:  loadLevels(),
	}
}

// LeagueFor maps a rating onto its bracket. Ratings outside every bracket
// (negative after repeated losses) fall back to the lowest league.
func (r *Rules) LeagueFor(rating int) League {
	for _, l := range r.Leagues {
		if rating >= l.Min && rating <= l.Max {
			return l
		}
	}
	return r.Leagues[0]
}

// NextLeague returns the bracket directly above cur, if any.
func (r *Rules) NextLeague(cur League) (League, bool) {
	for _, l := range r.Leagues {
		if l.Min > cur.Max {
			return l, true
		}
	}
	return League{}, false
}

// LevelFor returns the highest level step reachable with exp.
func (r *Rules) LevelFor(exp int) LevelStep {
	step := r.Levels[0]
	for _, l := range r.Levels {
		if exp >= l.ExpNeeded {
			step = l
		} else {
			break
		}
	}
	return step
}
