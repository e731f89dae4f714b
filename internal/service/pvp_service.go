package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel-echo/internal/cache"
	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
	"sentinel-echo/internal/repository"
)

const matchStartHealth = 100

// PvPService runs matchmaking and turn-based battles. The queue and the
// active-match registry are injected so the engine has no process-lifetime
// singletons; the registry reloads from storage on boot.
type PvPService struct {
	players     repository.PlayerRepo
	matches     repository.MatchRepo
	soul        *SoulService
	rules       *config.Rules
	queue       *Queue
	registry    *MatchRegistry
	leaderboard cache.LeaderboardCache
	rng         *rand.Rand

	// mu serializes matchmaking, battle turns and the stale sweep. The
	// registry copies matches, so without this a turn and the sweep could
	// each finish their own copy of the same match.
	mu sync.Mutex
}

func NewPvPService(
	players repository.PlayerRepo,
	matches repository.MatchRepo,
	soul *SoulService,
	rules *config.Rules,
	queue *Queue,
	registry *MatchRegistry,
	rng *rand.Rand,
) *PvPService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PvPService{
		players:  players,
		matches:  matches,
		soul:     soul,
		rules:    rules,
		queue:    queue,
		registry: registry,
		rng:      rng,
	}
}

// SetLeaderboard wires the optional Redis mirror for ratings.
func (s *PvPService) SetLeaderboard(lb cache.LeaderboardCache) {
	s.leaderboard = lb
}

// JoinResult reports the outcome of a matchmaking attempt.
type JoinResult struct {
	MatchFound bool
	Match      *model.Match
}

// JoinQueue places a player into matchmaking and pairs the two oldest queued
// players when possible. Entry is refused with a depleted soul or without
// the energy for the match cost.
func (s *PvPService) JoinQueue(ctx context.Context, telegramID int64) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.Soul != nil {
		if err := s.soul.Settle(ctx, player); err != nil {
			return nil, err
		}
		if player.Soul.Current == 0 {
			return nil, ErrSoulDepleted
		}
	}
	if player.Energy < s.rules.PvP.EnergyCost {
		return nil, ErrEnergyInsufficient
	}

	if active := s.registry.ByPlayer(telegramID); active != nil {
		return &JoinResult{MatchFound: true, Match: active}, nil
	}

	s.queue.Push(telegramID)

	first, second, ok := s.queue.PopPair()
	if !ok {
		return &JoinResult{}, nil
	}
	if first == second {
		s.queue.Requeue(first)
		return nil, ErrSelfMatch
	}

	p1, err := s.players.GetByID(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("load p1: %w", err)
	}
	p2, err := s.players.GetByID(ctx, second)
	if err != nil {
		return nil, fmt.Errorf("load p2: %w", err)
	}
	if p1 == nil || p2 == nil {
		return nil, ErrPlayerNotFound
	}

	// Pair only inside a rating band unless both sit in the same league.
	l1 := s.rules.LeagueFor(p1.PvP.Rating)
	l2 := s.rules.LeagueFor(p2.PvP.Rating)
	diff := p1.PvP.Rating - p2.PvP.Rating
	if diff < 0 {
		diff = -diff
	}
	if diff > s.rules.PvP.RatingRange && l1.Name != l2.Name {
		s.queue.Requeue(first, second)
		return &JoinResult{}, nil
	}

	for _, p := range []*model.Player{p1, p2} {
		p.Energy -= s.rules.PvP.EnergyCost
		if err := s.players.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("deduct energy: %w", err)
		}
	}

	turn := first
	if s.rng.Intn(2) == 1 {
		turn = second
	}
	match := &model.Match{
		ID:            uuid.New().String(),
		Player1:       first,
		Player2:       second,
		Status:        model.MatchStatusActive,
		StartTime:     time.Now(),
		Turn:          turn,
		Player1Health: matchStartHealth,
		Player2Health: matchStartHealth,
		Round:         1,
	}
	s.registry.Put(match)
	if err := s.matches.Create(ctx, match); err != nil {
		s.registry.Delete(match.ID)
		return nil, fmt.Errorf("persist match: %w", err)
	}

	log.Printf("pvp match %s: %d vs %d", match.ID, first, second)
	return &JoinResult{MatchFound: true, Match: match}, nil
}

// AttackResult reports one resolved turn.
type AttackResult struct {
	Damage         int
	IsCrit         bool
	IsMemoryStrike bool
	YourHealth     int
	EnemyHealth    int
	YourTurn       bool
	Round          int
	Finished       bool
	Winner         int64
	Draw           bool
	DrawReason     string
}

// Attack resolves one turn for the caller. A finished match is gone from the
// registry, so retries after the end come back as ErrMatchNotFound.
func (s *PvPService) Attack(ctx context.Context, telegramID int64, matchID string) (*AttackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := s.registry.Get(matchID)
	if match == nil || match.Status != model.MatchStatusActive {
		return nil, ErrMatchNotFound
	}
	if match.Turn != telegramID {
		return nil, ErrNotYourTurn
	}
	if match.Round >= s.rules.PvP.MaxRounds {
		if err := s.endMatch(ctx, match, 0, "round limit"); err != nil {
			return nil, err
		}
		return &AttackResult{
			YourHealth:  match.HealthOf(telegramID),
			EnemyHealth: match.HealthOf(match.Opponent(telegramID)),
			Round:       match.Round,
			Finished:    true,
			Draw:        true,
			DrawReason:  "round limit",
		}, nil
	}

	defender := match.Opponent(telegramID)
	pvp := &s.rules.PvP

	damage := float64(pvp.MinDamage + s.rng.Intn(pvp.MaxDamage-pvp.MinDamage+1))
	isMemoryStrike := false
	isCrit := false

	// Memory strike: burn one unit of soul for bonus damage. Only possible
	// while the attacker has soul left to burn.
	attacker, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load attacker: %w", err)
	}
	if attacker != nil && attacker.Soul != nil && attacker.Soul.Current >= pvp.MemoryStrikeCost {
		if s.rng.Float64() < pvp.MemoryStrikeChance {
			isMemoryStrike = true
			damage *= pvp.MemoryStrikeMultiplier
			if _, err := s.soul.LoseSoul(ctx, telegramID, pvp.MemoryStrikeCost, "memory_strike"); err != nil {
				return nil, fmt.Errorf("memory strike cost: %w", err)
			}
			if match.Player1 == telegramID {
				match.MemoryStrikes1++
			} else {
				match.MemoryStrikes2++
			}
		}
	}

	if s.rng.Float64() < pvp.CritChance {
		isCrit = true
		damage *= pvp.CritMultiplier
	}

	dealt := int(damage)
	if match.Player1 == telegramID {
		match.Player2Health -= dealt
		if match.Player2Health < 0 {
			match.Player2Health = 0
		}
	} else {
		match.Player1Health -= dealt
		if match.Player1Health < 0 {
			match.Player1Health = 0
		}
	}

	match.Logs = append(match.Logs, model.MatchAction{
		Attacker:       telegramID,
		Damage:         dealt,
		IsCrit:         isCrit,
		IsMemoryStrike: isMemoryStrike,
		Timestamp:      time.Now(),
		Round:          match.Round,
		HealthLeft:     match.HealthOf(defender),
	})

	result := &AttackResult{
		Damage:         dealt,
		IsCrit:         isCrit,
		IsMemoryStrike: isMemoryStrike,
		Round:          match.Round,
	}

	if match.Player1Health == 0 || match.Player2Health == 0 {
		winner := match.Player1
		if match.Player1Health == 0 {
			winner = match.Player2
		}
		if err := s.endMatch(ctx, match, winner, ""); err != nil {
			return nil, err
		}
		result.Finished = true
		result.Winner = winner
		result.YourHealth = match.HealthOf(telegramID)
		result.EnemyHealth = match.HealthOf(defender)
		return result, nil
	}

	match.Turn = defender
	match.Round++
	s.registry.Put(match)
	if err := s.matches.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}

	result.YourHealth = match.HealthOf(telegramID)
	result.EnemyHealth = match.HealthOf(defender)
	result.YourTurn = false
	result.Round = match.Round
	return result, nil
}

// endMatch settles rewards and removes the match from the active set. With
// winner == 0 the match closes as a draw and nobody is touched.
func (s *PvPService) endMatch(ctx context.Context, match *model.Match, winner int64, drawReason string) error {
	match.Status = model.MatchStatusFinished
	match.EndTime = time.Now()
	match.Winner = winner

	if winner != 0 {
		loser := match.Opponent(winner)
		if err := s.settleOutcome(ctx, winner, loser); err != nil {
			return err
		}
	} else {
		log.Printf("pvp match %s ended in a draw: %s", match.ID, drawReason)
	}

	s.registry.Delete(match.ID)
	if err := s.matches.Update(ctx, match); err != nil {
		return fmt.Errorf("persist finished match: %w", err)
	}
	return nil
}

func (s *PvPService) settleOutcome(ctx context.Context, winnerID, loserID int64) error {
	winner, err := s.players.GetByID(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("load winner: %w", err)
	}
	loser, err := s.players.GetByID(ctx, loserID)
	if err != nil {
		return fmt.Errorf("load loser: %w", err)
	}
	if winner == nil || loser == nil {
		return ErrPlayerNotFound
	}

	ratingGain := s.rules.PvP.RatingWin
	if s.rules.LeagueFor(winner.PvP.Rating).Name != s.rules.LeagueFor(loser.PvP.Rating).Name {
		ratingGain += s.rules.PvP.CrossLeagueBonus
	}

	now := time.Now()
	winner.Stars += s.rules.PvP.BaseReward
	winner.PvP.Wins++
	winner.PvP.Rating += ratingGain
	winner.Stats.PvPBattles++
	winner.Stats.PvPWins++
	winner.LastPvPTime = now
	if err := s.players.Update(ctx, winner); err != nil {
		return fmt.Errorf("save winner: %w", err)
	}
	s.mirrorRating(ctx, winnerID, winner.PvP.Rating)

	loser.PvP.Losses++
	loser.PvP.Rating -= s.rules.PvP.RatingLoss
	loser.Stats.PvPBattles++
	loser.LastPvPTime = now
	if err := s.players.Update(ctx, loser); err != nil {
		return fmt.Errorf("save loser: %w", err)
	}
	s.mirrorRating(ctx, loserID, loser.PvP.Rating)

	if loser.Soul != nil {
		if _, err := s.soul.LoseSoul(ctx, loserID, s.rules.Soul.PvPLoss, "pvp_loss"); err != nil {
			return fmt.Errorf("pvp soul loss: %w", err)
		}
	}
	return nil
}

// ActiveMatch returns the match the player is currently fighting in, if any.
func (s *PvPService) ActiveMatch(telegramID int64) *model.Match {
	return s.registry.ByPlayer(telegramID)
}

// SweepStale force-finishes matches older than the staleness threshold as
// draws so nothing leaks the active set forever.
func (s *PvPService) SweepStale(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.rules.PvP.StaleAfter)
	stale := s.registry.Stale(cutoff)
	for _, match := range stale {
		if err := s.endMatch(ctx, match, 0, "timeout"); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// PlayerStats is the pvp profile view.
type PlayerStats struct {
	Rating        int    `json:"rating"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	WinRate       int    `json:"winRate"`
	Soul          int    `json:"soul"`
	MemoryStrikes int    `json:"memoryStrikes"`
	League        string `json:"league"`
	LeagueIcon    string `json:"leagueIcon"`
	LeagueTitle   string `json:"leagueTitle"`
}

func (s *PvPService) GetPlayerStats(ctx context.Context, telegramID int64) (*PlayerStats, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	league := s.rules.LeagueFor(player.PvP.Rating)
	stats := &PlayerStats{
		Rating:      player.PvP.Rating,
		Wins:        player.PvP.Wins,
		Losses:      player.PvP.Losses,
		League:      league.Name,
		LeagueIcon:  league.Icon,
		LeagueTitle: league.Title,
	}
	if total := player.PvP.Wins + player.PvP.Losses; total > 0 {
		stats.WinRate = player.PvP.Wins * 100 / total
	}
	if player.Soul != nil {
		stats.Soul = player.Soul.Current
	}

	finished, err := s.matches.FindFinishedByPlayer(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load match history: %w", err)
	}
	for _, m := range finished {
		stats.MemoryStrikes += m.MemoryStrikesOf(telegramID)
	}
	return stats, nil
}

// LeagueStats locates a player inside their bracket.
type LeagueStats struct {
	League        string `json:"league"`
	Title         string `json:"title"`
	Icon          string `json:"icon"`
	Position      int    `json:"position"`
	TotalInLeague int    `json:"totalInLeague"`
	ToPromotion   int    `json:"toPromotion"`
	ToRelegation  int    `json:"toRelegation"`
	NextLeague    string `json:"nextLeague"`
}

func (s *PvPService) GetLeagueStats(ctx context.Context, telegramID int64) (*LeagueStats, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	rating := player.PvP.Rating
	league := s.rules.LeagueFor(rating)

	peers, err := s.players.FindByRatingRange(ctx, league.Min, league.Max)
	if err != nil {
		return nil, fmt.Errorf("load league peers: %w", err)
	}
	position := 0
	for i, p := range peers {
		if p.TelegramID == telegramID {
			position = i + 1
			break
		}
	}

	stats := &LeagueStats{
		League:        league.Name,
		Title:         league.Title,
		Icon:          league.Icon,
		Position:      position,
		TotalInLeague: len(peers),
		ToRelegation:  rating - league.Min + 1,
		NextLeague:    "top league",
	}
	if next, ok := s.rules.NextLeague(league); ok {
		stats.NextLeague = next.Name
		if next.Min > rating {
			stats.ToPromotion = next.Min - rating
		}
	}
	return stats, nil
}

// GetLeagueTop lists the best players of one league. An unknown league name
// yields nil; a known but empty league yields an empty slice.
func (s *PvPService) GetLeagueTop(ctx context.Context, leagueName string, limit int) ([]*model.Player, error) {
	for _, l := range s.rules.Leagues {
		if l.Name == leagueName {
			players, err := s.players.FindByRatingRange(ctx, l.Min, l.Max)
			if err != nil {
				return nil, err
			}
			if players == nil {
				players = []*model.Player{}
			}
			if len(players) > limit {
				players = players[:limit]
			}
			return players, nil
		}
	}
	return nil, nil
}

// Title returns the player's cosmetic league title.
func (s *PvPService) Title(ctx context.Context, telegramID int64) (string, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return s.rules.Leagues[0].Title, nil
	}
	return s.rules.LeagueFor(player.PvP.Rating).Title, nil
}

// EndSeason pays out the promotion slice of every league. The relegation
// slice is collected and logged but deliberately left untouched.
func (s *PvPService) EndSeason(ctx context.Context) error {
	log.Println("pvp season ending")

	for _, league := range s.rules.Leagues {
		players, err := s.players.FindByRatingRange(ctx, league.Min, league.Max)
		if err != nil {
			return fmt.Errorf("league %s standings: %w", league.Name, err)
		}

		promoted := s.rules.PvP.PromotionCount
		if promoted > len(players) {
			promoted = len(players)
		}
		for _, p := range players[:promoted] {
			p.Stars += league.Reward
			if err := s.players.Update(ctx, p); err != nil {
				return fmt.Errorf("season payout for %d: %w", p.TelegramID, err)
			}
			log.Printf("season payout: %d earned %d⭐ in %s", p.TelegramID, league.Reward, league.Name)
		}

		relegated := s.rules.PvP.RelegationCount
		if relegated > len(players) {
			relegated = len(players)
		}
		for _, p := range players[len(players)-relegated:] {
			log.Printf("season relegation candidate in %s: %d", league.Name, p.TelegramID)
		}
	}
	return nil
}

func (s *PvPService) mirrorRating(ctx context.Context, telegramID int64, rating int) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.UpdateRating(ctx, telegramID, rating); err != nil {
		log.Printf("rating leaderboard update for %d: %v", telegramID, err)
	}
}
