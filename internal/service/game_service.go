package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
	"sentinel-echo/internal/repository"
)

// GameService owns registration and the hack loop: energy regeneration,
// cooldowns, loot rolls, experience and level-ups. Soul and twin effects are
// delegated to their ledgers.
type GameService struct {
	players   repository.PlayerRepo
	artifacts repository.ArtifactRepo
	soul      *SoulService
	twins     *TwinService
	rules     *config.Rules
	rng       *rand.Rand
}

func NewGameService(
	players repository.PlayerRepo,
	artifacts repository.ArtifactRepo,
	soul *SoulService,
	twins *TwinService,
	rules *config.Rules,
	rng *rand.Rand,
) *GameService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GameService{
		players:   players,
		artifacts: artifacts,
		soul:      soul,
		twins:     twins,
		rules:     rules,
		rng:       rng,
	}
}

// RegisterResult reports a registration attempt.
type RegisterResult struct {
	IsNew  bool
	Player *model.Player
}

// Register creates the player on first contact and assigns their twin.
// Calling it for an existing player is a no-op.
func (s *GameService) Register(ctx context.Context, telegramID int64, username, firstName string) (*RegisterResult, error) {
	existing, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if existing != nil {
		return &RegisterResult{IsNew: false, Player: existing}, nil
	}

	now := time.Now()
	player := &model.Player{
		TelegramID:      telegramID,
		Username:        username,
		FirstName:       firstName,
		Stars:           s.rules.Game.StartStars,
		Energy:          s.rules.Game.StartEnergy,
		MaxEnergy:       s.rules.Game.MaxEnergy,
		Level:           1,
		LastEnergyRegen: now,
		Soul: &model.Soul{
			Current:   s.rules.Soul.Max,
			Max:       s.rules.Soul.Max,
			LastDecay: now,
		},
		CreatedAt: now,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}

	if err := s.twins.AssignTwin(ctx, telegramID); err != nil {
		// The player exists either way; the bond can be established later.
		log.Printf("twin assignment for %d: %v", telegramID, err)
	}

	log.Printf("new player registered: %s (%d)", username, telegramID)
	return &RegisterResult{IsNew: true, Player: player}, nil
}

// HackResult reports one hack attempt.
type HackResult struct {
	Success    bool
	Artifact   *model.Artifact
	Experience int
	EnergyLeft int
	SoulLost   int
}

// Hack spends energy on a chance to find an artifact. Failure costs a bit
// of soul on top; either way the twin loop gets fed.
func (s *GameService) Hack(ctx context.Context, telegramID int64) (*HackResult, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	s.regenerateEnergy(player)

	if player.Energy < s.rules.Game.HackCost {
		return nil, ErrEnergyInsufficient
	}
	if !player.LastHackTime.IsZero() && time.Since(player.LastHackTime) < s.rules.Game.HackCooldown {
		return nil, ErrHackCooldown
	}

	now := time.Now()
	player.Energy -= s.rules.Game.HackCost
	player.LastHackTime = now
	player.LastAction = now
	player.Stats.HacksDone++

	chance := s.rules.Game.HackBaseChance + float64(player.Level)*s.rules.Game.HackLevelChance
	success := s.rng.Float64() < chance

	result := &HackResult{Success: success}

	if success {
		artifact, err := s.generateArtifact(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		result.Artifact = artifact
		result.Experience = s.rules.Game.HackWinExp + artifact.Value/10

		player.Inventory = append(player.Inventory, artifact.ID)
		player.Stats.SuccessfulHacks++
		player.Stats.ArtifactsFound++
	} else {
		result.Experience = s.rules.Game.HackFailExp
		player.Stats.FailedHacks++
	}

	player.Experience += result.Experience
	s.applyLevelUp(player)
	result.EnergyLeft = player.Energy

	if err := s.players.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}

	if !success {
		loss := s.rules.Soul.HackFailLoss
		if _, err := s.soul.LoseSoul(ctx, telegramID, loss, "hack_failed"); err != nil {
			return nil, fmt.Errorf("hack fail soul loss: %w", err)
		}
		result.SoulLost = loss
	}

	// Feed both directions of the twin loop.
	if err := s.twins.OnTwinHack(ctx, telegramID, result.Experience); err != nil {
		log.Printf("twin exp routing for %d: %v", telegramID, err)
	}
	if err := s.twins.OnOriginalHack(ctx, telegramID); err != nil {
		log.Printf("twin energy bonus for %d: %v", telegramID, err)
	}

	return result, nil
}

func (s *GameService) generateArtifact(ctx context.Context, telegramID int64) (*model.Artifact, error) {
	roll := s.rng.Float64()
	odds := s.rules.Game.Artifacts[len(s.rules.Game.Artifacts)-1]
	acc := 0.0
	for _, o := range s.rules.Game.Artifacts {
		acc += o.Chance
		if roll < acc {
			odds = o
			break
		}
	}

	// Value varies ±20% around the table entry.
	variance := float64(odds.Value) * 0.2
	value := int(float64(odds.Value) + s.rng.Float64()*variance*2 - variance)

	artifact := &model.Artifact{
		TelegramID: telegramID,
		Name:       artifactName(s.rng),
		Rarity:     model.Rarity(odds.Rarity),
		Value:      value,
		FoundAt:    time.Now(),
	}
	if artifact.Rarity == model.RarityMythic {
		story := pickMythicStory(s.rng)
		artifact.LoreName = story.Name
		artifact.Story = story.Story
	}

	if err := s.artifacts.Create(ctx, artifact); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	return artifact, nil
}

// regenerateEnergy applies lazy regen since the last settlement. Mutates the
// player in memory; the caller persists.
func (s *GameService) regenerateEnergy(player *model.Player) {
	interval := s.rules.Game.EnergyRegenInterval
	last := player.LastEnergyRegen
	if last.IsZero() {
		player.LastEnergyRegen = time.Now()
		return
	}

	elapsed := time.Since(last)
	if elapsed < interval {
		return
	}
	intervals := int(elapsed / interval)

	player.Energy += intervals * s.rules.Game.EnergyRegen
	if player.Energy > player.MaxEnergy {
		player.Energy = player.MaxEnergy
	}
	player.LastEnergyRegen = time.Now()
}

func (s *GameService) applyLevelUp(player *model.Player) {
	step := s.rules.LevelFor(player.Experience)
	if step.Level > player.Level {
		player.Level = step.Level
		player.MaxEnergy = step.MaxEnergy
		log.Printf("player %d reached level %d", player.TelegramID, step.Level)
	}
}

// Profile is the aggregate player view.
type Profile struct {
	Username       string
	Stars          int
	Energy         int
	MaxEnergy      int
	Level          int
	Experience     int
	NextLevelExp   int
	HacksDone      int
	ArtifactsFound int
	SuccessRate    int
	PvPRating      int
	TwinFeeling    string
	TwinBond       float64
}

func (s *GameService) GetProfile(ctx context.Context, telegramID int64) (*Profile, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	s.regenerateEnergy(player)
	if err := s.players.Update(ctx, player); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}

	profile := &Profile{
		Username:       player.Username,
		Stars:          player.Stars,
		Energy:         player.Energy,
		MaxEnergy:      player.MaxEnergy,
		Level:          player.Level,
		Experience:     player.Experience,
		NextLevelExp:   player.Experience,
		HacksDone:      player.Stats.HacksDone,
		ArtifactsFound: player.Stats.ArtifactsFound,
		PvPRating:      player.PvP.Rating,
	}
	for _, step := range s.rules.Levels {
		if step.Level == player.Level+1 {
			profile.NextLevelExp = step.ExpNeeded
		}
	}
	if total := player.Stats.SuccessfulHacks + player.Stats.FailedHacks; total > 0 {
		profile.SuccessRate = player.Stats.SuccessfulHacks * 100 / total
	}

	feeling, err := s.twins.Feeling(ctx, telegramID)
	if err == nil && feeling != nil {
		profile.TwinFeeling = feeling.Feeling
		profile.TwinBond = feeling.Strength
	}
	return profile, nil
}

// Artifacts lists the player's most recent finds.
func (s *GameService) Artifacts(ctx context.Context, telegramID int64, limit int) ([]*model.Artifact, error) {
	return s.artifacts.ListByOwner(ctx, telegramID, limit)
}
