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

const (
	maxTwinsPerOriginal = 3
	candidateShortlist  = 5
	initialBond         = 0.1
	virtualBond         = 0.2
	bondPerHack         = 0.001
	twinExpShare        = 0.05
	twinEnergyBonus     = 1
)

// TwinService pairs every new player with an original and keeps the passive
// progression-sharing loop running. The shadow only ever sees an anonymous
// snapshot; the reverse reference lives on the original's twin list.
type TwinService struct {
	players repository.PlayerRepo
	rules   *config.Rules
	rng     *rand.Rand
}

func NewTwinService(players repository.PlayerRepo, rules *config.Rules, rng *rand.Rand) *TwinService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TwinService{players: players, rules: rules, rng: rng}
}

// AssignTwin attaches a freshly registered player as a shadow of an existing
// original with spare twin slots. With no eligible original around, the
// shadow gets a fabricated virtual one instead.
func (s *TwinService) AssignTwin(ctx context.Context, newPlayerID int64) error {
	candidates, err := s.players.FindTwinCandidates(ctx, newPlayerID, maxTwinsPerOriginal, candidateShortlist)
	if err != nil {
		return fmt.Errorf("find candidates: %w", err)
	}
	if len(candidates) == 0 {
		return s.assignVirtual(ctx, newPlayerID)
	}

	original := candidates[s.rng.Intn(len(candidates))]
	now := time.Now()

	original.Stats.TwinCount++
	original.Twins = append(original.Twins, model.TwinRecord{
		ID:       newPlayerID,
		JoinedAt: now,
		Level:    1,
	})
	if err := s.players.Update(ctx, original); err != nil {
		return fmt.Errorf("attach shadow: %w", err)
	}

	shadow, err := s.players.GetByID(ctx, newPlayerID)
	if err != nil {
		return fmt.Errorf("load shadow: %w", err)
	}
	if shadow == nil {
		return ErrPlayerNotFound
	}
	shadow.Twin = &model.TwinBond{
		Original: &model.OriginalSnapshot{
			JoinedAt:       original.CreatedAt,
			Level:          original.Level,
			HacksDone:      original.Stats.HacksDone,
			ArtifactsFound: original.Stats.ArtifactsFound,
		},
		BondStrength: initialBond,
	}
	if err := s.players.Update(ctx, shadow); err != nil {
		return fmt.Errorf("save shadow: %w", err)
	}

	log.Printf("shadow %d bound to original %d", newPlayerID, original.TelegramID)
	return nil
}

// assignVirtual fabricates an original with plausible stats. The relationship
// never resolves to a real player.
func (s *TwinService) assignVirtual(ctx context.Context, shadowID int64) error {
	shadow, err := s.players.GetByID(ctx, shadowID)
	if err != nil {
		return fmt.Errorf("load shadow: %w", err)
	}
	if shadow == nil {
		return ErrPlayerNotFound
	}

	joined := time.Now().Add(-time.Duration(s.rng.Intn(30*24)) * time.Hour)
	shadow.Twin = &model.TwinBond{
		Original: &model.OriginalSnapshot{
			JoinedAt:       joined,
			Level:          5 + s.rng.Intn(5),
			HacksDone:      100 + s.rng.Intn(500),
			ArtifactsFound: 20 + s.rng.Intn(100),
		},
		BondStrength: virtualBond,
		IsVirtual:    true,
	}
	if err := s.players.Update(ctx, shadow); err != nil {
		return fmt.Errorf("save shadow: %w", err)
	}

	log.Printf("shadow %d bound to a virtual original", shadowID)
	return nil
}

// OnTwinHack routes a share of the shadow's experience to the real original
// and strengthens the bond. Bond strength saturates at 1.0.
func (s *TwinService) OnTwinHack(ctx context.Context, twinID int64, expGained int) error {
	shadow, err := s.players.GetByID(ctx, twinID)
	if err != nil {
		return fmt.Errorf("load shadow: %w", err)
	}
	if shadow == nil || shadow.Twin == nil || shadow.Twin.Original == nil {
		return nil
	}

	share := int(float64(expGained) * twinExpShare)

	original, err := s.players.GetOriginalOf(ctx, twinID)
	if err != nil {
		return fmt.Errorf("find original: %w", err)
	}
	if original != nil && share > 0 {
		original.Experience += share
		for i := range original.Twins {
			if original.Twins[i].ID == twinID {
				original.Twins[i].Contribution += share
				original.Twins[i].Level = shadow.Level
			}
		}
		if err := s.players.Update(ctx, original); err != nil {
			return fmt.Errorf("credit original: %w", err)
		}
	}

	shadow.Twin.BondStrength += bondPerHack
	if shadow.Twin.BondStrength > 1 {
		shadow.Twin.BondStrength = 1
	}
	if share > 0 {
		shadow.Stats.TwinContributions += share
	}
	if err := s.players.Update(ctx, shadow); err != nil {
		return fmt.Errorf("save shadow: %w", err)
	}
	return nil
}

// OnOriginalHack grants every attached shadow a small energy bonus.
func (s *TwinService) OnOriginalHack(ctx context.Context, originalID int64) error {
	original, err := s.players.GetByID(ctx, originalID)
	if err != nil {
		return fmt.Errorf("load original: %w", err)
	}
	if original == nil || len(original.Twins) == 0 {
		return nil
	}

	for _, rec := range original.Twins {
		shadow, err := s.players.GetByID(ctx, rec.ID)
		if err != nil || shadow == nil {
			continue
		}
		shadow.Energy += twinEnergyBonus
		if shadow.Energy > shadow.MaxEnergy {
			shadow.Energy = shadow.MaxEnergy
		}
		if err := s.players.Update(ctx, shadow); err != nil {
			log.Printf("twin energy bonus for %d: %v", rec.ID, err)
		}
	}
	return nil
}

// TwinFeeling is what the shadow senses of the bond.
type TwinFeeling struct {
	Feeling       string  `json:"feeling"`
	Strength      float64 `json:"strength"`
	OriginalLevel int     `json:"originalLevel"`
	OriginalHacks int     `json:"originalHacks"`
	IsVirtual     bool    `json:"isVirtual"`
}

// Feeling maps bond strength onto one of six descriptive tiers.
func (s *TwinService) Feeling(ctx context.Context, telegramID int64) (*TwinFeeling, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.Twin == nil {
		return nil, nil
	}

	strength := player.Twin.BondStrength
	if strength > 1 {
		strength = 1
	}

	feeling := &TwinFeeling{
		Feeling:   feelingTier(strength),
		Strength:  strength,
		IsVirtual: player.Twin.IsVirtual,
	}
	if o := player.Twin.Original; o != nil {
		feeling.OriginalLevel = o.Level
		feeling.OriginalHacks = o.HacksDone
	}
	return feeling, nil
}

func feelingTier(strength float64) string {
	switch {
	case strength < 0.1:
		return "🔮 You sense a distant presence somewhere..."
	case strength < 0.3:
		return "✨ Sometimes you catch thoughts that are not yours. Old, but warm."
	case strength < 0.5:
		return "💫 You know someone is proud of you. You don't know who. But it warms you."
	case strength < 0.7:
		return "🌟 You watch the same stars. At different times. In different places."
	case strength < 0.9:
		return "⚡ You hear an echo of their voice. It calls you \"Sentinel\"."
	default:
		return "💞 You will meet soon. You don't know how. But you know it."
	}
}
