package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
)

func newGameFixture(rules *config.Rules, seed ...*model.Player) (*GameService, *fakePlayers, *fakeArtifacts) {
	players := newFakePlayers(seed...)
	artifacts := &fakeArtifacts{}
	soul := NewSoulService(players, &fakeFame{}, rules)
	twins := NewTwinService(players, rules, testRand())
	svc := NewGameService(players, artifacts, soul, twins, rules, testRand())
	return svc, players, artifacts
}

func TestRegisterCreatesPlayerWithFullSoul(t *testing.T) {
	rules := config.DefaultRules()
	svc, players, _ := newGameFixture(rules)

	result, err := svc.Register(context.Background(), 1, "neo", "Neo")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !result.IsNew {
		t.Fatal("first contact must create the player")
	}

	stored, _ := players.GetByID(context.Background(), 1)
	if stored.Soul == nil || stored.Soul.Current != 100 || stored.Soul.Max != 100 {
		t.Fatalf("new player must start with a full soul: %+v", stored.Soul)
	}
	if stored.Stars != rules.Game.StartStars || stored.Energy != rules.Game.StartEnergy {
		t.Fatalf("starting resources wrong: stars=%d energy=%d", stored.Stars, stored.Energy)
	}
	if stored.Level != 1 {
		t.Fatalf("expected level 1, got %d", stored.Level)
	}
	// Nobody else is around, so the twin must be virtual.
	if stored.Twin == nil || !stored.Twin.IsVirtual {
		t.Fatalf("lone player must get a virtual twin: %+v", stored.Twin)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	svc, _, _ := newGameFixture(config.DefaultRules())

	svc.Register(context.Background(), 1, "neo", "Neo")
	again, err := svc.Register(context.Background(), 1, "neo", "Neo")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if again.IsNew {
		t.Fatal("second contact must not create a second player")
	}
}

func TestFailedHackCostsSoul(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 0
	rules.Game.HackLevelChance = 0
	svc, players, _ := newGameFixture(rules)

	svc.Register(context.Background(), 1, "neo", "Neo")

	result, err := svc.Hack(context.Background(), 1)
	if err != nil {
		t.Fatalf("hack: %v", err)
	}
	if result.Success {
		t.Fatal("hack was pinned to fail")
	}
	if result.Experience != rules.Game.HackFailExp {
		t.Fatalf("expected consolation exp %d, got %d", rules.Game.HackFailExp, result.Experience)
	}
	if result.SoulLost != rules.Soul.HackFailLoss {
		t.Fatalf("expected %d soul lost, got %d", rules.Soul.HackFailLoss, result.SoulLost)
	}

	stored, _ := players.GetByID(context.Background(), 1)
	if stored.Soul.Current != 98 {
		t.Fatalf("expected soul 98 after a failed hack, got %d", stored.Soul.Current)
	}
	last := stored.Soul.History[len(stored.Soul.History)-1]
	if last.Change != -2 || last.Reason != "hack_failed" || last.NewValue != 98 {
		t.Fatalf("unexpected soul event: %+v", last)
	}
	if stored.Energy != rules.Game.StartEnergy-rules.Game.HackCost {
		t.Fatalf("energy not spent: %d", stored.Energy)
	}
	if stored.Stats.FailedHacks != 1 || stored.Stats.HacksDone != 1 {
		t.Fatalf("hack counters wrong: %+v", stored.Stats)
	}
}

func TestSuccessfulHackDropsArtifact(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 1
	rules.Game.HackLevelChance = 0
	svc, players, artifacts := newGameFixture(rules)

	svc.Register(context.Background(), 1, "neo", "Neo")

	result, err := svc.Hack(context.Background(), 1)
	if err != nil {
		t.Fatalf("hack: %v", err)
	}
	if !result.Success || result.Artifact == nil {
		t.Fatal("hack was pinned to succeed")
	}
	if result.Experience != rules.Game.HackWinExp+result.Artifact.Value/10 {
		t.Fatalf("exp must scale with artifact value, got %d", result.Experience)
	}
	if len(artifacts.created) != 1 {
		t.Fatalf("expected 1 artifact persisted, got %d", len(artifacts.created))
	}

	stored, _ := players.GetByID(context.Background(), 1)
	if len(stored.Inventory) != 1 || stored.Inventory[0] != result.Artifact.ID {
		t.Fatalf("artifact not in inventory: %+v", stored.Inventory)
	}
	if stored.Soul.Current != 100 {
		t.Fatalf("a successful hack must not cost soul, got %d", stored.Soul.Current)
	}
	if stored.Stats.SuccessfulHacks != 1 || stored.Stats.ArtifactsFound != 1 {
		t.Fatalf("success counters wrong: %+v", stored.Stats)
	}
}

func TestHackRejectsLowEnergy(t *testing.T) {
	p := basePlayer(1)
	p.Energy = 10
	p.LastEnergyRegen = time.Now()
	svc, _, _ := newGameFixture(config.DefaultRules(), p)

	if _, err := svc.Hack(context.Background(), 1); !errors.Is(err, ErrEnergyInsufficient) {
		t.Fatalf("expected ErrEnergyInsufficient, got %v", err)
	}
}

func TestHackCooldown(t *testing.T) {
	p := basePlayer(1)
	p.LastHackTime = time.Now()
	p.LastEnergyRegen = time.Now()
	svc, _, _ := newGameFixture(config.DefaultRules(), p)

	if _, err := svc.Hack(context.Background(), 1); !errors.Is(err, ErrHackCooldown) {
		t.Fatalf("expected ErrHackCooldown, got %v", err)
	}
}

func TestEnergyRegeneratesLazily(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 1
	p := basePlayer(1)
	p.Energy = 10
	// Five intervals owed: plus 50 energy before the cost check.
	p.LastEnergyRegen = time.Now().Add(-5 * time.Minute)
	svc, players, _ := newGameFixture(rules, p)

	result, err := svc.Hack(context.Background(), 1)
	if err != nil {
		t.Fatalf("hack: %v", err)
	}
	if result.EnergyLeft != 10+50-rules.Game.HackCost {
		t.Fatalf("expected regen before the cost, got %d", result.EnergyLeft)
	}

	stored, _ := players.GetByID(context.Background(), 1)
	if time.Since(stored.LastEnergyRegen) > time.Minute {
		t.Fatal("regen settlement must be stamped")
	}
}

func TestEnergyRegenClampsAtCap(t *testing.T) {
	p := basePlayer(1)
	p.Energy = 95
	p.MaxEnergy = 100
	p.LastEnergyRegen = time.Now().Add(-time.Hour)
	svc, players, _ := newGameFixture(config.DefaultRules(), p)

	if _, err := svc.GetProfile(context.Background(), 1); err != nil {
		t.Fatalf("profile: %v", err)
	}
	stored, _ := players.GetByID(context.Background(), 1)
	if stored.Energy != 100 {
		t.Fatalf("regen must clamp at the cap, got %d", stored.Energy)
	}
}

func TestLevelUpRaisesEnergyCap(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 0
	rules.Game.HackLevelChance = 0
	p := basePlayer(1)
	p.Experience = 98
	p.LastEnergyRegen = time.Now()
	svc, players, _ := newGameFixture(rules, p)

	// The consolation exp pushes 98 past the level 2 threshold of 100.
	if _, err := svc.Hack(context.Background(), 1); err != nil {
		t.Fatalf("hack: %v", err)
	}
	stored, _ := players.GetByID(context.Background(), 1)
	if stored.Level != 2 {
		t.Fatalf("expected level 2, got %d", stored.Level)
	}
	if stored.MaxEnergy != 120 {
		t.Fatalf("level 2 energy cap is 120, got %d", stored.MaxEnergy)
	}
}

func TestHackFeedsTwinLoop(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 1
	rules.Game.HackLevelChance = 0

	original := basePlayer(1)
	original.Twins = []model.TwinRecord{{ID: 2, JoinedAt: time.Now()}}
	shadow := basePlayer(2)
	shadow.Twin = &model.TwinBond{
		Original:     &model.OriginalSnapshot{Level: 1},
		BondStrength: 0.1,
	}
	shadow.LastEnergyRegen = time.Now()
	svc, players, _ := newGameFixture(rules, original, shadow)

	result, err := svc.Hack(context.Background(), 2)
	if err != nil {
		t.Fatalf("hack: %v", err)
	}

	storedOriginal, _ := players.GetByID(context.Background(), 1)
	wantShare := int(float64(result.Experience) * 0.05)
	if storedOriginal.Experience != wantShare {
		t.Fatalf("expected exp share %d, got %d", wantShare, storedOriginal.Experience)
	}
	storedShadow, _ := players.GetByID(context.Background(), 2)
	if storedShadow.Twin.BondStrength <= 0.1 {
		t.Fatal("bond must grow with each hack")
	}
}

func TestGetProfileAggregates(t *testing.T) {
	p := basePlayer(1)
	p.Username = "neo"
	p.Stars = 777
	p.Level = 2
	p.Experience = 150
	p.Stats.SuccessfulHacks = 3
	p.Stats.FailedHacks = 1
	p.PvP.Rating = 640
	p.LastEnergyRegen = time.Now()
	svc, _, _ := newGameFixture(config.DefaultRules(), p)

	profile, err := svc.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Username != "neo" || profile.Stars != 777 {
		t.Fatalf("identity fields wrong: %+v", profile)
	}
	if profile.SuccessRate != 75 {
		t.Fatalf("expected 75%% success, got %d", profile.SuccessRate)
	}
	if profile.NextLevelExp != 300 {
		t.Fatalf("level 3 needs 300 exp, got %d", profile.NextLevelExp)
	}
}

func TestArtifactValueVariance(t *testing.T) {
	rules := config.DefaultRules()
	rules.Game.HackBaseChance = 1
	svc, _, artifacts := newGameFixture(rules)

	svc.Register(context.Background(), 1, "neo", "Neo")
	for i := 0; i < 5; i++ {
		p, _ := svc.players.GetByID(context.Background(), int64(1))
		p.LastHackTime = time.Time{}
		p.Energy = 100
		svc.players.Update(context.Background(), p)
		if _, err := svc.Hack(context.Background(), 1); err != nil {
			t.Fatalf("hack %d: %v", i, err)
		}
	}

	for _, a := range artifacts.created {
		var base int
		for _, o := range rules.Game.Artifacts {
			if o.Rarity == string(a.Rarity) {
				base = o.Value
			}
		}
		low := int(float64(base) * 0.8)
		high := int(float64(base) * 1.2)
		if a.Value < low-1 || a.Value > high+1 {
			t.Errorf("artifact %s value %d outside ±20%% of %d", a.Rarity, a.Value, base)
		}
	}
}
