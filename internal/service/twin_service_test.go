package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"sentinel-echo/internal/config"
	"sentinel-echo/internal/model"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func basePlayer(id int64) *model.Player {
	return &model.Player{
		TelegramID: id,
		Username:   "player",
		Level:      1,
		Energy:     50,
		MaxEnergy:  100,
		Soul:       &model.Soul{Current: 100, Max: 100, LastDecay: time.Now()},
		CreatedAt:  time.Now().Add(-10 * 24 * time.Hour),
	}
}

func TestAssignTwinBindsToRealOriginal(t *testing.T) {
	original := basePlayer(1)
	original.Level = 6
	original.Stats.HacksDone = 250
	shadow := basePlayer(2)
	players := newFakePlayers(original, shadow)
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.AssignTwin(context.Background(), 2); err != nil {
		t.Fatalf("assign twin: %v", err)
	}

	storedOriginal, _ := players.GetByID(context.Background(), 1)
	if len(storedOriginal.Twins) != 1 || storedOriginal.Twins[0].ID != 2 {
		t.Fatalf("original must list the shadow: %+v", storedOriginal.Twins)
	}
	if storedOriginal.Stats.TwinCount != 1 {
		t.Fatalf("expected twin count 1, got %d", storedOriginal.Stats.TwinCount)
	}

	storedShadow, _ := players.GetByID(context.Background(), 2)
	bond := storedShadow.Twin
	if bond == nil || bond.Original == nil {
		t.Fatal("shadow must carry a bond with a snapshot")
	}
	if bond.IsVirtual {
		t.Fatal("with a candidate around the bond must not be virtual")
	}
	if bond.BondStrength != 0.1 {
		t.Fatalf("expected initial bond 0.1, got %v", bond.BondStrength)
	}
	if bond.Original.Level != 6 || bond.Original.HacksDone != 250 {
		t.Fatalf("snapshot does not match the original: %+v", bond.Original)
	}
}

func TestAssignTwinFallsBackToVirtual(t *testing.T) {
	// The only other player already has a full twin roster.
	full := basePlayer(1)
	full.Stats.TwinCount = 3
	shadow := basePlayer(2)
	players := newFakePlayers(full, shadow)
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.AssignTwin(context.Background(), 2); err != nil {
		t.Fatalf("assign twin: %v", err)
	}

	storedShadow, _ := players.GetByID(context.Background(), 2)
	bond := storedShadow.Twin
	if bond == nil || !bond.IsVirtual {
		t.Fatal("expected a virtual bond")
	}
	if bond.BondStrength != 0.2 {
		t.Fatalf("expected virtual bond 0.2, got %v", bond.BondStrength)
	}
	if bond.Original == nil || bond.Original.Level < 5 || bond.Original.Level > 9 {
		t.Fatalf("virtual snapshot out of range: %+v", bond.Original)
	}

	storedFull, _ := players.GetByID(context.Background(), 1)
	if len(storedFull.Twins) != 0 {
		t.Fatal("full original must not gain a shadow")
	}

	// The fabricated level stays inside 5..9 on every roll.
	for i := 0; i < 50; i++ {
		if err := svc.AssignTwin(context.Background(), 2); err != nil {
			t.Fatalf("assign twin: %v", err)
		}
		stored, _ := players.GetByID(context.Background(), 2)
		if lvl := stored.Twin.Original.Level; lvl < 5 || lvl > 9 {
			t.Fatalf("virtual level %d out of range", lvl)
		}
	}
}

func TestOnTwinHackRoutesExperienceShare(t *testing.T) {
	original := basePlayer(1)
	original.Twins = []model.TwinRecord{{ID: 2, JoinedAt: time.Now()}}
	shadow := basePlayer(2)
	shadow.Level = 4
	shadow.Twin = &model.TwinBond{
		Original:     &model.OriginalSnapshot{Level: 3},
		BondStrength: 0.1,
	}
	players := newFakePlayers(original, shadow)
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.OnTwinHack(context.Background(), 2, 100); err != nil {
		t.Fatalf("on twin hack: %v", err)
	}

	storedOriginal, _ := players.GetByID(context.Background(), 1)
	if storedOriginal.Experience != 5 {
		t.Fatalf("expected 5%% share (5 exp), got %d", storedOriginal.Experience)
	}
	if storedOriginal.Twins[0].Contribution != 5 {
		t.Fatalf("contribution not recorded: %+v", storedOriginal.Twins[0])
	}
	if storedOriginal.Twins[0].Level != 4 {
		t.Fatalf("twin record level not synced, got %d", storedOriginal.Twins[0].Level)
	}

	storedShadow, _ := players.GetByID(context.Background(), 2)
	if diff := storedShadow.Twin.BondStrength - 0.101; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("expected bond 0.101, got %v", storedShadow.Twin.BondStrength)
	}
	if storedShadow.Stats.TwinContributions != 5 {
		t.Fatalf("shadow contribution counter wrong: %d", storedShadow.Stats.TwinContributions)
	}
}

func TestOnTwinHackBondSaturates(t *testing.T) {
	shadow := basePlayer(2)
	shadow.Twin = &model.TwinBond{
		Original:     &model.OriginalSnapshot{Level: 5},
		BondStrength: 0.9999,
		IsVirtual:    true,
	}
	players := newFakePlayers(shadow)
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.OnTwinHack(context.Background(), 2, 20); err != nil {
		t.Fatalf("on twin hack: %v", err)
	}

	stored, _ := players.GetByID(context.Background(), 2)
	if stored.Twin.BondStrength != 1 {
		t.Fatalf("bond must saturate at 1.0, got %v", stored.Twin.BondStrength)
	}
}

func TestOnTwinHackWithoutBondIsNoOp(t *testing.T) {
	players := newFakePlayers(basePlayer(2))
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.OnTwinHack(context.Background(), 2, 100); err != nil {
		t.Fatalf("on twin hack: %v", err)
	}
	if players.updates[2] != 0 {
		t.Fatal("unbonded shadow must not be written")
	}
}

func TestOnOriginalHackGrantsShadowEnergy(t *testing.T) {
	original := basePlayer(1)
	original.Twins = []model.TwinRecord{{ID: 2}, {ID: 3}}
	lowEnergy := basePlayer(2)
	lowEnergy.Energy = 10
	capped := basePlayer(3)
	capped.Energy = capped.MaxEnergy
	players := newFakePlayers(original, lowEnergy, capped)
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	if err := svc.OnOriginalHack(context.Background(), 1); err != nil {
		t.Fatalf("on original hack: %v", err)
	}

	stored2, _ := players.GetByID(context.Background(), 2)
	if stored2.Energy != 11 {
		t.Fatalf("expected +1 energy, got %d", stored2.Energy)
	}
	stored3, _ := players.GetByID(context.Background(), 3)
	if stored3.Energy != stored3.MaxEnergy {
		t.Fatalf("energy bonus must clamp at the cap, got %d", stored3.Energy)
	}
}

func TestFeelingTiers(t *testing.T) {
	tests := []struct {
		strength float64
		want     string
	}{
		{0.05, "🔮 You sense a distant presence somewhere..."},
		{0.15, "✨ Sometimes you catch thoughts that are not yours. Old, but warm."},
		{0.4, "💫 You know someone is proud of you. You don't know who. But it warms you."},
		{0.6, "🌟 You watch the same stars. At different times. In different places."},
		{0.8, "⚡ You hear an echo of their voice. It calls you \"Sentinel\"."},
		{0.95, "💞 You will meet soon. You don't know how. But you know it."},
	}
	for _, tt := range tests {
		if got := feelingTier(tt.strength); got != tt.want {
			t.Errorf("feelingTier(%v) = %q, want %q", tt.strength, got, tt.want)
		}
	}
}

func TestFeelingWithoutTwin(t *testing.T) {
	players := newFakePlayers(basePlayer(1))
	svc := NewTwinService(players, config.DefaultRules(), testRand())

	feeling, err := svc.Feeling(context.Background(), 1)
	if err != nil {
		t.Fatalf("feeling: %v", err)
	}
	if feeling != nil {
		t.Fatalf("expected nil feeling without a bond, got %+v", feeling)
	}
}
