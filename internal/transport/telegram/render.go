package telegram

import (
	"fmt"
	"strings"

	"sentinel-echo/internal/model"
	"sentinel-echo/internal/service"
)

// soulBar renders a ten-segment soul gauge.
func soulBar(current, max int) string {
	if max <= 0 {
		return ""
	}
	filled := current * 10 / max
	return strings.Repeat("💀", filled) + strings.Repeat("🕊", 10-filled)
}

func energyBar(current, max int) string {
	if max <= 0 {
		return ""
	}
	filled := current * 10 / max
	return strings.Repeat("⚡", filled) + strings.Repeat("▫️", 10-filled)
}

func renderSoul(status *service.SoulStatus, history []model.SoulEvent) string {
	var b strings.Builder
	b.WriteString("💀 *SOUL STATE*\n\n")
	b.WriteString(soulBar(status.Current, status.Max) + "\n")
	fmt.Fprintf(&b, "*%d/%d* (%d%%)\n", status.Current, status.Max, status.Percentage)
	if status.IsDead {
		b.WriteString("\n🪦 Your soul is depleted. A twin can bring you back with /resurrect.\n")
	} else if status.IsCritical {
		b.WriteString("\n⚠️ Your soul is fading. Win battles or stay active to restore it.\n")
	}

	if len(history) > 0 {
		b.WriteString("\n📜 *Recent history:*\n")
		start := len(history) - 5
		if start < 0 {
			start = 0
		}
		for i := len(history) - 1; i >= start; i-- {
			e := history[i]
			sign := ""
			if e.Change > 0 {
				sign = "+"
			}
			fmt.Fprintf(&b, "%s: %s%d 💀 (%s)\n",
				e.Timestamp.Format("02.01 15:04"), sign, e.Change, e.Reason)
		}
	}
	return b.String()
}

func renderProfile(p *service.Profile) string {
	var b strings.Builder
	b.WriteString("👤 *SENTINEL PROFILE*\n\n")
	fmt.Fprintf(&b, "⭐ Stars: %d\n", p.Stars)
	fmt.Fprintf(&b, "⚡ Energy: %d/%d\n%s\n", p.Energy, p.MaxEnergy, energyBar(p.Energy, p.MaxEnergy))
	fmt.Fprintf(&b, "📊 Level %d — %d/%d exp\n", p.Level, p.Experience, p.NextLevelExp)
	fmt.Fprintf(&b, "🔓 Hacks: %d (%d%% success)\n", p.HacksDone, p.SuccessRate)
	fmt.Fprintf(&b, "🔮 Artifacts: %d\n", p.ArtifactsFound)
	fmt.Fprintf(&b, "⚔️ Rating: %d\n", p.PvPRating)
	if p.TwinFeeling != "" {
		fmt.Fprintf(&b, "\n%s\n🤝 Bond: %.0f%%\n", p.TwinFeeling, p.TwinBond*100)
	}
	return b.String()
}

func renderHack(r *service.HackResult) string {
	var b strings.Builder
	if r.Success {
		b.WriteString("✅ *HACK SUCCESSFUL!*\n\n")
		a := r.Artifact
		fmt.Fprintf(&b, "%s *%s* (%s)\n💰 Value: %d⭐\n", rarityIcon(a.Rarity), a.Name, a.Rarity, a.Value)
		if a.Story != "" {
			fmt.Fprintf(&b, "\n_%s_\n_%s_\n", a.LoreName, a.Story)
		}
	} else {
		b.WriteString("❌ *HACK FAILED!* The system held.\n")
		if r.SoulLost > 0 {
			fmt.Fprintf(&b, "💀 -%d soul\n", r.SoulLost)
		}
	}
	fmt.Fprintf(&b, "\n🎯 +%d exp\n⚡ %d energy left\n", r.Experience, r.EnergyLeft)
	return b.String()
}

func renderAttack(r *service.AttackResult) string {
	if r.Finished {
		if r.Draw {
			return fmt.Sprintf("🤝 Draw! (%s)", r.DrawReason)
		}
		return fmt.Sprintf("🏆 The battle is over!\n💥 Final blow: %d damage", r.Damage)
	}

	var b strings.Builder
	switch {
	case r.IsMemoryStrike && r.IsCrit:
		fmt.Fprintf(&b, "💢💫 MEGA HIT! %d damage!\n", r.Damage)
	case r.IsMemoryStrike:
		fmt.Fprintf(&b, "💫 Memory Strike! %d damage!\n", r.Damage)
	case r.IsCrit:
		fmt.Fprintf(&b, "💢 CRIT! %d damage!\n", r.Damage)
	default:
		fmt.Fprintf(&b, "💥 %d damage\n", r.Damage)
	}
	fmt.Fprintf(&b, "\n❤️ You: %d  🖤 Enemy: %d\n⏳ Round %d — opponent's turn", r.YourHealth, r.EnemyHealth, r.Round)
	return b.String()
}

func rarityIcon(r model.Rarity) string {
	switch r {
	case model.RarityMythic:
		return "🌌"
	case model.RarityLegendary:
		return "🌟"
	case model.RarityEpic:
		return "💜"
	case model.RarityRare:
		return "💙"
	default:
		return "⚪"
	}
}
