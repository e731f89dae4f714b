package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sentinel-echo/internal/config"
	"sentinel-echo/internal/repository"
	"sentinel-echo/internal/service"
)

// Bot dispatches chat commands and callbacks to the game services and
// renders results as Markdown. Pure glue: no game rules live here.
type Bot struct {
	api     *tgbotapi.BotAPI
	game    *service.GameService
	soul    *service.SoulService
	twins   *service.TwinService
	pvp     *service.PvPService
	players repository.PlayerRepo
	rules   *config.Rules
}

func NewBot(
	api *tgbotapi.BotAPI,
	game *service.GameService,
	soul *service.SoulService,
	twins *service.TwinService,
	pvp *service.PvPService,
	players repository.PlayerRepo,
	rules *config.Rules,
) *Bot {
	return &Bot{
		api:     api,
		game:    game,
		soul:    soul,
		twins:   twins,
		pvp:     pvp,
		players: players,
		rules:   rules,
	}
}

// Run consumes the update stream until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message != nil && update.Message.IsCommand() {
				b.handleCommand(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	username := msg.From.UserName
	if username == "" {
		username = msg.From.FirstName
	}
	log.Printf("command from %s: %s", username, msg.Text)

	reply := tgbotapi.NewMessage(msg.Chat.ID, "")
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyToMessageID = msg.MessageID

	switch msg.Command() {
	case "start":
		reply.Text = b.handleStart(ctx, userID, username, msg.From.FirstName)
	case "help":
		reply.Text = helpText
	case "hack":
		reply.Text = b.handleHack(ctx, userID)
	case "profile":
		reply.Text = b.handleProfile(ctx, userID)
	case "soul":
		reply.Text = b.handleSoul(ctx, userID)
	case "resurrect":
		reply.Text = b.handleResurrect(ctx, userID, msg.CommandArguments())
	case "twin":
		reply.Text = b.handleTwin(ctx, userID)
	case "pvp":
		text, keyboard := b.handleJoinQueue(ctx, userID)
		reply.Text = text
		if keyboard != nil {
			reply.ReplyMarkup = keyboard
		}
	case "attack":
		text, keyboard := b.handleAttack(ctx, userID, "")
		reply.Text = text
		if keyboard != nil {
			reply.ReplyMarkup = keyboard
		}
	case "stats":
		reply.Text = b.handlePvPStats(ctx, userID)
	case "league":
		reply.Text = b.handleLeague(ctx, userID)
	case "souls":
		reply.Text = b.handleTopSouls(ctx)
	case "fame":
		reply.Text = b.handleFame(ctx)
	default:
		reply.Text = "Unknown command. Try /help"
	}

	if _, err := b.api.Send(reply); err != nil {
		log.Printf("send reply: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Callbacks from old or inaccessible messages carry no chat to reply to.
	if cb.Message == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("ack callback: %v", err)
	}

	var text string
	var keyboard *tgbotapi.InlineKeyboardMarkup
	switch {
	case strings.HasPrefix(cb.Data, "attack:"):
		text, keyboard = b.handleAttack(ctx, cb.From.ID, strings.TrimPrefix(cb.Data, "attack:"))
	default:
		return
	}

	reply := tgbotapi.NewMessage(cb.Message.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		reply.ReplyMarkup = keyboard
	}
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("send callback reply: %v", err)
	}
}

func (b *Bot) handleStart(ctx context.Context, userID int64, username, firstName string) string {
	res, err := b.game.Register(ctx, userID, username, firstName)
	if err != nil {
		return errText(err)
	}
	if !res.IsNew {
		return "Welcome back, Sentinel. The network remembers you."
	}
	return "🎮 *Welcome to Sentinel: Echo!*\n\n" +
		"You are not alone. Somewhere in the network there is one whose " +
		"digital trace created you. You are their shadow. They don't know " +
		"you. But they feel you.\n\n" +
		"Use /hack to begin. /help lists everything else."
}

func (b *Bot) handleHack(ctx context.Context, userID int64) string {
	res, err := b.game.Hack(ctx, userID)
	if err != nil {
		return errText(err)
	}
	return renderHack(res)
}

func (b *Bot) handleProfile(ctx context.Context, userID int64) string {
	profile, err := b.game.GetProfile(ctx, userID)
	if err != nil {
		return errText(err)
	}
	return renderProfile(profile)
}

func (b *Bot) handleSoul(ctx context.Context, userID int64) string {
	status, err := b.soul.Status(ctx, userID)
	if err != nil {
		return errText(err)
	}
	player, err := b.players.GetByID(ctx, userID)
	if err != nil || player == nil || player.Soul == nil {
		return errText(service.ErrSoulNotInitialized)
	}
	return renderSoul(status, player.Soul.History)
}

func (b *Bot) handleResurrect(ctx context.Context, userID int64, args string) string {
	target := strings.TrimSpace(args)
	if target == "" {
		return "Name the fallen: `/resurrect @username`"
	}
	target = strings.TrimPrefix(target, "@")

	targetPlayer, err := b.players.GetByUsername(ctx, target)
	if err != nil {
		return errText(err)
	}
	if targetPlayer == nil {
		return errText(service.ErrPlayerNotFound)
	}

	res, err := b.soul.Resurrect(ctx, userID, targetPlayer.TelegramID)
	if err != nil {
		return errText(err)
	}
	return fmt.Sprintf("✨ *You sacrificed part of your soul and brought your twin back.*\n\n"+
		"Your soul: %d%%\nTheir soul: %d%%\n\nThe bond grows stronger.",
		res.RescuerSoul, res.TargetSoul)
}

func (b *Bot) handleTwin(ctx context.Context, userID int64) string {
	feeling, err := b.twins.Feeling(ctx, userID)
	if err != nil {
		return errText(err)
	}
	if feeling == nil {
		return "🔮 No bond yet. The network is still searching."
	}
	var sb strings.Builder
	sb.WriteString(feeling.Feeling + "\n\n")
	fmt.Fprintf(&sb, "🤝 Bond strength: %.0f%%\n", feeling.Strength*100)
	if feeling.OriginalLevel > 0 {
		fmt.Fprintf(&sb, "👁 You sense them at level %d, %d hacks behind them.\n",
			feeling.OriginalLevel, feeling.OriginalHacks)
	}
	return sb.String()
}

func (b *Bot) handleJoinQueue(ctx context.Context, userID int64) (string, *tgbotapi.InlineKeyboardMarkup) {
	res, err := b.pvp.JoinQueue(ctx, userID)
	if err != nil {
		return errText(err), nil
	}
	if !res.MatchFound {
		return "⏳ Searching for an opponent... You are in the queue.", nil
	}

	m := res.Match
	l1 := b.rules.LeagueFor(0)
	l2 := l1
	if p1, err := b.players.GetByID(ctx, m.Player1); err == nil && p1 != nil {
		l1 = b.rules.LeagueFor(p1.PvP.Rating)
	}
	if p2, err := b.players.GetByID(ctx, m.Player2); err == nil && p2 != nil {
		l2 = b.rules.LeagueFor(p2.PvP.Rating)
	}

	text := fmt.Sprintf("⚔️ *Opponent found!*\n📊 %s %s vs %s %s\n\nRound %d",
		l1.Icon, l1.Name, l2.Icon, l2.Name, m.Round)
	if m.Turn == userID {
		text += "\n🎯 Your move!"
	} else {
		text += "\n⏳ Opponent moves first."
	}
	kb := attackKeyboard(m.ID)
	return text, &kb
}

func (b *Bot) handleAttack(ctx context.Context, userID int64, matchID string) (string, *tgbotapi.InlineKeyboardMarkup) {
	if matchID == "" {
		match := b.pvp.ActiveMatch(userID)
		if match == nil {
			return errText(service.ErrMatchNotFound), nil
		}
		matchID = match.ID
	}

	res, err := b.pvp.Attack(ctx, userID, matchID)
	if err != nil {
		return errText(err), nil
	}
	if res.Finished {
		return renderAttack(res), nil
	}
	kb := attackKeyboard(matchID)
	return renderAttack(res), &kb
}

func (b *Bot) handlePvPStats(ctx context.Context, userID int64) string {
	stats, err := b.pvp.GetPlayerStats(ctx, userID)
	if err != nil {
		return errText(err)
	}
	return fmt.Sprintf("⚔️ *ARENA RECORD*\n\n%s %s\n\n"+
		"🏅 Rating: %d\n✅ Wins: %d\n❌ Losses: %d (%d%% winrate)\n"+
		"💀 Soul: %d\n💫 Memory strikes: %d",
		stats.LeagueIcon, stats.LeagueTitle,
		stats.Rating, stats.Wins, stats.Losses, stats.WinRate,
		stats.Soul, stats.MemoryStrikes)
}

func (b *Bot) handleLeague(ctx context.Context, userID int64) string {
	stats, err := b.pvp.GetLeagueStats(ctx, userID)
	if err != nil {
		return errText(err)
	}
	return fmt.Sprintf("%s *%s League*\n\n"+
		"📍 Position: %d of %d\n"+
		"⬆️ To promotion: %d rating (%s)\n"+
		"⬇️ To relegation: %d rating",
		stats.Icon, stats.League,
		stats.Position, stats.TotalInLeague,
		stats.ToPromotion, stats.NextLeague,
		stats.ToRelegation)
}

func (b *Bot) handleTopSouls(ctx context.Context) string {
	top, err := b.soul.TopSouls(ctx, 10)
	if err != nil {
		return errText(err)
	}
	if len(top) == 0 {
		return "The network is empty. No souls to show."
	}
	var sb strings.Builder
	sb.WriteString("💀 *STRONGEST SOULS*\n\n")
	for i, p := range top {
		fmt.Fprintf(&sb, "%d. @%s — %d 💀 (lvl %d)\n", i+1, p.Username, p.Soul.Current, p.Level)
	}
	return sb.String()
}

func (b *Bot) handleFame(ctx context.Context) string {
	fallen, err := b.soul.HallOfFame(ctx, 10)
	if err != nil {
		return errText(err)
	}
	if len(fallen) == 0 {
		return "🕯 The Hall of Fame is still empty. No one has fallen forever."
	}
	var sb strings.Builder
	sb.WriteString("🕯 *HALL OF FAME*\nThose who fell and were not brought back:\n\n")
	for _, r := range fallen {
		fmt.Fprintf(&sb, "💀 @%s — lvl %d, %d artifacts (%s)\n",
			r.Username, r.Level, r.ArtifactsFound, r.DiedAt.Format("02.01.2006"))
	}
	return sb.String()
}

func attackKeyboard(matchID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚔️ Attack", "attack:"+matchID),
		),
	)
}

// errText maps domain errors to user-facing text. Anything unrecognized is
// logged and reported generically.
func errText(err error) string {
	switch {
	case errors.Is(err, service.ErrPlayerNotFound):
		return "❌ Player not found. Start with /start"
	case errors.Is(err, service.ErrSoulNotInitialized):
		return "❌ The soul system is not available for this player."
	case errors.Is(err, service.ErrInsufficientSoul):
		return "❌ Not enough soul for the sacrifice."
	case errors.Is(err, service.ErrCooldownActive):
		return "⏳ You can resurrect once every 7 days."
	case errors.Is(err, service.ErrEnergyInsufficient):
		return "🔋 Not enough energy. It regenerates over time."
	case errors.Is(err, service.ErrSoulDepleted):
		return "💀 Your soul is depleted! You need to be resurrected first."
	case errors.Is(err, service.ErrNotYourTurn):
		return "⏳ Not your turn!"
	case errors.Is(err, service.ErrMatchNotFound):
		return "❌ No active battle. Join with /pvp"
	case errors.Is(err, service.ErrSelfMatch):
		return "⏳ Searching for an opponent..."
	case errors.Is(err, service.ErrHackCooldown):
		return "⏳ The system noticed you. Wait before the next hack."
	case errors.Is(err, service.ErrTargetNotFallen):
		return "❌ That player's soul is not depleted."
	default:
		log.Printf("command failed: %v", err)
		return "❌ Something went wrong. Try again later."
	}
}

const helpText = `📋 *COMMANDS*

🎮 *Game:*
/hack — hack the system for loot
/profile — your profile
/soul — soul state and history

👥 *Twins:*
/twin — feel your bond
/resurrect @username — bring a fallen twin back

⚔️ *Arena:*
/pvp — join matchmaking
/attack — strike in your active battle
/stats — arena record
/league — league standing

📊 *Boards:*
/souls — strongest souls
/fame — hall of fame`
