package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/broadcast"
	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/orders"
	"github.com/Spok95/robux-bot/internal/domain/users"
	"github.com/Spok95/robux-bot/internal/infra/metrics"
	"github.com/Spok95/robux-bot/internal/ratelimit"
	"github.com/Spok95/robux-bot/internal/relay"
)

// Messenger часть *tgbotapi.BotAPI, которой пользуется бот.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api       Messenger
	log       *slog.Logger
	users     users.Directory
	states    *dialog.Repo
	gate      *ratelimit.Gate
	chat      *relay.Slot
	bcast     *broadcast.Broadcaster
	metrics   *metrics.Metrics
	adminID   int64
	minAmount int

	now   func() time.Time
	codes orders.CodeSource
}

func New(api Messenger, log *slog.Logger,
	usersRepo users.Directory, statesRepo *dialog.Repo,
	gate *ratelimit.Gate, bcast *broadcast.Broadcaster,
	m *metrics.Metrics, adminID int64, minAmount int) *Bot {

	return &Bot{
		api: api, log: log, users: usersRepo, states: statesRepo,
		gate: gate, chat: &relay.Slot{}, bcast: bcast,
		metrics: m, adminID: adminID, minAmount: minAmount,
		now: time.Now, codes: orders.DefaultCodeSource,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			}
		}
	}
}

func (b *Bot) setCommands() {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Начать"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить текущее действие"},
	)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Warn("set commands failed", "err", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool { return userID == b.adminID }

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg.From == nil || msg.Chat == nil {
		return
	}
	b.touchUser(ctx, msg.From)

	if msg.IsCommand() && b.handleCommand(ctx, msg) {
		return
	}
	b.handleStateMessage(ctx, msg)
}

// touchUser заносит отправителя в справочник при любом сообщении.
func (b *Bot) touchUser(ctx context.Context, from *tgbotapi.User) {
	tg := users.Telegram{ID: from.ID, Username: from.UserName, FirstName: from.FirstName}
	if _, err := b.users.Upsert(ctx, tg, b.now()); err != nil {
		b.log.Error("user upsert failed", "user_id", from.ID, "err", err)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// copyMessage копирует сообщение как есть (тип, медиа, подпись).
func (b *Bot) copyMessage(to int64, msg *tgbotapi.Message) error {
	_, err := b.api.Request(tgbotapi.NewCopyMessage(to, msg.Chat.ID, msg.MessageID))
	return err
}
