package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/infra/metrics"
	"github.com/Spok95/robux-bot/internal/relay"
)

const (
	chatStartedNotice = "👤 Администратор начал с вами диалог. Теперь вы можете общаться через этого бота. Напишите ваше сообщение."
	chatEndedNotice   = "🔚 Администратор завершил диалог. Если у вас остались вопросы, вы можете снова отправить заявку через кнопку."
)

// openChat /chat <username|id>.
func (b *Bot) openChat(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if _, active := b.chat.Active(); active {
		b.reply(chatID, "⚠️ У вас уже есть активный чат. Сначала завершите его командой /end.")
		return
	}

	target, err := relay.Resolve(ctx, b.users, msg.CommandArguments(), b.adminID)
	switch {
	case errors.Is(err, relay.ErrNoTarget):
		b.reply(chatID, "Укажите пользователя: /chat <username или id>")
		return
	case errors.Is(err, relay.ErrNotFound):
		b.reply(chatID, "Пользователь с таким username не найден в базе.")
		return
	case errors.Is(err, relay.ErrSelfTarget):
		b.reply(chatID, "Нельзя начать чат с самим собой.")
		return
	case err != nil:
		b.log.Error("resolve chat target failed", "err", err)
		b.reply(chatID, "Не удалось найти пользователя, попробуйте позже.")
		return
	}

	// бот не может написать первым тому, кто его не запускал: тогда чат не открываем
	if _, err := b.api.Send(tgbotapi.NewMessage(target, chatStartedNotice)); err != nil {
		b.reply(chatID, fmt.Sprintf("❌ Не удалось отправить сообщение пользователю. Возможно, он не начинал диалог с ботом. Ошибка: %v", err))
		return
	}

	if err := b.chat.Open(target); err != nil {
		b.reply(chatID, "⚠️ У вас уже есть активный чат. Сначала завершите его командой /end.")
		return
	}

	name := strconv.FormatInt(target, 10)
	if u, err := b.users.Get(ctx, target); err == nil && u != nil {
		name = u.DisplayName()
	}
	b.log.Info("admin chat opened", "user_id", target)
	b.reply(chatID, fmt.Sprintf("✅ Чат с пользователем %s (ID: %d) начат. Все ваши следующие сообщения будут пересылаться ему. Для завершения используйте /end.", name, target))
}

// closeChat /end. Если собеседник не получил уведомление, чат всё равно закрывается.
func (b *Bot) closeChat(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	target, err := b.chat.Close()
	if errors.Is(err, relay.ErrNoActiveChat) {
		b.reply(chatID, "Нет активного чата.")
		return
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(target, chatEndedNotice)); err != nil {
		b.log.Warn("chat end notice failed", "user_id", target, "err", err)
	}
	b.log.Info("admin chat closed", "user_id", target)
	b.reply(chatID, "✅ Чат завершён.")
}

func (b *Bot) relayToUser(msg *tgbotapi.Message, target int64) {
	if err := b.copyMessage(target, msg); err != nil {
		b.relayed(metrics.DirectionToUser, metrics.ResultFailed)
		b.log.Error("relay to user failed", "user_id", target, "err", err)
		_, _ = b.chat.Close()
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ Не удалось отправить сообщение пользователю: %v", err))
		b.reply(msg.Chat.ID, "⚠️ Чат завершён из-за ошибки отправки.")
		return
	}
	b.relayed(metrics.DirectionToUser, metrics.ResultSent)
}

// relayToAdmin ошибка только логируется, отправитель о ней не узнаёт.
func (b *Bot) relayToAdmin(msg *tgbotapi.Message) {
	if err := b.copyMessage(b.adminID, msg); err != nil {
		b.relayed(metrics.DirectionToAdmin, metrics.ResultFailed)
		b.log.Error("relay to admin failed", "user_id", msg.From.ID, "err", err)
		return
	}
	b.relayed(metrics.DirectionToAdmin, metrics.ResultSent)
}

func (b *Bot) relayed(direction, result string) {
	if b.metrics != nil {
		b.metrics.RelayMessages.WithLabelValues(direction, result).Inc()
	}
}
