package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/orders"
)

// handleCommand возвращает false для незнакомых команд:
// они идут дальше как обычный текст.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		m := tgbotapi.NewMessage(chatID, orders.Greeting(b.minAmount))
		if b.isAdmin(userID) {
			m.ReplyMarkup = adminReplyKeyboard()
		} else {
			m.ReplyMarkup = userReplyKeyboard()
		}
		b.send(m)
		return true

	case "cancel":
		if b.states.Reset(ctx, userID) {
			b.reply(chatID, "❌ Действие отменено.")
		} else {
			b.reply(chatID, "❌ Нет активного действия для отмены.")
		}
		return true

	case "all":
		if b.isAdmin(userID) {
			b.startBroadcast(ctx, msg)
		}
		return true

	case "chat":
		if b.isAdmin(userID) {
			b.openChat(ctx, msg)
		}
		return true

	case "end":
		if b.isAdmin(userID) {
			b.closeChat(msg)
		}
		return true

	case "users":
		if b.isAdmin(userID) {
			b.exportUsers(ctx, chatID)
		}
		return true
	}
	return false
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == orders.SellButton {
		b.onSellIntent(ctx, msg)
		return
	}

	st := b.states.Get(ctx, msg.From.ID)
	switch st.State {
	case dialog.StateAwaitAmount:
		b.processAmount(ctx, msg)
		return
	case dialog.StateAwaitBroadcast:
		b.processBroadcast(ctx, msg)
		return
	}

	b.onPlainMessage(msg)
}

// onPlainMessage всё, что не команда и не ввод в диалоге:
// пересылка в открытом чате админа или напоминание про кнопку.
func (b *Bot) onPlainMessage(msg *tgbotapi.Message) {
	userID := msg.From.ID

	if b.isAdmin(userID) {
		if target, ok := b.chat.Active(); ok {
			b.relayToUser(msg, target)
		}
		return
	}

	if b.chat.IsWith(userID) {
		b.relayToAdmin(msg)
		return
	}

	if msg.Text == "" || !strings.HasPrefix(msg.Text, "/") {
		b.reply(msg.Chat.ID, "Используйте кнопку «"+orders.SellButton+"» для создания заявки.")
	}
}
