package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/dialog"
)

// startBroadcast /all: дальше ждём одно сообщение любого типа.
func (b *Bot) startBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID,
		"Отправьте сообщение (текст, фото, видео, документ и т.п.) для рассылки всем пользователям.\n"+
			"Или отправьте /cancel для отмены.")
	b.states.Set(ctx, msg.From.ID, dialog.StateAwaitBroadcast)
}

func (b *Bot) processBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	defer b.states.Reset(ctx, userID)

	if !b.isAdmin(userID) {
		return
	}

	ids, err := b.users.ListIDs(ctx)
	if err != nil {
		b.log.Error("list users failed", "err", err)
		b.reply(chatID, "Не удалось получить список пользователей.")
		return
	}
	if len(ids) == 0 {
		b.reply(chatID, "Список пользователей пуст.")
		return
	}

	b.reply(chatID, fmt.Sprintf("Начинаю рассылку %d пользователям...", len(ids)))

	res := b.bcast.Run(ctx, ids, func(_ context.Context, to int64) error {
		return b.copyMessage(to, msg)
	})

	b.log.Info("broadcast done", "total", res.Total, "sent", res.Sent, "failed", res.Failed, "retried", res.Retried)
	b.reply(chatID, fmt.Sprintf("✅ Рассылка завершена.\nВсего: %d\nУспешно: %d\nНе удалось: %d", res.Total, res.Sent, res.Failed))
}
