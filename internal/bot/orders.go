package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/orders"
	"github.com/Spok95/robux-bot/internal/infra/metrics"
	"github.com/Spok95/robux-bot/internal/ratelimit"
)

func (b *Bot) onSellIntent(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.isAdmin(msg.From.ID) {
		b.reply(chatID, "❌ Эта функция доступна только покупателям.")
		return
	}
	b.reply(chatID, orders.AskAmount(b.minAmount))
	b.states.Set(ctx, msg.From.ID, dialog.StateAwaitAmount)
}

// processAmount ввод количества в состоянии AwaitAmount.
// Ошибки ввода оставляют состояние, отказ по лимиту и успех сбрасывают в Idle.
func (b *Bot) processAmount(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	from := msg.From

	amount, err := orders.ParseAmount(msg.Text, b.minAmount)
	switch {
	case errors.Is(err, orders.ErrNotInteger):
		b.rejected(metrics.ReasonNotInteger)
		b.reply(chatID, orders.NotInteger())
		return
	case errors.Is(err, orders.ErrBelowMinimum):
		b.rejected(metrics.ReasonBelowMinimum)
		b.reply(chatID, orders.BelowMinimum(b.minAmount))
		return
	}

	now := b.now()
	if ok, wait := b.gate.CanSubmit(from.ID, now); !ok {
		h, m := ratelimit.SplitHoursMinutes(wait)
		b.rejected(metrics.ReasonRateLimited)
		b.reply(chatID, orders.RateLimited(h, m))
		b.states.Reset(ctx, from.ID)
		return
	}

	lot := orders.NewLot(orders.NewCode(b.codes), amount)
	b.reply(chatID, orders.LotCreated(lot.Code))

	adminMsg := tgbotapi.NewMessage(b.adminID, orders.AdminSummary(lot, orders.ContactLink(from.ID, from.UserName)))
	adminMsg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(adminMsg); err != nil {
		b.log.Error("lot delivery to admin failed", "lot", lot.Code, "user_id", from.ID, "err", err)
	}

	b.gate.Record(from.ID, now)
	b.states.Reset(ctx, from.ID)
	if b.metrics != nil {
		b.metrics.LotsCreated.Inc()
	}
	b.log.Info("lot created", "lot", lot.Code, "user_id", from.ID, "amount", lot.Amount)
}

func (b *Bot) rejected(reason string) {
	if b.metrics != nil {
		b.metrics.OrdersRejected.WithLabelValues(reason).Inc()
	}
}
