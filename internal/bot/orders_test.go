package bot

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/orders"
	"github.com/Spok95/robux-bot/internal/infra/metrics"
)

func TestStart_KeyboardByRole(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, "/start")
	msgs := h.api.messages(sellerUser.ID)
	require.Len(t, msgs, 1)
	assert.True(t, strings.Contains(msgs[0].Text, "Минимум: от 10 Robux"))
	kb, ok := msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, orders.SellButton, kb.Keyboard[0][0].Text)

	h.say(adminUser, "/start")
	msgs = h.api.messages(adminID)
	require.Len(t, msgs, 1)
	_, ok = msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)
}

func TestSell_Success(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, orders.SellButton)
	assert.Equal(t, orders.AskAmount(10), h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateAwaitAmount, h.state(sellerUser.ID))

	h.say(sellerUser, "100")

	assert.Equal(t, orders.LotCreated("#ABCDEF"), h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateIdle, h.state(sellerUser.ID))

	adminMsgs := h.api.messages(adminID)
	require.Len(t, adminMsgs, 1)
	summary := adminMsgs[0]
	assert.Equal(t, tgbotapi.ModeHTML, summary.ParseMode)
	for _, want := range []string{"#ABCDEF", "100 Robux", "70 Robux", "25.90", "21.00", "@seller"} {
		assert.True(t, strings.Contains(summary.Text, want), want)
	}

	ok, _ := h.bot.gate.CanSubmit(sellerUser.ID, h.now)
	assert.False(t, ok, "submission recorded")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.LotsCreated))
}

func TestSell_AnonymousContactLink(t *testing.T) {
	h := newHarness(t)

	h.say(anonUser, orders.SellButton)
	h.say(anonUser, "55")

	summary := h.api.lastText(adminID)
	assert.True(t, strings.Contains(summary, "<a href='tg://user?id=200'>пользователь</a>"))
}

func TestSell_InvalidInputKeepsState(t *testing.T) {
	h := newHarness(t)
	h.say(sellerUser, orders.SellButton)

	for _, in := range []string{"abc", "10.5", "", "двадцать"} {
		h.say(sellerUser, in)
		assert.Equal(t, orders.NotInteger(), h.api.lastText(sellerUser.ID), in)
		assert.Equal(t, dialog.StateAwaitAmount, h.state(sellerUser.ID), in)
	}
	for _, in := range []string{"9", "0", "-100"} {
		h.say(sellerUser, in)
		assert.Equal(t, orders.BelowMinimum(10), h.api.lastText(sellerUser.ID), in)
		assert.Equal(t, dialog.StateAwaitAmount, h.state(sellerUser.ID), in)
	}

	assert.Empty(t, h.api.texts(adminID))
	ok, _ := h.bot.gate.CanSubmit(sellerUser.ID, h.now)
	assert.True(t, ok, "no rate gate write on invalid input")
	assert.Equal(t, 4.0, testutil.ToFloat64(h.m.OrdersRejected.WithLabelValues(metrics.ReasonNotInteger)))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.m.OrdersRejected.WithLabelValues(metrics.ReasonBelowMinimum)))

	// фото вместо числа тоже не число
	h.photo(sellerUser, "100")
	assert.Equal(t, orders.NotInteger(), h.api.lastText(sellerUser.ID))
}

func TestSell_RateLimited(t *testing.T) {
	h := newHarness(t)
	t0 := h.now

	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, "100")
	require.Len(t, h.api.texts(adminID), 1)

	h.now = t0.Add(time.Hour + 30*time.Second)
	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, "200")

	assert.Equal(t, orders.RateLimited(4, 59), h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateIdle, h.state(sellerUser.ID))
	assert.Len(t, h.api.texts(adminID), 1, "admin not contacted")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.OrdersRejected.WithLabelValues(metrics.ReasonRateLimited)))

	// лимит не продлевается отказом
	h.now = t0.Add(6 * time.Hour)
	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, "200")
	assert.Len(t, h.api.texts(adminID), 2)
}

func TestSell_AdminDeliveryFailureStillCompletes(t *testing.T) {
	h := newHarness(t)
	h.api.always[adminID] = forbidden()

	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, "100")

	assert.Equal(t, orders.LotCreated("#ABCDEF"), h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateIdle, h.state(sellerUser.ID))
	ok, _ := h.bot.gate.CanSubmit(sellerUser.ID, h.now)
	assert.False(t, ok)
}

func TestSell_AdminIsNotASeller(t *testing.T) {
	h := newHarness(t)

	h.say(adminUser, orders.SellButton)
	assert.Equal(t, "❌ Эта функция доступна только покупателям.", h.api.lastText(adminID))
	assert.Equal(t, dialog.StateIdle, h.state(adminID))
}

func TestCancel(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, "/cancel")
	assert.Equal(t, "❌ Нет активного действия для отмены.", h.api.lastText(sellerUser.ID))

	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, "/cancel")
	assert.Equal(t, "❌ Действие отменено.", h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateIdle, h.state(sellerUser.ID))

	// после отмены число уже не заявка
	h.say(sellerUser, "100")
	assert.Empty(t, h.api.texts(adminID))
}

func TestSellButtonWhileAwaitingRestartsPrompt(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, orders.SellButton)
	h.say(sellerUser, orders.SellButton)
	assert.Equal(t, orders.AskAmount(10), h.api.lastText(sellerUser.ID))
	assert.Equal(t, dialog.StateAwaitAmount, h.state(sellerUser.ID))
}

func TestReminderForIdleUsers(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, "привет")
	assert.True(t, strings.Contains(h.api.lastText(sellerUser.ID), "Используйте кнопку"))

	h.photo(sellerUser, "")
	assert.Len(t, h.api.texts(sellerUser.ID), 2)

	h.say(sellerUser, "/help")
	assert.Len(t, h.api.texts(sellerUser.ID), 2, "unknown commands get no reminder")

	h.say(adminUser, "просто текст")
	assert.Empty(t, h.api.texts(adminID), "admin without chat is ignored")
}

func TestEveryMessageUpsertsUser(t *testing.T) {
	h := newHarness(t)

	h.say(sellerUser, "/start")
	h.say(sellerUser, "привет")
	renamed := *sellerUser
	renamed.UserName = "seller_new"
	h.say(&renamed, "ещё")

	ids, err := h.dir.ListIDs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []int64{sellerUser.ID}, ids)

	u, err := h.dir.Get(t.Context(), sellerUser.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller_new", u.Username)
}
