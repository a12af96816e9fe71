package orders

import (
	"fmt"
	"html"
)

const SellButton = "📢 ПРОДАТЬ РОБУКСЫ"

func Greeting(minAmount int) string {
	return "👋 Привет! Меня зовут Kotonaft15.\n" +
		"Я продавец на FunPay и готов помочь вам обналичить игровую валюту в реальные деньги.\n\n" +
		"💰 Курс: 1 Robux = 0.3 руб\n" +
		fmt.Sprintf("📦 Минимум: от %d Robux\n", minAmount) +
		"⚖️ Комиссия игры (30%) лежит на вас.\n" +
		"🛡 Гарант: FunPay (предпочтительно) или без гаранта (напрямую с вами, но первый не иду).\n" +
		"⏳ Передача: через Game Pass (5 дней ожидания).\n\n" +
		"Если хотите продать Robux, нажмите кнопку ниже 👇"
}

func AskAmount(minAmount int) string {
	return fmt.Sprintf("Введите количество Robux, которое вы готовы продать (минимум %d):", minAmount)
}

func NotInteger() string { return "❌ Пожалуйста, введите целое число." }

func BelowMinimum(minAmount int) string {
	return fmt.Sprintf("❌ Минимальная сумма — %d Robux. Попробуйте ещё раз.", minAmount)
}

func RateLimited(hours, minutes int) string {
	return fmt.Sprintf("⏳ Вы уже отправляли заявку. Попробуйте снова через %d ч. %d мин.", hours, minutes)
}

func LotCreated(code string) string {
	return fmt.Sprintf("✅ Лот %s создан и отправлен администратору.\nОжидайте, скоро с вами свяжутся.", code)
}

// ContactLink @username, а без него ссылка tg://user на id.
func ContactLink(userID int64, username string) string {
	if username != "" {
		return "@" + html.EscapeString(username)
	}
	return fmt.Sprintf("<a href='tg://user?id=%d'>пользователь</a>", userID)
}

// AdminSummary сообщение админу в HTML.
func AdminSummary(l Lot, contact string) string {
	return fmt.Sprintf(
		"📦 Лот: %s\n"+
			"Количество: %d Robux\n"+
			"С вычетом комиссии (30%%): %d Robux\n"+
			"Сумма оплаты:\n"+
			"💰 Цена с учётом комиссии FP: %s руб\n"+
			"💸 Цена напрямую: %s руб\n"+
			"👤 Связь с пользователем: %s",
		l.Code, l.Amount, l.AfterCommission, l.PriceFunPay(), l.PriceDirect(), contact,
	)
}
