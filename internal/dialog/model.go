package dialog

type State string

const (
	StateIdle State = "idle"

	// Продажа
	StateAwaitAmount State = "await_amount" // ждём количество Robux

	// Рассылка (админ)
	StateAwaitBroadcast State = "await_broadcast" // ждём любое сообщение для рассылки
)

// Pending true для всех состояний, где бот ждёт ввод.
func (s State) Pending() bool {
	return s != "" && s != StateIdle
}

type Item struct {
	ChatID int64
	State  State
}
