// Package ratelimit ограничивает частоту заявок: не больше одной за окно на пользователя.
package ratelimit

import (
	"sync"
	"time"
)

// Gate держит время последней принятой заявки в памяти.
// После рестарта всё обнуляется, старые записи не чистятся.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[int64]time.Time
}

func NewGate(window time.Duration) *Gate {
	return &Gate{window: window, last: make(map[int64]time.Time)}
}

func (g *Gate) Window() time.Duration { return g.window }

// CanSubmit возвращает true, если прошлой заявки не было или окно истекло.
// Иначе отдаёт остаток в [0, window), округлённый вниз до минут.
func (g *Gate) CanSubmit(userID int64, now time.Time) (bool, time.Duration) {
	g.mu.Lock()
	last, ok := g.last[userID]
	g.mu.Unlock()

	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed >= g.window {
		return true, 0
	}
	// часы могли уйти назад: остаток всё равно меньше окна
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	remaining := g.window - elapsed
	return false, remaining.Truncate(time.Minute)
}

// Record перезаписывает время последней заявки.
func (g *Gate) Record(userID int64, now time.Time) {
	g.mu.Lock()
	g.last[userID] = now
	g.mu.Unlock()
}

// SplitHoursMinutes раскладывает остаток на целые часы и минуты.
func SplitHoursMinutes(d time.Duration) (hours, minutes int) {
	if d < 0 {
		return 0, 0
	}
	total := int(d / time.Minute)
	return total / 60, total % 60
}
