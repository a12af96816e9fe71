// Package broadcast рассылает одно сообщение всем известным пользователям.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/robux-bot/internal/infra/metrics"
)

const DefaultDelay = 50 * time.Millisecond

// DeliverFunc отправляет (копирует) сообщение одному получателю.
type DeliverFunc func(ctx context.Context, chatID int64) error

type Result struct {
	Total   int
	Sent    int
	Failed  int
	Retried int
}

type Broadcaster struct {
	log        *slog.Logger
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	deliveries *prometheus.CounterVec
}

func New(log *slog.Logger, delay time.Duration, deliveries *prometheus.CounterVec) *Broadcaster {
	return &Broadcaster{log: log, delay: delay, sleep: Sleep, deliveries: deliveries}
}

// WithSleep подменяет ожидание (в тестах без реальных пауз).
func (b *Broadcaster) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Broadcaster {
	b.sleep = fn
	return b
}

// Run проходит по всем ids. Ошибка одного получателя цикл не прерывает;
// на "retry after N" ждём N секунд и пробуем ровно ещё раз.
// Sent+Failed всегда равно Total.
func (b *Broadcaster) Run(ctx context.Context, ids []int64, deliver DeliverFunc) Result {
	res := Result{Total: len(ids)}

	for i, id := range ids {
		if ctx.Err() != nil {
			res.Failed += len(ids) - i
			b.log.Warn("broadcast interrupted", "left", len(ids)-i, "err", ctx.Err())
			break
		}

		err := deliver(ctx, id)
		if wait, ok := RetryAfter(err); ok {
			res.Retried++
			b.observe(metrics.ResultRetried)
			b.log.Info("broadcast retry after", "chat_id", id, "wait", wait)
			if sleepErr := b.sleep(ctx, wait); sleepErr != nil {
				err = sleepErr
			} else {
				err = deliver(ctx, id)
			}
		}

		switch {
		case err == nil:
			res.Sent++
			b.observe(metrics.ResultSent)
		case IsUnreachable(err):
			res.Failed++
			b.observe(metrics.ResultFailed)
			b.log.Debug("broadcast recipient unreachable", "chat_id", id)
		default:
			res.Failed++
			b.observe(metrics.ResultFailed)
			b.log.Warn("broadcast send failed", "chat_id", id, "err", err)
		}

		if i < len(ids)-1 && b.delay > 0 {
			_ = b.sleep(ctx, b.delay)
		}
	}
	return res
}

func (b *Broadcaster) observe(result string) {
	if b.deliveries != nil {
		b.deliveries.WithLabelValues(result).Inc()
	}
}

// RetryAfter достаёт паузу из ответа 429 Telegram.
func RetryAfter(err error) (time.Duration, bool) {
	tgErr, ok := asTelegramError(err)
	if !ok || tgErr.RetryAfter <= 0 {
		return 0, false
	}
	return time.Duration(tgErr.RetryAfter) * time.Second, true
}

// IsUnreachable получатель заблокировал бота или ни разу ему не писал.
func IsUnreachable(err error) bool {
	tgErr, ok := asTelegramError(err)
	return ok && tgErr.Code == http.StatusForbidden
}

func asTelegramError(err error) (*tgbotapi.Error, bool) {
	if err == nil {
		return nil, false
	}
	var p *tgbotapi.Error
	if errors.As(err, &p) && p != nil {
		return p, true
	}
	var v tgbotapi.Error
	if errors.As(err, &v) {
		return &v, true
	}
	return nil, false
}

// Sleep ждёт d или отмены ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
