package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/broadcast"
	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/orders"
	"github.com/Spok95/robux-bot/internal/domain/users"
	"github.com/Spok95/robux-bot/internal/infra/metrics"
	"github.com/Spok95/robux-bot/internal/ratelimit"
)

const adminID int64 = 1

var (
	adminUser  = &tgbotapi.User{ID: adminID, UserName: "boss", FirstName: "Boss"}
	sellerUser = &tgbotapi.User{ID: 100, UserName: "seller", FirstName: "Ivan"}
	anonUser   = &tgbotapi.User{ID: 200, FirstName: "Anna"}
)

// --- fake Telegram ---

type attempt struct {
	chatID int64
	c      tgbotapi.Chattable
	err    error
}

type fakeAPI struct {
	mu       sync.Mutex
	attempts []attempt
	queued   map[int64][]error // ошибки по очереди, по одной на попытку
	always   map[int64]error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		queued:  map[int64][]error{},
		always:  map[int64]error{},
		updates: make(chan tgbotapi.Update, 10),
	}
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.CopyMessageConfig:
		return v.ChatID
	case tgbotapi.DocumentConfig:
		return v.ChatID
	}
	return 0
}

func (f *fakeAPI) do(c tgbotapi.Chattable) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chatOf(c)
	var err error
	if q := f.queued[id]; len(q) > 0 {
		err, f.queued[id] = q[0], q[1:]
	} else if e, ok := f.always[id]; ok {
		err = e
	}
	f.attempts = append(f.attempts, attempt{chatID: id, c: c, err: err})
	return err
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := f.do(c); err != nil {
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{MessageID: len(f.attempts)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := f.do(c); err != nil {
		return nil, err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// texts доставленные текстовые сообщения в чат.
func (f *fakeAPI) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.attempts {
		if m, ok := a.c.(tgbotapi.MessageConfig); ok && a.err == nil && a.chatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText(chatID int64) string {
	all := f.texts(chatID)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

func (f *fakeAPI) messages(chatID int64) []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, a := range f.attempts {
		if m, ok := a.c.(tgbotapi.MessageConfig); ok && a.err == nil && a.chatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// copies все попытки copyMessage в чат, включая неудачные.
func (f *fakeAPI) copies(chatID int64) []attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attempt
	for _, a := range f.attempts {
		if _, ok := a.c.(tgbotapi.CopyMessageConfig); ok && a.chatID == chatID {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

// --- harness ---

type seqCodes struct{ next int }

func (s *seqCodes) IntN(n int) int {
	v := s.next % n
	s.next++
	return v
}

type harness struct {
	t      *testing.T
	bot    *Bot
	api    *fakeAPI
	dir    users.Directory
	m      *metrics.Metrics
	now    time.Time
	sleeps []time.Duration
	msgID  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithDir(t, users.NewFileRepo(filepath.Join(t.TempDir(), "users.json")))
}

func newHarnessWithDir(t *testing.T, dir users.Directory) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		t:   t,
		api: newFakeAPI(),
		dir: dir,
		m:   metrics.New(),
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	bc := broadcast.New(log, broadcast.DefaultDelay, h.m.BroadcastDeliveries).
		WithSleep(func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		})
	h.bot = New(h.api, log, dir, dialog.NewRepo(), ratelimit.NewGate(6*time.Hour), bc, h.m, adminID, orders.DefaultMinAmount)
	h.bot.now = func() time.Time { return h.now }
	h.bot.codes = &seqCodes{}
	return h
}

func (h *harness) message(from *tgbotapi.User, text string) *tgbotapi.Message {
	h.msgID++
	return &tgbotapi.Message{
		MessageID: h.msgID,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: from.ID, Type: "private"},
		Text:      text,
	}
}

// say отправляет текст (команды размечаются как bot_command).
func (h *harness) say(from *tgbotapi.User, text string) *tgbotapi.Message {
	msg := h.message(from, text)
	if strings.HasPrefix(text, "/") {
		n := strings.IndexByte(text, ' ')
		if n < 0 {
			n = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	h.deliver(msg)
	return msg
}

// photo сообщение без текста, только медиа с подписью.
func (h *harness) photo(from *tgbotapi.User, caption string) *tgbotapi.Message {
	msg := h.message(from, "")
	msg.Caption = caption
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "file-1", Width: 10, Height: 10}}
	h.deliver(msg)
	return msg
}

func (h *harness) deliver(msg *tgbotapi.Message) {
	h.bot.onMessage(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) state(userID int64) dialog.State {
	return h.bot.states.Get(context.Background(), userID).State
}

func forbidden() error {
	return &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
}

func tooMany(sec int) error {
	return &tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests: retry later",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: sec},
	}
}
