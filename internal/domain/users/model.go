package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	FirstSeen Timestamp `json:"first_seen"`
}

// DisplayName имя для сообщений админу: first_name, затем username, затем id.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprint(u.ID)
}

// Telegram профиль отправителя, как он пришёл в апдейте.
type Telegram struct {
	ID        int64
	Username  string
	FirstName string
}

// Directory хранилище всех, кто писал боту. Записи не удаляются.
type Directory interface {
	// Upsert создаёт запись или обновляет username/first_name (пустые значения не затирают старые).
	Upsert(ctx context.Context, tg Telegram, now time.Time) (User, error)
	// Get возвращает nil, nil если пользователя нет.
	Get(ctx context.Context, id int64) (*User, error)
	// FindByUsername ищет без учёта регистра, ведущий @ игнорируется. nil, nil если не найден.
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListIDs(ctx context.Context) ([]int64, error)
	List(ctx context.Context) ([]User, error)
}

// NormalizeUsername приводит @Name к name.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(s), "@"))
}

// Timestamp пишется как RFC 3339, читается ещё и в ISO-формате без зоны
// (так first_seen сохраняла старая версия бота).
type Timestamp struct {
	time.Time
}

var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("first_seen: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range legacyLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("first_seen: unsupported timestamp %q", s)
}
