// Package relay держит единственный открытый диалог админа с пользователем.
package relay

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/Spok95/robux-bot/internal/domain/users"
)

var (
	ErrAlreadyActive = errors.New("relay: chat already active")
	ErrNoActiveChat  = errors.New("relay: no active chat")
	ErrNotFound      = errors.New("relay: user not found")
	ErrSelfTarget    = errors.New("relay: cannot chat with yourself")
	ErrNoTarget      = errors.New("relay: target is empty")
)

// Slot не больше одного собеседника на весь процесс.
type Slot struct {
	mu     sync.Mutex
	target int64
	active bool
}

func (s *Slot) Active() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.active
}

// IsWith true, если сейчас открыт диалог именно с userID.
func (s *Slot) IsWith(userID int64) bool {
	target, ok := s.Active()
	return ok && target == userID
}

func (s *Slot) Open(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyActive
	}
	s.target, s.active = userID, true
	return nil
}

// Close закрывает диалог и возвращает бывшего собеседника.
func (s *Slot) Close() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrNoActiveChat
	}
	target := s.target
	s.target, s.active = 0, false
	return target, nil
}

// Lookup часть справочника, нужная для поиска собеседника.
type Lookup interface {
	FindByUsername(ctx context.Context, username string) (*users.User, error)
}

// Resolve превращает аргумент /chat в id: цифры берутся как есть,
// иначе ищется username (без @, без учёта регистра).
func Resolve(ctx context.Context, dir Lookup, arg string, adminID int64) (int64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, ErrNoTarget
	}

	var id int64
	if isDigits(arg) {
		parsed, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return 0, ErrNotFound
		}
		id = parsed
	} else {
		u, err := dir.FindByUsername(ctx, arg)
		if err != nil {
			return 0, err
		}
		if u == nil {
			return 0, ErrNotFound
		}
		id = u.ID
	}

	if id == adminID {
		return 0, ErrSelfTarget
	}
	return id, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
