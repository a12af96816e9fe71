package dialog

import (
	"context"
	"sync"
)

// Repo состояния диалогов в памяти процесса, после рестарта все в Idle.
type Repo struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewRepo() *Repo { return &Repo{states: make(map[int64]State)} }

func (r *Repo) Get(_ context.Context, chatID int64) *Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[chatID]
	if !ok {
		st = StateIdle
	}
	return &Item{ChatID: chatID, State: st}
}

func (r *Repo) Set(ctx context.Context, chatID int64, state State) {
	if state == StateIdle {
		r.Reset(ctx, chatID)
		return
	}
	r.mu.Lock()
	r.states[chatID] = state
	r.mu.Unlock()
}

// Reset возвращает в Idle. Возвращает true, если было активное состояние.
func (r *Repo) Reset(_ context.Context, chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[chatID]
	delete(r.states, chatID)
	return ok && st.Pending()
}
