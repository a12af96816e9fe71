package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

// FileRepo хранит справочник одним JSON-объектом {"<id>": User}.
// Каждая запись перечитывает и целиком перезаписывает файл.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

var _ Directory = (*FileRepo)(nil)

func NewFileRepo(path string) *FileRepo { return &FileRepo{path: path} }

func (r *FileRepo) load() (map[int64]User, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int64]User{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var byKey map[string]User
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	out := make(map[int64]User, len(byKey))
	for k, u := range byKey {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode %s: bad key %q", r.path, k)
		}
		u.ID = id
		out[id] = u
	}
	return out, nil
}

// save пишет во временный файл и переименовывает, чтобы не оставить обрезанный JSON.
func (r *FileRepo) save(all map[int64]User) error {
	byKey := make(map[string]User, len(all))
	for id, u := range all {
		byKey[strconv.FormatInt(id, 10)] = u
	}
	raw, err := json.MarshalIndent(byKey, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	// CreateTemp даёт 0600, а права существующего файла должны сохраниться
	mode := os.FileMode(0o644)
	if st, err := os.Stat(r.path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func (r *FileRepo) Upsert(_ context.Context, tg Telegram, now time.Time) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return User{}, err
	}

	u, ok := all[tg.ID]
	changed := !ok
	if !ok {
		u = User{ID: tg.ID, Username: tg.Username, FirstName: tg.FirstName, FirstSeen: Timestamp{now}}
	} else {
		if tg.Username != "" && tg.Username != u.Username {
			u.Username = tg.Username
			changed = true
		}
		if tg.FirstName != "" && tg.FirstName != u.FirstName {
			u.FirstName = tg.FirstName
			changed = true
		}
	}
	if !changed {
		return u, nil
	}

	all[tg.ID] = u
	if err := r.save(all); err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *FileRepo) Get(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}
	u, ok := all[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *FileRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, id := range sortedIDs(all) {
		u := all[id]
		if u.Username != "" && NormalizeUsername(u.Username) == name {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *FileRepo) ListIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}
	return sortedIDs(all), nil
}

func (r *FileRepo) List(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(all))
	for _, id := range sortedIDs(all) {
		out = append(out, all[id])
	}
	return out, nil
}

func sortedIDs(all map[int64]User) []int64 {
	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
