package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepo тот же справочник, но в Postgres (directory.driver=postgres).
type PgRepo struct {
	pool *pgxpool.Pool
}

var _ Directory = (*PgRepo)(nil)

func NewPgRepo(pool *pgxpool.Pool) *PgRepo { return &PgRepo{pool: pool} }

const userColumns = `id, username, first_name, first_seen`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var seen time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &seen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.FirstSeen = Timestamp{seen}
	return &u, nil
}

// Upsert по Telegram-профилю. Пустые username/first_name не затирают сохранённые.
func (r *PgRepo) Upsert(ctx context.Context, tg Telegram, now time.Time) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bot_users (id, username, first_name, first_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			username   = COALESCE(NULLIF(EXCLUDED.username, ''), bot_users.username),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), bot_users.first_name)
		RETURNING `+userColumns,
		tg.ID, tg.Username, tg.FirstName, now)

	u, err := scanUser(row)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, pgx.ErrNoRows
	}
	return *u, nil
}

func (r *PgRepo) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM bot_users WHERE id = $1`, id))
}

func (r *PgRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return nil, nil
	}
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM bot_users
		WHERE username <> '' AND lower(username) = $1
		ORDER BY id
		LIMIT 1
	`, name))
}

func (r *PgRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM bot_users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PgRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM bot_users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
