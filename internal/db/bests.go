package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// BestStore keeps personal bests in the personal_bests table. It satisfies
// kv.Store; keys scoped as "<player>:<name>" are split into the two columns.
type BestStore struct {
	db *DB
}

func (d *DB) Bests() *BestStore {
	return &BestStore{db: d}
}

func splitKey(key string) (player, name string) {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

func (s *BestStore) Get(ctx context.Context, key string) (int, bool, error) {
	player, name := splitKey(key)
	var v int
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(`
		SELECT value FROM personal_bests WHERE player_key = $1 AND name = $2
	`), player, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading best %s: %w", key, err)
	}
	return v, true, nil
}

func (s *BestStore) Set(ctx context.Context, key string, value int) error {
	player, name := splitKey(key)
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`
		INSERT INTO personal_bests (player_key, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_key, name)
		DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`), player, name, value)
	if err != nil {
		return fmt.Errorf("writing best %s: %w", key, err)
	}
	return nil
}
