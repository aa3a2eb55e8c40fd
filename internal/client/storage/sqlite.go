package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YaniYesh22/snot/internal/dbx"
)

// SQLite is the durable Port, backed by a single kv table. It accepts a
// dbx.DBTX so it works over both *sql.DB and *sql.Tx.
type SQLite struct {
	db dbx.DBTX
}

func NewSQLite(db dbx.DBTX) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to remove kv[%s]: %w", key, err)
	}
	return nil
}

// Replace applies all writes in a single transaction when the store is bound
// to a *sql.DB. A nil value removes the key.
func (s *SQLite) Replace(ctx context.Context, pairs map[string][]byte) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		// Already inside a transaction; apply sequentially on the same handle.
		return s.replaceOn(ctx, s.db, pairs)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.replaceOn(ctx, tx, pairs)
	})
}

func (s *SQLite) replaceOn(ctx context.Context, db dbx.DBTX, pairs map[string][]byte) error {
	for key, value := range pairs {
		var err error
		if value == nil {
			_, err = db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		} else {
			_, err = db.ExecContext(ctx, `
				INSERT INTO kv (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value)
		}
		if err != nil {
			return fmt.Errorf("failed to replace kv[%s]: %w", key, err)
		}
	}
	return nil
}
